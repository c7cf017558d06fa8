package jobqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/velorahq/velora/app/models"
	"github.com/velorahq/velora/internal/pkg/billing"
)

// stubBillingRepo tracks webhook event status transitions; everything else is
// unused by the event types exercised here.
type stubBillingRepo struct {
	events map[uint]*models.WebhookEvent
}

func newStubBillingRepo() *stubBillingRepo {
	return &stubBillingRepo{events: map[uint]*models.WebhookEvent{}}
}

func (s *stubBillingRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	event.ID = uint(len(s.events) + 1)
	s.events[event.ID] = event
	return true, event, nil
}

func (s *stubBillingRepo) MarkWebhookEventCompleted(id uint) error {
	e, ok := s.events[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	e.Status = models.WebhookStatusCompleted
	e.ProcessedAt = &now
	e.ErrorMessage = ""
	return nil
}

func (s *stubBillingRepo) MarkWebhookEventFailed(id uint, errMsg string) error {
	e, ok := s.events[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Status = models.WebhookStatusFailed
	e.ErrorMessage = errMsg
	return nil
}

func (s *stubBillingRepo) GetWebhookEventByID(id uint) (*models.WebhookEvent, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (s *stubBillingRepo) UpsertPayment(p *models.Payment) error { return nil }
func (s *stubBillingRepo) LinkPaymentToSubscription(paymentID, subscriptionID uint) error {
	return nil
}
func (s *stubBillingRepo) UpsertPendingSubscription(sub *models.Subscription) error { return nil }
func (s *stubBillingRepo) GetSubscriptionByProviderID(providerSubID string) (*models.Subscription, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubBillingRepo) SaveSubscription(sub *models.Subscription) error { return nil }
func (s *stubBillingRepo) CreateInvoice(inv *models.Invoice) error         { return nil }
func (s *stubBillingRepo) GetUserByID(id uint) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubBillingRepo) UpdateUserTier(userID uint, tier string) error { return nil }

func newTestProcessor() (*WebhookProcessor, *stubBillingRepo) {
	repo := newStubBillingRepo()
	svc := billing.NewService(repo)
	return NewWebhookProcessor(svc, billing.NewDispatcher(svc, nil), nil), repo
}

func TestWebhookProcessor_UnknownEventTypeCompletes(t *testing.T) {
	processor, repo := newTestProcessor()
	ctx := context.Background()

	_, event, err := svcRecord(ctx, repo, "evt_1", "refund.created")
	require.NoError(t, err)

	job := &Job{
		ID:      "job-1",
		Type:    JobTypeWebhookProcess,
		Payload: WebhookJobPayload{EventID: event.ID, EventType: "refund.created", Payload: "{}"}.ToMap(),
	}

	require.NoError(t, processor.Process(ctx, job))
	assert.Equal(t, models.WebhookStatusCompleted, repo.events[event.ID].Status)
	assert.NotNil(t, repo.events[event.ID].ProcessedAt)
}

func TestWebhookProcessor_FailureMarksEventFailed(t *testing.T) {
	processor, repo := newTestProcessor()
	ctx := context.Background()

	_, event, err := svcRecord(ctx, repo, "evt_2", "subscription.active")
	require.NoError(t, err)

	// The stub has no subscriptions, so activation fails and the error is
	// handed back to the queue for retry.
	job := &Job{
		ID:   "job-2",
		Type: JobTypeWebhookProcess,
		Payload: WebhookJobPayload{
			EventID:   event.ID,
			EventType: "subscription.active",
			Payload:   `{"id":"sub_1"}`,
		}.ToMap(),
	}

	err = processor.Process(ctx, job)
	assert.ErrorIs(t, err, billing.ErrSubscriptionNotFound)
	assert.Equal(t, models.WebhookStatusFailed, repo.events[event.ID].Status)
	assert.Contains(t, repo.events[event.ID].ErrorMessage, "subscription not found")
}

func TestWebhookProcessor_RejectsJobWithoutEventReference(t *testing.T) {
	processor, _ := newTestProcessor()

	err := processor.Process(context.Background(), &Job{
		ID:      "job-3",
		Type:    JobTypeWebhookProcess,
		Payload: map[string]interface{}{"event_type": "payment.succeeded", "payload": "{}"},
	})
	assert.Error(t, err)
}

func svcRecord(ctx context.Context, repo *stubBillingRepo, providerEventID, eventType string) (bool, *models.WebhookEvent, error) {
	return billing.NewService(repo).RecordEventIfNew(ctx, providerEventID, eventType, "{}")
}
