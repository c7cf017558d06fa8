package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velorahq/velora/app/models"
)

// Service provides webhook event bookkeeping and the domain mutations applied
// by the event handlers.
type Service struct {
	repo Repository
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// RecordEventIfNew persists a webhook event idempotently, keyed by the
// provider-assigned event id. Returns isNew=false when the event was already
// recorded; the caller must then acknowledge without re-enqueueing.
func (s *Service) RecordEventIfNew(ctx context.Context, eventID, eventType, payloadJSON string) (bool, *models.WebhookEvent, error) {
	_ = ctx
	id := strings.TrimSpace(eventID)
	if id == "" {
		return false, nil, errors.New("event id is required")
	}

	event := &models.WebhookEvent{
		ProviderEventID: id,
		EventType:       strings.TrimSpace(eventType),
		Status:          models.WebhookStatusReceived,
		PayloadJSON:     payloadJSON,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkEventCompleted stamps a processed timestamp and clears any error left
// by earlier failed attempts.
func (s *Service) MarkEventCompleted(ctx context.Context, eventID uint) error {
	_ = ctx
	if eventID == 0 {
		return errors.New("webhook event id is required")
	}
	return s.repo.MarkWebhookEventCompleted(eventID)
}

// MarkEventFailed records the failure reason. It is written on every failed
// attempt, not only the final one; a later successful retry overwrites it.
func (s *Service) MarkEventFailed(ctx context.Context, eventID uint, processingErr error) error {
	_ = ctx
	if eventID == 0 {
		return errors.New("webhook event id is required")
	}
	msg := "unknown error"
	if processingErr != nil {
		msg = processingErr.Error()
	}
	return s.repo.MarkWebhookEventFailed(eventID, msg)
}

// GetEvent loads a stored webhook event.
func (s *Service) GetEvent(ctx context.Context, eventID uint) (*models.WebhookEvent, error) {
	_ = ctx
	return s.repo.GetWebhookEventByID(eventID)
}

// RecordPayment upserts a payment keyed by the provider payment id, so a
// redelivered or retried payment.succeeded updates the row instead of
// duplicating it.
func (s *Service) RecordPayment(ctx context.Context, userID uint, providerPaymentID string, amountCents int64, currency string) (*models.Payment, error) {
	_ = ctx
	now := time.Now()
	payment := &models.Payment{
		UserID:            userID,
		ProviderPaymentID: strings.TrimSpace(providerPaymentID),
		AmountCents:       amountCents,
		Currency:          strings.ToUpper(strings.TrimSpace(currency)),
		Status:            models.PaymentStatusSucceeded,
		ProcessedAt:       &now,
	}
	if payment.ProviderPaymentID == "" {
		return nil, errors.New("provider payment id is required")
	}
	if payment.Currency == "" {
		payment.Currency = "INR"
	}
	if err := s.repo.UpsertPayment(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// EnsurePendingSubscription creates the subscription row in pending state if
// it does not exist yet, and links the payment to it. Existing rows are reset
// to pending; the later subscription.active event promotes them.
func (s *Service) EnsurePendingSubscription(ctx context.Context, userID uint, providerSubID, planSlug, productID string, amountCents int64, paymentID uint) (*models.Subscription, error) {
	_ = ctx
	sub := &models.Subscription{
		UserID:                 userID,
		ProviderSubscriptionID: strings.TrimSpace(providerSubID),
		PlanSlug:               planSlugOrDefault(planSlug),
		ProductID:              productID,
		AmountCents:            amountCents,
		Status:                 models.SubscriptionStatusPending,
	}
	if sub.ProviderSubscriptionID == "" {
		return nil, errors.New("provider subscription id is required")
	}
	if sub.ProductID == "" {
		sub.ProductID = "unknown"
	}
	if err := s.repo.UpsertPendingSubscription(sub); err != nil {
		return nil, err
	}
	if paymentID != 0 {
		if err := s.repo.LinkPaymentToSubscription(paymentID, sub.ID); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// ActivateSubscription moves a subscription to active, stamps the billing
// period and promotes the owning user's tier to the subscription's plan.
func (s *Service) ActivateSubscription(ctx context.Context, providerSubID string, periodStart, periodEnd *time.Time) (*models.Subscription, error) {
	sub, err := s.lookupSubscription(providerSubID)
	if err != nil {
		return nil, err
	}

	sub.Status = models.SubscriptionStatusActive
	if periodStart != nil {
		sub.StartedAt = periodStart
	}
	if periodEnd != nil {
		sub.NextBillingAt = periodEnd
	}
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateUserTier(sub.UserID, sub.PlanSlug); err != nil {
		return nil, err
	}
	return sub, nil
}

// RenewSubscription refreshes the next billing date and appends a paid
// invoice. The subscription status is left as-is.
func (s *Service) RenewSubscription(ctx context.Context, providerSubID string, periodEnd *time.Time, amountCents int64) (*models.Subscription, *models.Invoice, error) {
	sub, err := s.lookupSubscription(providerSubID)
	if err != nil {
		return nil, nil, err
	}

	if periodEnd != nil {
		sub.NextBillingAt = periodEnd
	}
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, nil, err
	}

	now := time.Now()
	invoice := &models.Invoice{
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
		InvoiceNumber:  fmt.Sprintf("INV-%s", uuid.NewString()),
		TotalCents:     amountCents,
		Status:         models.InvoiceStatusPaid,
		PaidAt:         &now,
	}
	if err := s.repo.CreateInvoice(invoice); err != nil {
		return nil, nil, err
	}
	return sub, invoice, nil
}

// HoldSubscription moves a subscription to on_hold.
func (s *Service) HoldSubscription(ctx context.Context, providerSubID string) (*models.Subscription, error) {
	sub, err := s.lookupSubscription(providerSubID)
	if err != nil {
		return nil, err
	}
	sub.Status = models.SubscriptionStatusOnHold
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// CancelSubscription moves a subscription to cancelled, timestamps the
// cancellation and resets the owning user's tier to free.
func (s *Service) CancelSubscription(ctx context.Context, providerSubID string) (*models.Subscription, error) {
	sub, err := s.lookupSubscription(providerSubID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sub.Status = models.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateUserTier(sub.UserID, models.TierFree); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetUser loads a user for notification purposes.
func (s *Service) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	_ = ctx
	return s.repo.GetUserByID(userID)
}

func (s *Service) lookupSubscription(providerSubID string) (*models.Subscription, error) {
	id := strings.TrimSpace(providerSubID)
	if id == "" {
		return nil, fmt.Errorf("%w: empty subscription id", ErrSubscriptionNotFound)
	}
	sub, err := s.repo.GetSubscriptionByProviderID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSubscriptionNotFound, id)
		}
		return nil, err
	}
	return sub, nil
}
