package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velorahq/velora/app/models"
)

func TestRecordEventIfNew(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	isNew, event, err := svc.RecordEventIfNew(ctx, "evt_1", EventPaymentSucceeded, `{"id":"pay_1"}`)
	require.NoError(t, err)
	assert.True(t, isNew)
	require.NotNil(t, event)
	assert.Equal(t, models.WebhookStatusReceived, event.Status)
	assert.Equal(t, "evt_1", event.ProviderEventID)

	// Redelivery of the same provider event id is not a new event.
	isNew, dup, err := svc.RecordEventIfNew(ctx, "evt_1", EventPaymentSucceeded, `{"id":"pay_1"}`)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, event.ID, dup.ID)

	_, _, err = svc.RecordEventIfNew(ctx, "  ", EventPaymentSucceeded, "{}")
	assert.Error(t, err)
}

func TestMarkEventCompletedClearsError(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, event, err := svc.RecordEventIfNew(ctx, "evt_1", EventSubscriptionActive, "{}")
	require.NoError(t, err)

	require.NoError(t, svc.MarkEventFailed(ctx, event.ID, errors.New("subscription not found: sub_1")))
	stored, err := svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookStatusFailed, stored.Status)
	assert.Equal(t, "subscription not found: sub_1", stored.ErrorMessage)
	assert.Nil(t, stored.ProcessedAt)

	// A successful retry overwrites the earlier failure.
	require.NoError(t, svc.MarkEventCompleted(ctx, event.ID))
	stored, err = svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookStatusCompleted, stored.Status)
	assert.Empty(t, stored.ErrorMessage)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrSubscriptionNotFound))
	assert.True(t, IsRetryable(errors.New("db connection lost")))
	assert.False(t, IsRetryable(ErrMissingUserReference))
	assert.False(t, IsRetryable(ErrInvalidAmount))
}

func TestParseWebhookEnvelope(t *testing.T) {
	env, err := ParseWebhookEnvelope([]byte(`{"id":"evt_1","type":"payment.succeeded","data":{"object":{"id":"pay_1"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", env.ID)
	assert.Equal(t, EventPaymentSucceeded, env.Type)
	assert.JSONEq(t, `{"id":"pay_1"}`, string(env.Data.Object))

	for name, body := range map[string]string{
		"not json":   `{`,
		"no id":      `{"type":"payment.succeeded"}`,
		"no type":    `{"id":"evt_1"}`,
		"blank type": `{"id":"evt_1","type":"  "}`,
	} {
		if _, err := ParseWebhookEnvelope([]byte(body)); err == nil {
			t.Errorf("expected error for %s envelope", name)
		}
	}
}

func TestGetPlanConfig(t *testing.T) {
	for _, slug := range []string{"starter", "pro", "premium", "enterprise"} {
		cfg, ok := GetPlanConfig(slug)
		require.True(t, ok, "plan %s should exist", slug)
		assert.Equal(t, slug, cfg.Slug)
		assert.Greater(t, cfg.PriceCents, int64(0))
	}

	_, ok := GetPlanConfig("gold")
	assert.False(t, ok)
	assert.False(t, IsValidPlan("gold"))
	assert.True(t, IsValidPlan("pro"))
}
