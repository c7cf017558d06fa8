package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Provider event types handled by the dispatcher.
const (
	EventPaymentSucceeded      = "payment.succeeded"
	EventSubscriptionActive    = "subscription.active"
	EventSubscriptionRenewed   = "subscription.renewed"
	EventSubscriptionOnHold    = "subscription.on_hold"
	EventSubscriptionCancelled = "subscription.cancelled"
)

// WebhookEnvelope is the provider's top-level webhook JSON shape.
type WebhookEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseWebhookEnvelope decodes and minimally validates a webhook body.
func ParseWebhookEnvelope(raw []byte) (*WebhookEnvelope, error) {
	var env WebhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed webhook envelope: %w", err)
	}
	if strings.TrimSpace(env.ID) == "" {
		return nil, errors.New("webhook envelope has no event id")
	}
	if strings.TrimSpace(env.Type) == "" {
		return nil, errors.New("webhook envelope has no event type")
	}
	return &env, nil
}

// PaymentMetadata carries application-level references the provider echoes
// back from checkout session creation.
type PaymentMetadata struct {
	AppUserID string `json:"app_user_id"`
	PlanSlug  string `json:"plan_slug"`
	ProductID string `json:"product_id"`
}

// PaymentPayload is the data.object of a payment.succeeded event.
type PaymentPayload struct {
	ID             string          `json:"id"`
	Amount         json.Number     `json:"amount"`
	Currency       string          `json:"currency"`
	SubscriptionID string          `json:"subscription_id"`
	Metadata       PaymentMetadata `json:"metadata"`
}

// SubscriptionPayload is the data.object of subscription lifecycle events.
type SubscriptionPayload struct {
	ID                 string      `json:"id"`
	Amount             json.Number `json:"amount"`
	CurrentPeriodStart *time.Time  `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time  `json:"current_period_end,omitempty"`
}

// UserID resolves the application user reference from payment metadata.
func (m PaymentMetadata) UserID() (uint, error) {
	ref := strings.TrimSpace(m.AppUserID)
	if ref == "" {
		return 0, ErrMissingUserReference
	}
	id, err := strconv.ParseUint(ref, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q is not a user id", ErrMissingUserReference, ref)
	}
	return uint(id), nil
}

// amountCents validates an amount as a non-negative integer quantity of
// minor currency units.
func amountCents(n json.Number) (int64, error) {
	if n.String() == "" {
		return 0, fmt.Errorf("%w: amount is missing", ErrInvalidAmount)
	}
	v, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, n.String())
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidAmount, v)
	}
	return v, nil
}
