package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/velorahq/velora/internal/pkg/mail"
)

// Handler applies the side effects of one event type. A returned error is
// surfaced to the job queue's retry policy, so handlers must stay safe to
// re-run: all writes are upserts or conditional updates keyed by provider ids.
type Handler func(ctx context.Context, payload []byte) error

// Dispatcher routes a queued webhook job to the event-type-specific handler.
// Unknown event types are acknowledged without error so the provider can ship
// new types before we understand them.
type Dispatcher struct {
	svc      *Service
	mailer   mail.Mailer
	handlers map[string]Handler
}

// NewDispatcher wires the five supported event types to their handlers.
func NewDispatcher(svc *Service, mailer mail.Mailer) *Dispatcher {
	d := &Dispatcher{svc: svc, mailer: mailer}
	d.handlers = map[string]Handler{
		EventPaymentSucceeded:      d.handlePaymentSucceeded,
		EventSubscriptionActive:    d.handleSubscriptionActive,
		EventSubscriptionRenewed:   d.handleSubscriptionRenewed,
		EventSubscriptionOnHold:    d.handleSubscriptionOnHold,
		EventSubscriptionCancelled: d.handleSubscriptionCancelled,
	}
	return d
}

// Dispatch invokes the handler registered for eventType, if any.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, payload []byte) error {
	handler, ok := d.handlers[eventType]
	if !ok {
		log.Infof("[Webhook] No handler for event type %s, ignoring", eventType)
		return nil
	}
	return handler(ctx, payload)
}

// Handles reports whether a handler is registered for eventType.
func (d *Dispatcher) Handles(eventType string) bool {
	_, ok := d.handlers[eventType]
	return ok
}

func (d *Dispatcher) handlePaymentSucceeded(ctx context.Context, payload []byte) error {
	var p PaymentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("malformed payment payload: %w", err)
	}

	amount, err := amountCents(p.Amount)
	if err != nil {
		return err
	}
	userID, err := p.Metadata.UserID()
	if err != nil {
		return err
	}

	payment, err := d.svc.RecordPayment(ctx, userID, p.ID, amount, p.Currency)
	if err != nil {
		return err
	}

	// Subscription payments create the subscription eagerly in pending state
	// so that subscription.active has a row to promote even when it arrives
	// out of order.
	if p.SubscriptionID != "" {
		if _, err := d.svc.EnsurePendingSubscription(ctx, userID, p.SubscriptionID, p.Metadata.PlanSlug, p.Metadata.ProductID, amount, payment.ID); err != nil {
			return err
		}
	}

	d.notify(ctx, userID, mail.TemplatePaymentSucceeded, map[string]string{
		"amount": fmt.Sprintf("%.2f", float64(amount)/100),
	})

	log.Infof("[Webhook] Payment succeeded: %s", p.ID)
	return nil
}

func (d *Dispatcher) handleSubscriptionActive(ctx context.Context, payload []byte) error {
	var p SubscriptionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("malformed subscription payload: %w", err)
	}

	sub, err := d.svc.ActivateSubscription(ctx, p.ID, p.CurrentPeriodStart, p.CurrentPeriodEnd)
	if err != nil {
		return err
	}

	d.notify(ctx, sub.UserID, mail.TemplateSubscriptionActivated, map[string]string{
		"plan": sub.PlanSlug,
	})

	log.Infof("[Webhook] Subscription activated: %s", p.ID)
	return nil
}

func (d *Dispatcher) handleSubscriptionRenewed(ctx context.Context, payload []byte) error {
	var p SubscriptionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("malformed subscription payload: %w", err)
	}

	amount, err := amountCents(p.Amount)
	if err != nil {
		return err
	}

	sub, _, err := d.svc.RenewSubscription(ctx, p.ID, p.CurrentPeriodEnd, amount)
	if err != nil {
		return err
	}

	d.notify(ctx, sub.UserID, mail.TemplateSubscriptionRenewed, nil)

	log.Infof("[Webhook] Subscription renewed: %s", p.ID)
	return nil
}

func (d *Dispatcher) handleSubscriptionOnHold(ctx context.Context, payload []byte) error {
	var p SubscriptionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("malformed subscription payload: %w", err)
	}

	if _, err := d.svc.HoldSubscription(ctx, p.ID); err != nil {
		return err
	}

	log.Infof("[Webhook] Subscription on hold: %s", p.ID)
	return nil
}

func (d *Dispatcher) handleSubscriptionCancelled(ctx context.Context, payload []byte) error {
	var p SubscriptionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("malformed subscription payload: %w", err)
	}

	if _, err := d.svc.CancelSubscription(ctx, p.ID); err != nil {
		return err
	}

	log.Infof("[Webhook] Subscription cancelled: %s", p.ID)
	return nil
}

// notify delivers a templated email to the user, fire-and-forget. Mail
// failures are logged and never fail the handler: domain state must not be
// rolled back because the notification sink is down.
func (d *Dispatcher) notify(ctx context.Context, userID uint, template string, data map[string]string) {
	if d.mailer == nil {
		return
	}
	user, err := d.svc.GetUser(ctx, userID)
	if err != nil || user.Email == "" {
		log.Warnf("[Webhook] Skipping %s mail for user %d: %v", template, userID, err)
		return
	}
	if err := d.mailer.Send(user.Email, template, data); err != nil {
		log.Errorf("[Webhook] Failed to send %s mail to user %d: %v", template, userID, err)
	}
}
