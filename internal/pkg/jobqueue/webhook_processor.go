package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/velorahq/velora/internal/pkg/billing"
	"github.com/velorahq/velora/internal/pkg/metrics/counter"
)

// WebhookProcessor bridges the queue and the billing dispatcher. After each
// attempt it updates the stored webhook event: completed with a processed
// timestamp on success, failed with the error message otherwise. The failed
// status is written on every attempt and overwritten if a later retry
// succeeds.
type WebhookProcessor struct {
	svc        *billing.Service
	dispatcher *billing.Dispatcher
	counters   *counter.Counter
}

// NewWebhookProcessor creates the processor for webhook jobs. counters may be
// nil to disable telemetry.
func NewWebhookProcessor(svc *billing.Service, dispatcher *billing.Dispatcher, counters *counter.Counter) *WebhookProcessor {
	return &WebhookProcessor{svc: svc, dispatcher: dispatcher, counters: counters}
}

// Process handles one delivery of a webhook job. A returned error hands the
// job back to the queue's retry policy.
func (p *WebhookProcessor) Process(ctx context.Context, job *Job) error {
	payload, err := WebhookJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid webhook job payload: %w", err)
	}
	if payload.EventID == 0 {
		return fmt.Errorf("webhook job %s has no event reference", job.ID)
	}

	if err := p.dispatcher.Dispatch(ctx, payload.EventType, []byte(payload.Payload)); err != nil {
		if markErr := p.svc.MarkEventFailed(ctx, payload.EventID, err); markErr != nil {
			log.Errorf("[Webhook] Failed to mark event %d failed: %v", payload.EventID, markErr)
		}
		p.count(ctx, payload.EventType, false)
		return err
	}

	if err := p.svc.MarkEventCompleted(ctx, payload.EventID); err != nil {
		return fmt.Errorf("failed to mark event %d completed: %w", payload.EventID, err)
	}
	p.count(ctx, payload.EventType, true)
	return nil
}

func (p *WebhookProcessor) count(ctx context.Context, eventType string, completed bool) {
	if p.counters == nil {
		return
	}
	var err error
	if completed {
		err = p.counters.AddCompleted(ctx, eventType)
	} else {
		err = p.counters.AddFailed(ctx, eventType)
	}
	if err != nil {
		log.Warnf("[Webhook] Failed to update %s counter: %v", eventType, err)
	}
}
