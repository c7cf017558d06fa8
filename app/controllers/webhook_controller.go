package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/velorahq/velora/internal/pkg/billing"
	"github.com/velorahq/velora/internal/pkg/jobqueue"
	"github.com/velorahq/velora/internal/pkg/metrics/counter"
)

// WebhookController is the ingestion edge of the webhook pipeline: it
// verifies authenticity, records the event idempotently and enqueues async
// processing. It never blocks on handler execution.
type WebhookController struct {
	svc      *billing.Service
	queue    *jobqueue.Queue
	secret   string
	counters *counter.Counter
}

// NewWebhookController wires the ingestion endpoint to its collaborators.
// counters may be nil to disable telemetry.
func NewWebhookController(svc *billing.Service, queue *jobqueue.Queue, webhookSecret string, counters *counter.Counter) *WebhookController {
	return &WebhookController{svc: svc, queue: queue, secret: webhookSecret, counters: counters}
}

// HandleDodoWebhook receives POST /api/webhooks/dodo.
//
// Responses: 401 when the signature does not verify (nothing stored), 200
// {received:true} on duplicates and successful enqueue, 500 when persistence
// or enqueueing fails (the provider treats 500 as "retry delivery").
func (wc *WebhookController) HandleDodoWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	headers := billing.SignatureHeaders{
		MessageID: strings.TrimSpace(c.Get("webhook-id")),
		Signature: strings.TrimSpace(c.Get("webhook-signature")),
		Timestamp: strings.TrimSpace(c.Get("webhook-timestamp")),
	}

	// The signature gate runs before any state mutation so forged events
	// never enter the pipeline.
	if err := billing.VerifySignature(rawBody, headers, wc.secret); err != nil {
		log.Warnf("[Webhook] Signature verification failed: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	envelope, err := billing.ParseWebhookEnvelope(rawBody)
	if err != nil {
		log.Warnf("[Webhook] Malformed envelope: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	payloadJSON := string(envelope.Data.Object)
	if payloadJSON == "" {
		payloadJSON = "{}"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, stored, err := wc.svc.RecordEventIfNew(ctx, envelope.ID, envelope.Type, payloadJSON)
	if err != nil {
		log.Errorf("[Webhook] Failed to persist event %s: %v", envelope.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		log.Infof("[Webhook] Duplicate delivery of event %s, acknowledging", envelope.ID)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	}

	jobPayload := jobqueue.WebhookJobPayload{
		EventID:   stored.ID,
		EventType: envelope.Type,
		Payload:   payloadJSON,
	}
	if _, err := wc.queue.EnqueueJob(jobqueue.JobTypeWebhookProcess, jobPayload.ToMap()); err != nil {
		// The event row exists but no job does; record the failure so
		// operators can re-drive it, and let the provider retry.
		log.Errorf("[Webhook] Failed to enqueue event %s: %v", envelope.ID, err)
		_ = wc.svc.MarkEventFailed(ctx, stored.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_enqueue_failed"})
	}

	if wc.counters != nil {
		if err := wc.counters.AddReceived(ctx, envelope.Type); err != nil {
			log.Warnf("[Webhook] Failed to update received counter: %v", err)
		}
	}

	log.Infof("[Webhook] Event %s (%s) queued for processing", envelope.ID, envelope.Type)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}
