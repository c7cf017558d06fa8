package models

import "time"

const (
	WebhookStatusReceived  = "received"
	WebhookStatusCompleted = "completed"
	WebhookStatusFailed    = "failed"
)

// WebhookEvent stores provider webhook payloads with deduplication metadata
// for idempotent processing. The provider-assigned event id is the
// idempotency key; exactly one row exists per event id. Rows are never
// deleted by the pipeline.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_webhook_events_provider_event" json:"provider_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Status          string     `gorm:"type:varchar(20);not null;default:'received';index" json:"status"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ErrorMessage    string     `gorm:"type:text" json:"error_message"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
