package models

import "time"

// CheckoutSession stores a provider checkout session created for a user so
// the success page can resolve it later.
type CheckoutSession struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"not null;index" json:"user_id"`
	ProviderSessionID string    `gorm:"type:varchar(191);not null;index" json:"provider_session_id"`
	PlanSlug          string    `gorm:"type:varchar(50);not null" json:"plan_slug"`
	CheckoutURL       string    `gorm:"type:varchar(2048);not null" json:"checkout_url"`
	ExpiresAt         time.Time `gorm:"type:timestamp;not null" json:"expires_at"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}
