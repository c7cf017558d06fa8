package models

import "time"

const PaymentStatusSucceeded = "succeeded"

// Payment mirrors a provider payment. Upserts are keyed by the
// provider-assigned payment id so redelivered events update the same row.
type Payment struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"not null;index" json:"user_id"`
	ProviderPaymentID string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_payments_provider_payment" json:"provider_payment_id"`
	SubscriptionID    *uint      `gorm:"index" json:"subscription_id,omitempty"`
	AmountCents       int64      `gorm:"not null;default:0" json:"amount_cents"`
	Currency          string     `gorm:"type:varchar(10);not null;default:'INR'" json:"currency"`
	Status            string     `gorm:"type:varchar(32);not null" json:"status"`
	ProcessedAt       *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
