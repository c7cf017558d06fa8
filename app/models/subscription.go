package models

import "time"

const (
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusOnHold    = "on_hold"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription mirrors a provider subscription. At most one row exists per
// provider subscription id; status transitions are
// pending -> active -> {on_hold, cancelled}.
type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	UserID                 uint       `gorm:"not null;index" json:"user_id"`
	ProviderSubscriptionID string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_subscriptions_provider_sub" json:"provider_subscription_id"`
	PlanSlug               string     `gorm:"type:varchar(50);not null;default:'free'" json:"plan_slug"`
	ProductID              string     `gorm:"type:varchar(191);not null;default:'unknown'" json:"product_id"`
	AmountCents            int64      `gorm:"not null;default:0" json:"amount_cents"`
	Status                 string     `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	StartedAt              *time.Time `gorm:"type:timestamp;default:null" json:"started_at,omitempty"`
	NextBillingAt          *time.Time `gorm:"type:timestamp;default:null" json:"next_billing_at,omitempty"`
	CancelledAt            *time.Time `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
