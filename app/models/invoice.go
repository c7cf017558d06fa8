package models

import "time"

const InvoiceStatusPaid = "paid"

// Invoice is an append-only billing record created on subscription renewal.
type Invoice struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	SubscriptionID uint       `gorm:"not null;index" json:"subscription_id"`
	InvoiceNumber  string     `gorm:"type:varchar(100);not null;uniqueIndex:ux_invoices_number" json:"invoice_number"`
	TotalCents     int64      `gorm:"not null;default:0" json:"total_cents"`
	Status         string     `gorm:"type:varchar(32);not null;default:'paid'" json:"status"`
	PaidAt         *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
