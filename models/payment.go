package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment statuses as reported by the processor.
const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
	PaymentCanceled  = "canceled"
	PaymentRefunded  = "refunded"
)

// Payment tracks a single attempt to collect money for an order via Stripe.
// The amount is in minor units (cents). An order may accumulate multiple
// payment rows across retries; the Stripe intent id is the reconciliation
// key, so upserts by intent id never duplicate. Rows are never hard-deleted.
type Payment struct {
	ID                    uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID               uuid.UUID      `gorm:"type:uuid;not null;index" json:"order_id"`
	StripePaymentIntentID string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"stripe_payment_intent_id"`
	Amount                int64          `gorm:"not null" json:"amount"` // minor units
	Currency              string         `gorm:"type:varchar(10);not null" json:"currency"`
	Status                string         `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentMethod         *string        `gorm:"type:varchar(64)" json:"payment_method,omitempty"`
	Metadata              *string        `gorm:"type:jsonb" json:"-"`
	PaidAt                *time.Time     `json:"paid_at,omitempty"`
	CreatedAt             time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsPaid reports whether the payment has actually settled.
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentSucceeded && p.PaidAt != nil
}

// IsTerminal reports whether the payment has reached a state webhooks must
// not move it out of. Replayed deliveries for terminal payments are no-ops.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case PaymentSucceeded, PaymentFailed, PaymentCanceled, PaymentRefunded:
		return true
	}
	return false
}
