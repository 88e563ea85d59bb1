package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CouponType represents the type of discount a coupon provides.
type CouponType string

const (
	CouponTypeFixed   CouponType = "fixed"
	CouponTypePercent CouponType = "percent"
)

// Coupon represents a promotional coupon stored in Postgres.
//
// UsedCount is incremented exactly once per order that applies the coupon,
// inside the order-creation transaction, and is never decremented.
type Coupon struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code           string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Type           CouponType     `gorm:"type:varchar(20);not null" json:"type"`
	Value          float64        `gorm:"not null" json:"value"`
	MinOrderAmount float64        `gorm:"not null;default:0" json:"min_order_amount"` // 0 = no minimum
	UsageLimit     int            `gorm:"not null;default:0" json:"usage_limit"`      // 0 = unlimited
	UsedCount      int            `gorm:"not null;default:0" json:"used_count"`
	StartsAt       *time.Time     `json:"starts_at,omitempty"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	Active         bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsValid reports whether the coupon is redeemable right now: active, inside
// its start/expiry window, and under its usage cap.
func (c *Coupon) IsValid() bool {
	if !c.Active {
		return false
	}
	now := time.Now()
	if c.StartsAt != nil && c.StartsAt.After(now) {
		return false
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	return true
}

// DiscountFor computes the discount this coupon grants against a pre-discount
// order total. It has no side effects and never returns more than the total,
// so an order can never be driven negative. An unredeemable coupon or an
// unmet minimum yields zero.
func (c *Coupon) DiscountFor(orderTotal float64) float64 {
	if c == nil || !c.IsValid() {
		return 0
	}
	if c.MinOrderAmount > 0 && orderTotal < c.MinOrderAmount {
		return 0
	}

	var discount float64
	switch c.Type {
	case CouponTypeFixed:
		discount = c.Value
	case CouponTypePercent:
		discount = orderTotal * (c.Value / 100)
	default:
		return 0
	}

	if discount > orderTotal {
		discount = orderTotal
	}
	return discount
}

// CreateCouponRequest is the payload for creating a new coupon.
type CreateCouponRequest struct {
	Code           string     `json:"code" binding:"required,min=3,max=64"`
	Type           CouponType `json:"type" binding:"required,oneof=fixed percent"`
	Value          float64    `json:"value" binding:"required,gt=0"`
	MinOrderAmount float64    `json:"min_order_amount" binding:"gte=0"`
	UsageLimit     int        `json:"usage_limit" binding:"gte=0"`
	StartsAt       *time.Time `json:"starts_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

// ValidateCouponRequest is the payload for previewing a coupon against a cart.
type ValidateCouponRequest struct {
	Code      string  `json:"code" binding:"required"`
	CartTotal float64 `json:"cart_total" binding:"required,gt=0"`
}

// ValidateCouponResponse is the read-only result of a coupon preview. Usage
// is not consumed here; that happens when an order actually applies the code.
type ValidateCouponResponse struct {
	Valid          bool       `json:"valid"`
	Code           string     `json:"code"`
	Type           CouponType `json:"type,omitempty"`
	DiscountAmount float64    `json:"discount_amount"`
	Message        string     `json:"message,omitempty"`
}
