package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order statuses. Transitions are forward-only; a committed order is never
// rolled back, only cancelled by explicit user/admin action.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusPaid       = "paid"
	OrderStatusShipped    = "shipped"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Order payment statuses.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodCreditCard = "credit_card"
	PaymentMethodPaypal     = "paypal"
	PaymentMethodCOD        = "cod"
)

// ShippingAddress is embedded into the order row.
type ShippingAddress struct {
	FirstName  string `gorm:"type:varchar(255)" json:"first_name"`
	LastName   string `gorm:"type:varchar(255)" json:"last_name"`
	Address    string `gorm:"type:varchar(255)" json:"address"`
	City       string `gorm:"type:varchar(255)" json:"city"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
}

// Order is created once per checkout inside a single transaction together
// with its items, the stock decrements and the coupon usage increment.
type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	TotalPrice      float64         `gorm:"not null" json:"total_price"`
	DiscountAmount  float64         `gorm:"not null;default:0" json:"discount_amount"`
	CouponCode      *string         `gorm:"type:varchar(64)" json:"coupon_code,omitempty"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentMethod   string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus   string          `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Notes           *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem snapshots the unit price at purchase time; it is never re-read
// from the product row, preserving historical accuracy.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Price     float64   `gorm:"not null" json:"price"`
}

// InsufficientStockError aborts the whole order-creation transaction; no
// partial order is ever committed.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s", e.ProductName)
}

// ValidStatusTransition reports whether an order may move from one status to
// another. Cancellation is only reachable before fulfilment starts.
func ValidStatusTransition(from, to string) bool {
	next, ok := map[string][]string{
		OrderStatusPending:    {OrderStatusProcessing, OrderStatusPaid, OrderStatusCancelled},
		OrderStatusProcessing: {OrderStatusPaid, OrderStatusShipped, OrderStatusCancelled},
		OrderStatusPaid:       {OrderStatusShipped, OrderStatusCompleted},
		OrderStatusShipped:    {OrderStatusCompleted},
	}[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
