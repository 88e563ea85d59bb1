package models

import (
	"time"

	"github.com/google/uuid"
)

// Domain event types published to the events topic. The notification service
// consumes these and dispatches the actual emails/in-app messages.
const (
	EventOrderPlaced      = "order.placed"
	EventLowStock         = "stock.low"
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// OrderPlacedEvent announces a committed order to administrators.
type OrderPlacedEvent struct {
	EventType     string    `json:"event_type"`
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id"`
	TotalPrice    float64   `json:"total_price"`
	PaymentMethod string    `json:"payment_method"`
	ItemCount     int       `json:"item_count"`
	Timestamp     time.Time `json:"timestamp"`
}

// LowStockEvent fires when a checkout leaves a product at or below the
// restock threshold. Emission is best-effort and outside the order
// transaction's atomicity guarantee.
type LowStockEvent struct {
	EventType    string    `json:"event_type"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	CurrentStock int       `json:"current_stock"`
	Threshold    int       `json:"threshold"`
	Timestamp    time.Time `json:"timestamp"`
}

// PaymentEvent reports a payment reaching a terminal state.
type PaymentEvent struct {
	EventType string    `json:"event_type"`
	OrderID   string    `json:"order_id"`
	PaymentID string    `json:"payment_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
}
