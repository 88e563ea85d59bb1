package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a snapshot of a product line at the moment it was added: the
// unit price is copied from the product row, not read live at checkout.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	ImagePath string    `json:"image_path,omitempty"`
}

// Cart is the per-user session cart, stored as a JSON document in Redis with
// a TTL. It is cleared on successful checkout and never persisted beyond
// that.
type Cart struct {
	UserID     string     `json:"user_id"`
	Items      []CartItem `json:"items"`
	CouponCode string     `json:"coupon_code,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Total returns the pre-discount sum of all lines.
func (c *Cart) Total() float64 {
	if c == nil {
		return 0
	}
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Find returns the line for a product, or nil.
func (c *Cart) Find(productID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// Remove drops the line for a product if present.
func (c *Cart) Remove(productID uuid.UUID) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}
