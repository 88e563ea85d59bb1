package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LowStockThreshold is the inventory level at or below which a restock
// notification is emitted after a checkout decrements stock.
const LowStockThreshold = 10

// Product is a stock-bearing catalog row. Stock is only ever decremented
// inside the order-creation transaction, behind a row lock.
type Product struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Price     float64        `gorm:"not null" json:"price"`
	SalePrice *float64       `json:"sale_price,omitempty"`
	Stock     int            `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	ImagePath string         `gorm:"type:varchar(1024)" json:"image_path,omitempty"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// EffectivePrice returns the sale price when one is set, otherwise the list
// price. Cart snapshots are taken at this price.
func (p *Product) EffectivePrice() float64 {
	if p.SalePrice != nil && *p.SalePrice > 0 && *p.SalePrice < p.Price {
		return *p.SalePrice
	}
	return p.Price
}
