package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Dat0801/shopwave/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateOrderParams is the cart snapshot handed to the transaction script.
type CreateOrderParams struct {
	UserID          uuid.UUID
	Items           []models.CartItem
	ShippingAddress models.ShippingAddress
	CouponCode      string
	PaymentMethod   string
	Notes           string
}

// OrderRepository defines the interface for order data access. CreateFromCart
// is the single owner of the checkout transaction boundary: every write it
// makes (order, items, stock decrements, coupon usage) commits or rolls back
// together.
type OrderRepository interface {
	CreateFromCart(ctx context.Context, params CreateOrderParams) (*models.Order, []models.Product, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	FindByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) error
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, paymentStatus string) error
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// CreateFromCart builds the order aggregate in one transaction:
//
//  1. total = sum of snapshot prices
//  2. resolve the coupon and bump used_count atomically when a discount applies
//  3. insert the order row
//  4. per line: re-read the product under FOR UPDATE, check sufficiency,
//     decrement stock, insert the item with the snapshot price
//
// Any insufficiency aborts the whole transaction with an
// InsufficientStockError; nothing partial is ever committed. The returned
// product slice holds lines whose post-decrement stock fell to the low-stock
// threshold, for the caller to fan out notifications after commit.
func (r *GormOrderRepository) CreateFromCart(ctx context.Context, params CreateOrderParams) (*models.Order, []models.Product, error) {
	var order *models.Order
	var lowStock []models.Product

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total float64
		for _, item := range params.Items {
			total += item.Price * float64(item.Quantity)
		}

		var discount float64
		var appliedCode *string
		if params.CouponCode != "" {
			var coupon models.Coupon
			err := tx.
				Where("LOWER(code) = ? AND active = ?", strings.ToLower(params.CouponCode), true).
				First(&coupon).Error
			switch {
			case err == nil:
				discount = coupon.DiscountFor(total)
				if discount > 0 {
					if err := tx.Model(&models.Coupon{}).
						Where("id = ?", coupon.ID).
						UpdateColumn("used_count", gorm.Expr("used_count + ?", 1)).Error; err != nil {
						return err
					}
					appliedCode = &coupon.Code
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				// No such coupon: full price, not an error.
			default:
				return err
			}
		}

		paymentStatus := models.PaymentStatusPaid
		if params.PaymentMethod == models.PaymentMethodCOD {
			paymentStatus = models.PaymentStatusPending
		}

		var notes *string
		if params.Notes != "" {
			notes = &params.Notes
		}

		order = &models.Order{
			UserID:          params.UserID,
			TotalPrice:      total - discount,
			DiscountAmount:  discount,
			CouponCode:      appliedCode,
			Status:          models.OrderStatusPending,
			PaymentMethod:   params.PaymentMethod,
			PaymentStatus:   paymentStatus,
			ShippingAddress: params.ShippingAddress,
			Notes:           notes,
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for _, item := range params.Items {
			// Fresh read under a row lock, held through the decrement, so
			// two concurrent checkouts cannot both pass the sufficiency
			// check against the same stale stock value.
			var product models.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&product, "id = ?", item.ProductID).Error; err != nil {
				return err
			}

			if product.Stock < item.Quantity {
				return &models.InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   item.Quantity,
					Available:   product.Stock,
				}
			}

			if err := tx.Model(&models.Product{}).
				Where("id = ?", product.ID).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity)).Error; err != nil {
				return err
			}

			orderItem := models.OrderItem{
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, orderItem)

			if remaining := product.Stock - item.Quantity; remaining <= models.LowStockThreshold {
				product.Stock = remaining
				lowStock = append(lowStock, product)
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return order, lowStock, nil
}

// FindByUserID retrieves orders for a specific user with pagination.
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Items").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// FindAll retrieves all orders with pagination (admin).
func (r *GormOrderRepository) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Items").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// FindByIDAndUserID retrieves a specific order scoped to its owner.
func (r *GormOrderRepository) FindByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormOrderRepository) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, paymentStatus string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("payment_status", paymentStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
