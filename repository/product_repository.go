package repository

import (
	"context"

	"github.com/Dat0801/shopwave/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Product, int64, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error)
}

// GormProductRepository implements ProductRepository using GORM.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindAll retrieves paginated active products.
func (r *GormProductRepository) FindAll(ctx context.Context, page, limit int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("active = ?", true)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// AdjustStock applies an admin restock (or correction) as a single atomic
// update and returns the fresh row. Checkout-time decrements do NOT go
// through here; they happen inside the order-creation transaction.
func (r *GormProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}
