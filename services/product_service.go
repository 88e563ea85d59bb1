package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Dat0801/shopwave/models"
	"github.com/Dat0801/shopwave/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductService exposes the catalog read side and the admin restock
// operation backed by the same atomic stock adjustment the checkout uses.
type ProductService interface {
	ListProducts(ctx context.Context, page, limit int) ([]models.Product, int64, *ServiceError)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, *ServiceError)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, *ServiceError)
}

type productServiceImpl struct {
	repo   repository.ProductRepository
	logger *zap.Logger
}

func NewProductService(repo repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productServiceImpl{repo: repo, logger: logger}
}

func (s *productServiceImpl) ListProducts(ctx context.Context, page, limit int) ([]models.Product, int64, *ServiceError) {
	products, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to retrieve products"}
	}
	return products, total, nil
}

func (s *productServiceImpl) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, *ServiceError) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
		}
		s.logger.Error("Failed to fetch product", zap.String("product_id", id.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to retrieve product"}
	}
	return product, nil
}

// AdjustStock applies a relative stock change. The database check constraint
// rejects adjustments that would drive stock negative.
func (s *productServiceImpl) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, *ServiceError) {
	if delta == 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "Stock adjustment must be non-zero"}
	}

	product, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
		}
		if strings.Contains(err.Error(), "check") || strings.Contains(err.Error(), "stock") {
			return nil, &ServiceError{StatusCode: 400, Message: "Adjustment would make stock negative"}
		}
		s.logger.Error("Failed to adjust stock",
			zap.String("product_id", id.String()),
			zap.Int("delta", delta),
			zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to adjust stock"}
	}

	s.logger.Info("Stock adjusted",
		zap.String("product_id", id.String()),
		zap.Int("delta", delta),
		zap.Int("stock", product.Stock))
	return product, nil
}
