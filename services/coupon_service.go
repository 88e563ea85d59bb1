package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dat0801/shopwave/models"
	"github.com/Dat0801/shopwave/repository"
	"go.uber.org/zap"
)

// CouponService defines the interface for coupon business logic.
//
// ValidateCoupon is a read-only preview: it never consumes a redemption.
// used_count moves only inside the order-creation transaction, so an
// abandoned cart can never burn a usage slot.
type CouponService interface {
	CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError)
	ValidateCoupon(ctx context.Context, req *models.ValidateCouponRequest) (*models.ValidateCouponResponse, *ServiceError)
	GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError)
	DeactivateCoupon(ctx context.Context, code string) *ServiceError
	ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError)
}

type couponServiceImpl struct {
	repo   repository.CouponRepository
	logger *zap.Logger
}

func NewCouponService(repo repository.CouponRepository, logger *zap.Logger) CouponService {
	return &couponServiceImpl{repo: repo, logger: logger}
}

// CreateCoupon creates a new coupon (admin).
func (s *couponServiceImpl) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError) {
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		return nil, &ServiceError{StatusCode: 400, Message: "Expiry date must be in the future"}
	}
	if req.StartsAt != nil && req.ExpiresAt != nil && req.ExpiresAt.Before(*req.StartsAt) {
		return nil, &ServiceError{StatusCode: 400, Message: "Expiry date must be after start date"}
	}
	if req.Type == models.CouponTypePercent && req.Value > 100 {
		return nil, &ServiceError{StatusCode: 400, Message: "Percentage discount cannot exceed 100"}
	}

	coupon := &models.Coupon{
		Code:           strings.ToUpper(req.Code),
		Type:           req.Type,
		Value:          req.Value,
		MinOrderAmount: req.MinOrderAmount,
		UsageLimit:     req.UsageLimit,
		StartsAt:       req.StartsAt,
		ExpiresAt:      req.ExpiresAt,
		Active:         true,
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return nil, &ServiceError{StatusCode: 409, Message: "Coupon code already exists"}
		}
		s.logger.Error("Failed to create coupon", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create coupon"}
	}

	s.logger.Info("Coupon created", zap.String("code", coupon.Code), zap.String("type", string(coupon.Type)))
	return coupon, nil
}

// ValidateCoupon previews a coupon against a cart total. Absence of a valid
// coupon is not an error: the caller simply gets a zero discount.
func (s *couponServiceImpl) ValidateCoupon(ctx context.Context, req *models.ValidateCouponRequest) (*models.ValidateCouponResponse, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil {
		return &models.ValidateCouponResponse{
			Valid:   false,
			Code:    req.Code,
			Message: "Coupon not found or inactive",
		}, nil
	}

	if !coupon.IsValid() {
		return &models.ValidateCouponResponse{
			Valid:   false,
			Code:    coupon.Code,
			Message: "Coupon is not currently redeemable",
		}, nil
	}

	if coupon.MinOrderAmount > 0 && req.CartTotal < coupon.MinOrderAmount {
		return &models.ValidateCouponResponse{
			Valid:   false,
			Code:    coupon.Code,
			Message: fmt.Sprintf("Minimum order amount of %.2f required", coupon.MinOrderAmount),
		}, nil
	}

	return &models.ValidateCouponResponse{
		Valid:          true,
		Code:           coupon.Code,
		Type:           coupon.Type,
		DiscountAmount: coupon.DiscountFor(req.CartTotal),
		Message:        "Coupon can be applied",
	}, nil
}

// GetCoupon retrieves a coupon by code.
func (s *couponServiceImpl) GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Coupon not found"}
	}
	return coupon, nil
}

// DeactivateCoupon deactivates a coupon by code (admin).
func (s *couponServiceImpl) DeactivateCoupon(ctx context.Context, code string) *ServiceError {
	if err := s.repo.Deactivate(ctx, code); err != nil {
		if err.Error() == "record not found" {
			return &ServiceError{StatusCode: 404, Message: "Coupon not found"}
		}
		s.logger.Error("Failed to deactivate coupon", zap.String("code", code), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to deactivate coupon"}
	}

	s.logger.Info("Coupon deactivated", zap.String("code", code))
	return nil
}

// ListCoupons returns paginated coupons (admin).
func (s *couponServiceImpl) ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError) {
	coupons, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list coupons", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list coupons"}
	}
	return coupons, total, nil
}
