package services

import (
	"context"

	"github.com/Dat0801/shopwave/models"
	"github.com/Dat0801/shopwave/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartView is the cart plus its computed totals, including a read-only
// preview of the applied coupon's discount.
type CartView struct {
	Items              []models.CartItem `json:"items"`
	CouponCode         string            `json:"coupon_code,omitempty"`
	Total              float64           `json:"total"`
	Discount           float64           `json:"discount"`
	TotalAfterDiscount float64           `json:"total_after_discount"`
}

// CartService defines the interface for session-cart operations.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*CartView, *ServiceError)
	AddItem(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*CartView, *ServiceError)
	UpdateItem(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*CartView, *ServiceError)
	RemoveItem(ctx context.Context, userID string, productID uuid.UUID) (*CartView, *ServiceError)
	Clear(ctx context.Context, userID string) *ServiceError
	ApplyCoupon(ctx context.Context, userID, code string) (*models.ValidateCouponResponse, *ServiceError)
}

type cartServiceImpl struct {
	store     repository.CartStore
	products  repository.ProductRepository
	couponSvc CouponService
	logger    *zap.Logger
}

func NewCartService(store repository.CartStore, products repository.ProductRepository, couponSvc CouponService, logger *zap.Logger) CartService {
	return &cartServiceImpl{
		store:     store,
		products:  products,
		couponSvc: couponSvc,
		logger:    logger,
	}
}

func (s *cartServiceImpl) GetCart(ctx context.Context, userID string) (*CartView, *ServiceError) {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
	}
	return s.view(ctx, userID, cart), nil
}

// AddItem snapshots the product's current effective price into the cart line.
func (s *cartServiceImpl) AddItem(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*CartView, *ServiceError) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
	}
	if !product.Active {
		return nil, &ServiceError{StatusCode: 400, Message: "Product is not available"}
	}
	if product.Stock < quantity {
		return nil, &ServiceError{StatusCode: 400, Message: "Not enough stock for " + product.Name}
	}

	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID}
	}

	if line := cart.Find(productID); line != nil {
		line.Quantity += quantity
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.EffectivePrice(),
			Quantity:  quantity,
			ImagePath: product.ImagePath,
		})
	}

	if err := s.store.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to save cart"}
	}
	return s.view(ctx, userID, cart), nil
}

func (s *cartServiceImpl) UpdateItem(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*CartView, *ServiceError) {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
	}
	if cart.IsEmpty() {
		return nil, &ServiceError{StatusCode: 404, Message: "Cart is empty"}
	}

	line := cart.Find(productID)
	if line == nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Item not in cart"}
	}

	if quantity <= 0 {
		cart.Remove(productID)
	} else {
		line.Quantity = quantity
	}

	if err := s.store.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to save cart"}
	}
	return s.view(ctx, userID, cart), nil
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID string, productID uuid.UUID) (*CartView, *ServiceError) {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
	}
	if cart.IsEmpty() {
		return s.view(ctx, userID, cart), nil
	}

	cart.Remove(productID)
	if err := s.store.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to save cart"}
	}
	return s.view(ctx, userID, cart), nil
}

func (s *cartServiceImpl) Clear(ctx context.Context, userID string) *ServiceError {
	if err := s.store.Delete(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart", zap.String("user_id", userID), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to clear cart"}
	}
	return nil
}

// ApplyCoupon validates the code against the current cart total and, when
// redeemable, attaches it to the cart. Nothing is consumed until checkout.
func (s *cartServiceImpl) ApplyCoupon(ctx context.Context, userID, code string) (*models.ValidateCouponResponse, *ServiceError) {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
	}
	if cart.IsEmpty() {
		return nil, &ServiceError{StatusCode: 400, Message: "Cart is empty"}
	}

	resp, svcErr := s.couponSvc.ValidateCoupon(ctx, &models.ValidateCouponRequest{
		Code:      code,
		CartTotal: cart.Total(),
	})
	if svcErr != nil {
		return nil, svcErr
	}

	if resp.Valid {
		cart.CouponCode = resp.Code
		if err := s.store.Save(ctx, cart); err != nil {
			s.logger.Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to save cart"}
		}
	}

	return resp, nil
}

// view assembles totals; the discount shown is a preview and is recomputed
// authoritatively inside the checkout transaction.
func (s *cartServiceImpl) view(ctx context.Context, userID string, cart *models.Cart) *CartView {
	if cart == nil {
		return &CartView{Items: []models.CartItem{}}
	}

	total := cart.Total()
	var discount float64
	if cart.CouponCode != "" && total > 0 {
		if resp, svcErr := s.couponSvc.ValidateCoupon(ctx, &models.ValidateCouponRequest{
			Code:      cart.CouponCode,
			CartTotal: total,
		}); svcErr == nil && resp.Valid {
			discount = resp.DiscountAmount
		}
	}

	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return &CartView{
		Items:              items,
		CouponCode:         cart.CouponCode,
		Total:              total,
		Discount:           discount,
		TotalAfterDiscount: total - discount,
	}
}
