package services

import (
	"context"
	"errors"
	"math"

	"github.com/Dat0801/shopwave/models"
	"github.com/Dat0801/shopwave/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutRequest is the validated checkout submission. Binding rejects
// malformed input before any transaction begins.
type CheckoutRequest struct {
	FirstName     string `json:"first_name" binding:"required,max=255"`
	LastName      string `json:"last_name" binding:"required,max=255"`
	Address       string `json:"address" binding:"required,max=255"`
	City          string `json:"city" binding:"required,max=255"`
	PostalCode    string `json:"postal_code" binding:"required,max=20"`
	PaymentMethod string `json:"payment_method" binding:"required,oneof=credit_card paypal cod"`
	Notes         string `json:"notes" binding:"max=2000"`
}

// CheckoutResult carries everything the client needs after a successful
// checkout. For card payments it includes the intent's client secret and a
// processing-page redirect; otherwise the order confirmation target.
type CheckoutResult struct {
	Order        *models.Order   `json:"order"`
	Payment      *models.Payment `json:"payment,omitempty"`
	ClientSecret string          `json:"client_secret,omitempty"`
	RedirectTo   string          `json:"redirect_to"`
}

// OrderResponse is a paginated order listing.
type OrderResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// OrderService owns the checkout workflow and order lifecycle.
type OrderService interface {
	Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*CheckoutResult, *ServiceError)
	GetUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderResponse, *ServiceError)
	GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, *ServiceError)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) *ServiceError
	GetAllOrders(ctx context.Context, page, limit int) (*OrderResponse, *ServiceError)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) *ServiceError
}

type orderServiceImpl struct {
	orders   repository.OrderRepository
	cart     repository.CartStore
	payments PaymentService
	events   EventPublisher
	currency string
	logger   *zap.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	cart repository.CartStore,
	payments PaymentService,
	events EventPublisher,
	currency string,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		orders:   orders,
		cart:     cart,
		payments: payments,
		events:   events,
		currency: currency,
		logger:   logger,
	}
}

// Checkout turns the session cart into a committed order. The repository owns
// the transaction; this layer rejects empty carts up front, fans out events
// after commit, creates the card payment intent, and clears the cart.
func (s *orderServiceImpl) Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*CheckoutResult, *ServiceError) {
	cart, err := s.cart.Get(ctx, userID.String())
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Unable to place order right now. Please try again."}
	}
	if cart.IsEmpty() {
		return nil, &ServiceError{StatusCode: 400, Message: "Cart is empty"}
	}

	order, lowStock, err := s.orders.CreateFromCart(ctx, repository.CreateOrderParams{
		UserID: userID,
		Items:  cart.Items,
		ShippingAddress: models.ShippingAddress{
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Address:    req.Address,
			City:       req.City,
			PostalCode: req.PostalCode,
		},
		CouponCode:    cart.CouponCode,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		var stockErr *models.InsufficientStockError
		if errors.As(err, &stockErr) {
			return nil, &ServiceError{StatusCode: 400, Message: stockErr.Error()}
		}
		s.logger.Error("Order creation failed", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Unable to place order right now. Please try again."}
	}

	// Post-commit fan-out; never part of the transaction's atomicity.
	s.events.PublishOrderPlaced(ctx, order)
	for _, product := range lowStock {
		s.events.PublishLowStock(ctx, product)
	}

	result := &CheckoutResult{
		Order:      order,
		RedirectTo: "/orders/" + order.ID.String(),
	}

	if req.PaymentMethod == models.PaymentMethodCreditCard {
		amount := int64(math.Round(order.TotalPrice * 100))
		payment, clientSecret, err := s.payments.CreateIntent(ctx, order, amount, s.currency)
		if err != nil {
			// The order is committed; the client retries payment from the
			// order page rather than re-submitting the checkout.
			s.logger.Error("Payment intent creation failed after checkout",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
			return nil, &ServiceError{StatusCode: 502, Message: "Order placed but payment could not be initiated. Please retry payment."}
		}
		result.Payment = payment
		result.ClientSecret = clientSecret
		result.RedirectTo = "/payments/process/" + order.ID.String() + "/" + payment.ID.String()
	}

	if err := s.cart.Delete(ctx, userID.String()); err != nil {
		s.logger.Warn("Failed to clear cart after checkout",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Float64("total_price", order.TotalPrice),
		zap.String("payment_method", order.PaymentMethod),
	)
	return result, nil
}

// GetUserOrders retrieves paginated orders for a specific user.
func (s *orderServiceImpl) GetUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderResponse, *ServiceError) {
	orders, total, err := s.orders.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}
	return s.paginated(orders, total, page, limit), nil
}

// GetAllOrders retrieves paginated orders for all users (admin).
func (s *orderServiceImpl) GetAllOrders(ctx context.Context, page, limit int) (*OrderResponse, *ServiceError) {
	orders, total, err := s.orders.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch all orders", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}
	return s.paginated(orders, total, page, limit), nil
}

// GetOrderByID retrieves a specific order scoped to its owner.
func (s *orderServiceImpl) GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		if err.Error() == "record not found" {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to fetch order",
			zap.String("order_id", orderID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}
	return order, nil
}

// CancelOrder is a forward-only transition, not a rollback: stock is not
// restored and coupon usage is not returned.
func (s *orderServiceImpl) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) *ServiceError {
	order, err := s.orders.FindByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		return &ServiceError{StatusCode: 404, Message: "Order not found"}
	}

	if !models.ValidStatusTransition(order.Status, models.OrderStatusCancelled) {
		return &ServiceError{StatusCode: 400, Message: "Order can no longer be cancelled"}
	}

	if err := s.orders.UpdateStatus(ctx, orderID, models.OrderStatusCancelled); err != nil {
		s.logger.Error("Failed to cancel order", zap.String("order_id", orderID.String()), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to cancel order"}
	}

	s.logger.Info("Order cancelled", zap.String("order_id", orderID.String()))
	return nil
}

// UpdateStatus applies an admin status change with transition checks.
func (s *orderServiceImpl) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) *ServiceError {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return &ServiceError{StatusCode: 404, Message: "Order not found"}
	}

	if !models.ValidStatusTransition(order.Status, status) {
		return &ServiceError{StatusCode: 400, Message: "Invalid status transition"}
	}

	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		s.logger.Error("Failed to update order status",
			zap.String("order_id", orderID.String()),
			zap.String("status", status),
			zap.Error(err),
		)
		return &ServiceError{StatusCode: 500, Message: "Failed to update order status"}
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", status),
	)
	return nil
}

func (s *orderServiceImpl) paginated(orders []models.Order, total int64, page, limit int) *OrderResponse {
	return &OrderResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
