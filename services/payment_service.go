package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dat0801/shopwave/models"
	"github.com/Dat0801/shopwave/repository"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// PaymentService wraps the payment processor: intent creation, post-3DS
// confirmation and refunds. Processor failures are logged with order/payment
// context and re-raised; this layer never silently swallows them.
type PaymentService interface {
	CreateIntent(ctx context.Context, order *models.Order, amount int64, currency string) (*models.Payment, string, error)
	ConfirmPayment(ctx context.Context, paymentID, userID uuid.UUID) (bool, *ServiceError)
	Refund(ctx context.Context, paymentID uuid.UUID, amount *int64) (bool, *ServiceError)
	LatestForOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, *ServiceError)
}

type paymentServiceImpl struct {
	stripe   StripeAPI
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	events   EventPublisher
	logger   *zap.Logger
}

func NewPaymentService(
	stripeAPI StripeAPI,
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	events EventPublisher,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		stripe:   stripeAPI,
		payments: payments,
		orders:   orders,
		events:   events,
		logger:   logger,
	}
}

// CreateIntent creates a processor-side intent tagged with order and customer
// metadata, then upserts the local payment row keyed by the intent id.
// Calling twice for the same intent updates rather than duplicates.
func (s *paymentServiceImpl) CreateIntent(ctx context.Context, order *models.Order, amount int64, currency string) (*models.Payment, string, error) {
	metadata := map[string]string{
		"order_id":    order.ID.String(),
		"customer_id": order.UserID.String(),
	}

	intent, err := s.stripe.CreateIntent(amount, currency, fmt.Sprintf("Order #%s", order.ID), metadata)
	if err != nil {
		s.logger.Error("Stripe intent creation failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return nil, "", err
	}

	metaJSON, _ := json.Marshal(metadata)
	metaStr := string(metaJSON)

	payment := &models.Payment{
		OrderID:               order.ID,
		StripePaymentIntentID: intent.ID,
		Amount:                amount,
		Currency:              currency,
		Status:                models.PaymentPending,
		Metadata:              &metaStr,
	}
	if err := s.payments.UpsertByIntentID(ctx, payment); err != nil {
		s.logger.Error("Failed to persist payment",
			zap.String("order_id", order.ID.String()),
			zap.String("intent_id", intent.ID),
			zap.Error(err),
		)
		return nil, "", err
	}

	s.logger.Info("Payment intent created",
		zap.String("intent_id", intent.ID),
		zap.String("order_id", order.ID.String()),
		zap.Int64("amount", amount),
	)
	return payment, intent.ClientSecret, nil
}

// ConfirmPayment re-fetches the intent from the processor after the client
// finished (or abandoned) 3DS. Only the owning user may confirm.
func (s *paymentServiceImpl) ConfirmPayment(ctx context.Context, paymentID, userID uuid.UUID) (bool, *ServiceError) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return false, &ServiceError{StatusCode: 404, Message: "Payment not found"}
	}

	order, err := s.orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		return false, &ServiceError{StatusCode: 404, Message: "Order not found"}
	}
	if order.UserID != userID {
		return false, &ServiceError{StatusCode: 403, Message: "Unauthorized"}
	}

	intent, err := s.stripe.GetIntent(payment.StripePaymentIntentID)
	if err != nil {
		s.logger.Error("Failed to retrieve payment intent",
			zap.String("payment_id", payment.ID.String()),
			zap.String("intent_id", payment.StripePaymentIntentID),
			zap.Error(err),
		)
		return false, &ServiceError{StatusCode: 502, Message: "Payment confirmation failed, please try again"}
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		now := time.Now()
		updates := map[string]interface{}{
			"status":  models.PaymentSucceeded,
			"paid_at": &now,
		}
		if intent.PaymentMethod != nil {
			updates["payment_method"] = intent.PaymentMethod.ID
		}
		if err := s.payments.Update(ctx, payment.ID, updates); err != nil {
			s.logger.Error("Failed to mark payment succeeded",
				zap.String("payment_id", payment.ID.String()),
				zap.Error(err),
			)
			return false, &ServiceError{StatusCode: 500, Message: "Failed to record payment"}
		}
		if err := s.orders.UpdatePaymentStatus(ctx, order.ID, models.PaymentStatusPaid); err != nil {
			s.logger.Error("Failed to mark order paid",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
			return false, &ServiceError{StatusCode: 500, Message: "Failed to record payment"}
		}

		s.logger.Info("Payment confirmed",
			zap.String("payment_id", payment.ID.String()),
			zap.String("order_id", order.ID.String()),
		)
		return true, nil

	case stripe.PaymentIntentStatusRequiresAction:
		// 3DS still outstanding; stays pending.
		_ = s.payments.Update(ctx, payment.ID, map[string]interface{}{"status": models.PaymentPending})
		return false, nil

	default:
		return false, nil
	}
}

// LatestForOrder returns the most recent payment attempt for an order, which
// is what the processing page polls while a card payment settles. Retries may
// leave older rows behind; latest wins.
func (s *paymentServiceImpl) LatestForOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, *ServiceError) {
	payment, err := s.payments.FindLatestByOrderID(ctx, orderID)
	if err != nil {
		return nil, &ServiceError{StatusCode: 404, Message: "No payment found for this order"}
	}
	return payment, nil
}

// Refund issues a full or partial refund and marks the payment refunded on
// processor-confirmed success.
func (s *paymentServiceImpl) Refund(ctx context.Context, paymentID uuid.UUID, amount *int64) (bool, *ServiceError) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return false, &ServiceError{StatusCode: 404, Message: "Payment not found"}
	}
	if payment.Status != models.PaymentSucceeded {
		return false, &ServiceError{StatusCode: 400, Message: "Only settled payments can be refunded"}
	}

	ref, err := s.stripe.Refund(payment.StripePaymentIntentID, amount)
	if err != nil {
		s.logger.Error("Refund failed",
			zap.String("payment_id", payment.ID.String()),
			zap.String("intent_id", payment.StripePaymentIntentID),
			zap.Error(err),
		)
		return false, &ServiceError{StatusCode: 502, Message: "Refund failed, please try again"}
	}

	if ref.Status != stripe.RefundStatusSucceeded {
		return false, nil
	}

	if err := s.payments.Update(ctx, payment.ID, map[string]interface{}{
		"status": models.PaymentRefunded,
	}); err != nil {
		s.logger.Error("Failed to mark payment refunded",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err),
		)
		return false, &ServiceError{StatusCode: 500, Message: "Failed to record refund"}
	}

	s.logger.Info("Payment refunded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("refund_id", ref.ID),
	)
	return true, nil
}
