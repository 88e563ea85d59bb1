package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dat0801/shopwave/models"
	"github.com/Dat0801/shopwave/repository"
	"go.uber.org/zap"
)

// WebhookService reconciles processor events against local payment state.
// The external system is the source of truth for event ordering, so lookups
// are keyed by the processor's intent id, and a payment already in a terminal
// state is re-acknowledged without side effects (deliveries are retried).
type WebhookService interface {
	VerifySignature(payload []byte, signature string) bool
	HandleEvent(ctx context.Context, payload []byte) error
}

// webhookEvent is the slice of the processor payload the reconciler needs.
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string `json:"id"`
			PaymentIntent string `json:"payment_intent"`
			PaymentMethod string `json:"payment_method"`
		} `json:"object"`
	} `json:"data"`
}

type webhookServiceImpl struct {
	secret   string
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	events   EventPublisher
	logger   *zap.Logger
}

func NewWebhookService(
	secret string,
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	events EventPublisher,
	logger *zap.Logger,
) WebhookService {
	return &webhookServiceImpl{
		secret:   secret,
		payments: payments,
		orders:   orders,
		events:   events,
		logger:   logger,
	}
}

// VerifySignature recomputes the HMAC-SHA256 of the raw body with the shared
// secret and compares it against the header in constant time. This gates all
// unauthenticated mutation of payment state.
func (s *webhookServiceImpl) VerifySignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(payload)
	computed := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(computed), []byte(signature))
}

// HandleEvent dispatches one verified event. Unknown event types are logged
// and acknowledged; they must never fail processing.
func (s *webhookServiceImpl) HandleEvent(ctx context.Context, payload []byte) error {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("malformed webhook payload: %w", err)
	}

	s.logger.Info("Processing webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
	)

	switch event.Type {
	case "payment_intent.succeeded":
		return s.handlePaymentSucceeded(ctx, &event)
	case "payment_intent.payment_failed":
		return s.handlePaymentFailed(ctx, &event)
	case "charge.refunded":
		return s.handleChargeRefunded(ctx, &event)
	default:
		s.logger.Info("Unhandled webhook event type", zap.String("event_type", event.Type))
		return nil
	}
}

func (s *webhookServiceImpl) handlePaymentSucceeded(ctx context.Context, event *webhookEvent) error {
	payment, err := s.payments.FindByIntentID(ctx, event.Data.Object.ID)
	if err != nil {
		s.logger.Warn("Payment not found for intent",
			zap.String("intent_id", event.Data.Object.ID),
		)
		return nil
	}

	if payment.IsTerminal() {
		s.logger.Info("Skipping duplicate payment webhook",
			zap.String("payment_id", payment.ID.String()),
			zap.String("status", payment.Status),
		)
		return nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":  models.PaymentSucceeded,
		"paid_at": &now,
	}
	if event.Data.Object.PaymentMethod != "" {
		updates["payment_method"] = event.Data.Object.PaymentMethod
	}
	if err := s.payments.Update(ctx, payment.ID, updates); err != nil {
		return fmt.Errorf("update payment %s: %w", payment.ID, err)
	}
	if err := s.orders.UpdatePaymentStatus(ctx, payment.OrderID, models.PaymentStatusPaid); err != nil {
		return fmt.Errorf("update order %s payment status: %w", payment.OrderID, err)
	}

	payment.Status = models.PaymentSucceeded
	s.events.PublishPaymentEvent(ctx, models.EventPaymentSucceeded, payment)

	s.logger.Info("Payment succeeded via webhook", zap.String("payment_id", payment.ID.String()))
	return nil
}

func (s *webhookServiceImpl) handlePaymentFailed(ctx context.Context, event *webhookEvent) error {
	payment, err := s.payments.FindByIntentID(ctx, event.Data.Object.ID)
	if err != nil {
		s.logger.Warn("Payment not found for intent",
			zap.String("intent_id", event.Data.Object.ID),
		)
		return nil
	}

	if payment.IsTerminal() {
		s.logger.Info("Skipping duplicate payment webhook",
			zap.String("payment_id", payment.ID.String()),
			zap.String("status", payment.Status),
		)
		return nil
	}

	if err := s.payments.Update(ctx, payment.ID, map[string]interface{}{
		"status": models.PaymentFailed,
	}); err != nil {
		return fmt.Errorf("update payment %s: %w", payment.ID, err)
	}
	if err := s.orders.UpdatePaymentStatus(ctx, payment.OrderID, models.PaymentStatusFailed); err != nil {
		return fmt.Errorf("update order %s payment status: %w", payment.OrderID, err)
	}

	payment.Status = models.PaymentFailed
	s.events.PublishPaymentEvent(ctx, models.EventPaymentFailed, payment)

	s.logger.Warn("Payment failed via webhook", zap.String("payment_id", payment.ID.String()))
	return nil
}

// handleChargeRefunded is keyed off the refund's parent intent id. A settled
// payment may move to refunded; a payment already refunded is a no-op.
func (s *webhookServiceImpl) handleChargeRefunded(ctx context.Context, event *webhookEvent) error {
	payment, err := s.payments.FindByIntentID(ctx, event.Data.Object.PaymentIntent)
	if err != nil {
		s.logger.Warn("Payment not found for refunded charge",
			zap.String("intent_id", event.Data.Object.PaymentIntent),
		)
		return nil
	}

	if payment.Status == models.PaymentRefunded {
		return nil
	}

	if err := s.payments.Update(ctx, payment.ID, map[string]interface{}{
		"status": models.PaymentRefunded,
	}); err != nil {
		return fmt.Errorf("update payment %s: %w", payment.ID, err)
	}

	s.logger.Info("Payment refunded via webhook", zap.String("payment_id", payment.ID.String()))
	return nil
}
