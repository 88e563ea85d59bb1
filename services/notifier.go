package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Dat0801/shopwave/models"
	aws_pkg "github.com/Dat0801/shopwave/pkg/aws"
	"go.uber.org/zap"
)

// EventPublisher fans domain events out to the notification collaborator.
// Delivery is best-effort: a publish failure is logged, never propagated into
// the request path.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *models.Order)
	PublishLowStock(ctx context.Context, product models.Product)
	PublishPaymentEvent(ctx context.Context, eventType string, payment *models.Payment)
}

// kafkaPublisher is the subset of the Kafka producer the notifier needs.
type kafkaPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Notifier publishes to Kafka first and mirrors to SNS when configured,
// the same double-write the order pipeline has always done.
type Notifier struct {
	producer    kafkaPublisher
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
}

func NewNotifier(producer kafkaPublisher, snsClient aws_pkg.SNSPublisher, snsTopicArn string, logger *zap.Logger) *Notifier {
	return &Notifier{
		producer:    producer,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		logger:      logger,
	}
}

func (n *Notifier) PublishOrderPlaced(ctx context.Context, order *models.Order) {
	event := models.OrderPlacedEvent{
		EventType:     models.EventOrderPlaced,
		OrderID:       order.ID.String(),
		UserID:        order.UserID.String(),
		TotalPrice:    order.TotalPrice,
		PaymentMethod: order.PaymentMethod,
		ItemCount:     len(order.Items),
		Timestamp:     time.Now().UTC(),
	}
	n.emit(ctx, order.ID.String(), event)
}

func (n *Notifier) PublishLowStock(ctx context.Context, product models.Product) {
	event := models.LowStockEvent{
		EventType:    models.EventLowStock,
		ProductID:    product.ID,
		ProductName:  product.Name,
		CurrentStock: product.Stock,
		Threshold:    models.LowStockThreshold,
		Timestamp:    time.Now().UTC(),
	}
	n.emit(ctx, product.ID.String(), event)
}

func (n *Notifier) PublishPaymentEvent(ctx context.Context, eventType string, payment *models.Payment) {
	event := models.PaymentEvent{
		EventType: eventType,
		OrderID:   payment.OrderID.String(),
		PaymentID: payment.ID.String(),
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		Timestamp: time.Now().UTC(),
	}
	n.emit(ctx, payment.OrderID.String(), event)
}

func (n *Notifier) emit(ctx context.Context, key string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	if n.producer != nil {
		if err := n.producer.Publish(ctx, key, data); err != nil {
			n.logger.Error("Kafka event publish failed", zap.String("key", key), zap.Error(err))
		}
	}

	if n.snsClient != nil && n.snsTopicArn != "" {
		if err := n.snsClient.Publish(ctx, n.snsTopicArn, data); err != nil {
			n.logger.Warn("SNS event publish failed (best-effort)", zap.Error(err))
		}
	}
}
