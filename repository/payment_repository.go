package repository

import (
	"context"

	"github.com/Dat0801/shopwave/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository defines the interface for payment data access. Payments
// are keyed by the Stripe intent id for reconciliation; the processor is the
// source of truth for event ordering.
type PaymentRepository interface {
	UpsertByIntentID(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByIntentID(ctx context.Context, intentID string) (*models.Payment, error)
	FindLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
}

// GormPaymentRepository implements PaymentRepository using GORM.
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) PaymentRepository {
	return &GormPaymentRepository{db: db}
}

// UpsertByIntentID inserts the payment row, or refreshes the existing one
// when the same intent id is seen again. Creating an intent twice for one
// order therefore updates rather than duplicates.
func (r *GormPaymentRepository) UpsertByIntentID(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_payment_intent_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"order_id", "amount", "currency", "status", "metadata", "updated_at",
			}),
		}).
		Create(payment).Error
}

func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormPaymentRepository) FindByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("stripe_payment_intent_id = ?", intentID).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindLatestByOrderID returns the most recent payment attempt for an order.
// Retries may leave several rows; latest wins for reconciliation.
func (r *GormPaymentRepository) FindLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormPaymentRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
}
