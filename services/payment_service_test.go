package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dat0801/shopwave/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

func TestCreateIntent(t *testing.T) {
	order := &models.Order{ID: uuid.New(), UserID: uuid.New(), TotalPrice: 99.99}

	t.Run("tags metadata and upserts by intent id", func(t *testing.T) {
		var gotMeta map[string]string
		stripeStub := &stubStripe{
			createFn: func(amount int64, currency, description string, metadata map[string]string) (*stripe.PaymentIntent, error) {
				gotMeta = metadata
				return &stripe.PaymentIntent{ID: "pi_abc", ClientSecret: "pi_abc_secret"}, nil
			},
		}
		payments := newMockPaymentRepo()
		svc := NewPaymentService(stripeStub, payments, newMockOrderRepo(), &recordingPublisher{}, zap.NewNop())

		payment, secret, err := svc.CreateIntent(context.Background(), order, 9999, "usd")

		require.NoError(t, err)
		assert.Equal(t, "pi_abc_secret", secret)
		assert.Equal(t, "pi_abc", payment.StripePaymentIntentID)
		assert.Equal(t, int64(9999), payment.Amount)
		assert.Equal(t, models.PaymentPending, payment.Status)
		assert.Equal(t, order.ID.String(), gotMeta["order_id"])
		assert.Equal(t, order.UserID.String(), gotMeta["customer_id"])
		require.Len(t, payments.upserts, 1)
	})

	t.Run("processor failure is returned to the caller", func(t *testing.T) {
		stripeStub := &stubStripe{
			createFn: func(_ int64, _, _ string, _ map[string]string) (*stripe.PaymentIntent, error) {
				return nil, errors.New("stripe: api unavailable")
			},
		}
		payments := newMockPaymentRepo()
		svc := NewPaymentService(stripeStub, payments, newMockOrderRepo(), &recordingPublisher{}, zap.NewNop())

		_, _, err := svc.CreateIntent(context.Background(), order, 9999, "usd")

		require.Error(t, err)
		assert.Empty(t, payments.upserts)
	})
}

func TestConfirmPayment(t *testing.T) {
	userID := uuid.New()
	order := &models.Order{ID: uuid.New(), UserID: userID, PaymentStatus: models.PaymentStatusPending}

	newPayment := func() *models.Payment {
		return &models.Payment{
			ID:                    uuid.New(),
			OrderID:               order.ID,
			StripePaymentIntentID: "pi_abc",
			Status:                models.PaymentPending,
		}
	}

	t.Run("unknown payment", func(t *testing.T) {
		svc := NewPaymentService(&stubStripe{}, newMockPaymentRepo(), newMockOrderRepo(order), &recordingPublisher{}, zap.NewNop())

		_, svcErr := svc.ConfirmPayment(context.Background(), uuid.New(), userID)

		require.NotNil(t, svcErr)
		assert.Equal(t, 404, svcErr.StatusCode)
	})

	t.Run("only the owner may confirm", func(t *testing.T) {
		payment := newPayment()
		svc := NewPaymentService(&stubStripe{}, newMockPaymentRepo(payment), newMockOrderRepo(order), &recordingPublisher{}, zap.NewNop())

		_, svcErr := svc.ConfirmPayment(context.Background(), payment.ID, uuid.New())

		require.NotNil(t, svcErr)
		assert.Equal(t, 403, svcErr.StatusCode)
	})

	t.Run("processor lookup failure maps to 502", func(t *testing.T) {
		payment := newPayment()
		stripeStub := &stubStripe{
			getFn: func(_ string) (*stripe.PaymentIntent, error) {
				return nil, errors.New("stripe: timeout")
			},
		}
		svc := NewPaymentService(stripeStub, newMockPaymentRepo(payment), newMockOrderRepo(order), &recordingPublisher{}, zap.NewNop())

		_, svcErr := svc.ConfirmPayment(context.Background(), payment.ID, userID)

		require.NotNil(t, svcErr)
		assert.Equal(t, 502, svcErr.StatusCode)
	})

	t.Run("succeeded intent settles payment and order", func(t *testing.T) {
		payment := newPayment()
		payments := newMockPaymentRepo(payment)
		orders := newMockOrderRepo(order)
		stripeStub := &stubStripe{
			getFn: func(id string) (*stripe.PaymentIntent, error) {
				return &stripe.PaymentIntent{
					ID:            id,
					Status:        stripe.PaymentIntentStatusSucceeded,
					PaymentMethod: &stripe.PaymentMethod{ID: "pm_card_visa"},
				}, nil
			},
		}
		svc := NewPaymentService(stripeStub, payments, orders, &recordingPublisher{}, zap.NewNop())

		settled, svcErr := svc.ConfirmPayment(context.Background(), payment.ID, userID)

		require.Nil(t, svcErr)
		assert.True(t, settled)
		assert.Equal(t, models.PaymentSucceeded, payment.Status)
		assert.Equal(t, models.PaymentStatusPaid, orders.paymentStatusUpdate[order.ID])
		assert.Equal(t, "pm_card_visa", payments.updates[payment.ID]["payment_method"])
	})

	t.Run("requires_action stays pending", func(t *testing.T) {
		payment := newPayment()
		stripeStub := &stubStripe{
			getFn: func(id string) (*stripe.PaymentIntent, error) {
				return &stripe.PaymentIntent{ID: id, Status: stripe.PaymentIntentStatusRequiresAction}, nil
			},
		}
		orders := newMockOrderRepo(order)
		svc := NewPaymentService(stripeStub, newMockPaymentRepo(payment), orders, &recordingPublisher{}, zap.NewNop())

		settled, svcErr := svc.ConfirmPayment(context.Background(), payment.ID, userID)

		require.Nil(t, svcErr)
		assert.False(t, settled)
		assert.Equal(t, models.PaymentPending, payment.Status)
		assert.Empty(t, orders.paymentStatusUpdate)
	})
}

func TestLatestForOrder(t *testing.T) {
	orderID := uuid.New()
	payment := &models.Payment{ID: uuid.New(), OrderID: orderID, Status: models.PaymentPending}
	svc := NewPaymentService(&stubStripe{}, newMockPaymentRepo(payment), newMockOrderRepo(), &recordingPublisher{}, zap.NewNop())

	got, svcErr := svc.LatestForOrder(context.Background(), orderID)
	require.Nil(t, svcErr)
	assert.Equal(t, payment.ID, got.ID)

	_, svcErr = svc.LatestForOrder(context.Background(), uuid.New())
	require.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}

func TestRefund(t *testing.T) {
	order := &models.Order{ID: uuid.New(), UserID: uuid.New()}

	t.Run("only settled payments can be refunded", func(t *testing.T) {
		payment := &models.Payment{ID: uuid.New(), OrderID: order.ID, Status: models.PaymentPending}
		svc := NewPaymentService(&stubStripe{}, newMockPaymentRepo(payment), newMockOrderRepo(order), &recordingPublisher{}, zap.NewNop())

		_, svcErr := svc.Refund(context.Background(), payment.ID, nil)

		require.NotNil(t, svcErr)
		assert.Equal(t, 400, svcErr.StatusCode)
	})

	t.Run("successful refund marks the payment refunded", func(t *testing.T) {
		payment := &models.Payment{
			ID:                    uuid.New(),
			OrderID:               order.ID,
			StripePaymentIntentID: "pi_abc",
			Status:                models.PaymentSucceeded,
		}
		var gotAmount *int64
		stripeStub := &stubStripe{
			refundFn: func(intentID string, amount *int64) (*stripe.Refund, error) {
				gotAmount = amount
				return &stripe.Refund{ID: "re_1", Status: stripe.RefundStatusSucceeded}, nil
			},
		}
		svc := NewPaymentService(stripeStub, newMockPaymentRepo(payment), newMockOrderRepo(order), &recordingPublisher{}, zap.NewNop())

		partial := int64(500)
		refunded, svcErr := svc.Refund(context.Background(), payment.ID, &partial)

		require.Nil(t, svcErr)
		assert.True(t, refunded)
		assert.Equal(t, models.PaymentRefunded, payment.Status)
		require.NotNil(t, gotAmount)
		assert.Equal(t, int64(500), *gotAmount)
	})

	t.Run("processor failure maps to 502", func(t *testing.T) {
		payment := &models.Payment{
			ID:                    uuid.New(),
			OrderID:               order.ID,
			StripePaymentIntentID: "pi_abc",
			Status:                models.PaymentSucceeded,
		}
		stripeStub := &stubStripe{
			refundFn: func(_ string, _ *int64) (*stripe.Refund, error) {
				return nil, errors.New("stripe: refund rejected")
			},
		}
		svc := NewPaymentService(stripeStub, newMockPaymentRepo(payment), newMockOrderRepo(order), &recordingPublisher{}, zap.NewNop())

		_, svcErr := svc.Refund(context.Background(), payment.ID, nil)

		require.NotNil(t, svcErr)
		assert.Equal(t, 502, svcErr.StatusCode)
		assert.Equal(t, models.PaymentSucceeded, payment.Status)
	})
}
