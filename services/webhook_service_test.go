package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/Dat0801/shopwave/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const webhookSecret = "whsec_test"

func sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookFixture(payments ...*models.Payment) (WebhookService, *mockPaymentRepo, *mockOrderRepo, *recordingPublisher) {
	paymentRepo := newMockPaymentRepo(payments...)
	orderRepo := newMockOrderRepo()
	events := &recordingPublisher{}
	svc := NewWebhookService(webhookSecret, paymentRepo, orderRepo, events, zap.NewNop())
	return svc, paymentRepo, orderRepo, events
}

func TestVerifySignature(t *testing.T) {
	svc, _, _, _ := newWebhookFixture()
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)

	assert.True(t, svc.VerifySignature(payload, sign(payload)))
	assert.False(t, svc.VerifySignature(payload, sign([]byte("tampered"))))
	assert.False(t, svc.VerifySignature(payload, ""))
	assert.False(t, svc.VerifySignature([]byte("tampered"), sign(payload)))
}

func succeededPayload(intentID string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"%s","payment_method":"pm_card_visa"}}}`,
		intentID,
	))
}

func TestHandleEvent(t *testing.T) {
	orderID := uuid.New()

	newPending := func() *models.Payment {
		return &models.Payment{
			ID:                    uuid.New(),
			OrderID:               orderID,
			StripePaymentIntentID: "pi_abc",
			Status:                models.PaymentPending,
		}
	}

	t.Run("malformed payload is a processing error", func(t *testing.T) {
		svc, _, _, _ := newWebhookFixture()
		assert.Error(t, svc.HandleEvent(context.Background(), []byte("{not json")))
	})

	t.Run("unknown event type is acknowledged", func(t *testing.T) {
		svc, _, _, _ := newWebhookFixture()
		err := svc.HandleEvent(context.Background(), []byte(`{"id":"evt_1","type":"customer.created"}`))
		assert.NoError(t, err)
	})

	t.Run("succeeded settles payment and order, then fans out", func(t *testing.T) {
		payment := newPending()
		order := &models.Order{ID: orderID, PaymentStatus: models.PaymentStatusPending}
		paymentRepo := newMockPaymentRepo(payment)
		orderRepo := newMockOrderRepo(order)
		events := &recordingPublisher{}
		svc := NewWebhookService(webhookSecret, paymentRepo, orderRepo, events, zap.NewNop())

		err := svc.HandleEvent(context.Background(), succeededPayload("pi_abc"))

		require.NoError(t, err)
		assert.Equal(t, models.PaymentSucceeded, payment.Status)
		assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
		assert.Equal(t, "pm_card_visa", paymentRepo.updates[payment.ID]["payment_method"])
		assert.Equal(t, []string{models.EventPaymentSucceeded}, events.paymentEvents)
	})

	t.Run("replayed delivery for a terminal payment is a no-op", func(t *testing.T) {
		payment := newPending()
		payment.Status = models.PaymentSucceeded
		svc, paymentRepo, _, events := newWebhookFixture(payment)

		err := svc.HandleEvent(context.Background(), succeededPayload("pi_abc"))

		require.NoError(t, err)
		assert.Empty(t, paymentRepo.updates)
		assert.Empty(t, events.paymentEvents)
	})

	t.Run("unknown intent is acknowledged without side effects", func(t *testing.T) {
		svc, paymentRepo, _, _ := newWebhookFixture()

		err := svc.HandleEvent(context.Background(), succeededPayload("pi_missing"))

		require.NoError(t, err)
		assert.Empty(t, paymentRepo.updates)
	})

	t.Run("failed marks payment and order failed", func(t *testing.T) {
		payment := newPending()
		order := &models.Order{ID: orderID, PaymentStatus: models.PaymentStatusPending}
		paymentRepo := newMockPaymentRepo(payment)
		orderRepo := newMockOrderRepo(order)
		events := &recordingPublisher{}
		svc := NewWebhookService(webhookSecret, paymentRepo, orderRepo, events, zap.NewNop())

		payload := []byte(`{"id":"evt_2","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_abc"}}}`)
		err := svc.HandleEvent(context.Background(), payload)

		require.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, payment.Status)
		assert.Equal(t, models.PaymentStatusFailed, order.PaymentStatus)
		assert.Equal(t, []string{models.EventPaymentFailed}, events.paymentEvents)
	})

	t.Run("charge refunded is keyed by the parent intent", func(t *testing.T) {
		payment := newPending()
		payment.Status = models.PaymentSucceeded
		svc, _, _, _ := newWebhookFixture(payment)

		payload := []byte(`{"id":"evt_3","type":"charge.refunded","data":{"object":{"id":"ch_1","payment_intent":"pi_abc"}}}`)
		err := svc.HandleEvent(context.Background(), payload)

		require.NoError(t, err)
		assert.Equal(t, models.PaymentRefunded, payment.Status)
	})

	t.Run("refund replay is a no-op", func(t *testing.T) {
		payment := newPending()
		payment.Status = models.PaymentRefunded
		svc, paymentRepo, _, _ := newWebhookFixture(payment)

		payload := []byte(`{"id":"evt_3","type":"charge.refunded","data":{"object":{"id":"ch_1","payment_intent":"pi_abc"}}}`)
		err := svc.HandleEvent(context.Background(), payload)

		require.NoError(t, err)
		assert.Empty(t, paymentRepo.updates)
	})
}
