package services

import (
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/refund"
)

// StripeAPI is the processor surface the payment service depends on, kept
// narrow so tests can substitute a fake.
type StripeAPI interface {
	CreateIntent(amount int64, currency, description string, metadata map[string]string) (*stripe.PaymentIntent, error)
	GetIntent(id string) (*stripe.PaymentIntent, error)
	Refund(intentID string, amount *int64) (*stripe.Refund, error)
}

// StripeClient talks to the real Stripe API. All calls run with a bounded
// HTTP timeout; a timeout surfaces as an error, never as success.
type StripeClient struct {
	secretKey string
}

func NewStripeClient(secretKey string) *StripeClient {
	stripe.Key = secretKey
	stripe.SetHTTPClient(&http.Client{Timeout: 15 * time.Second})
	return &StripeClient{secretKey: secretKey}
}

func (s *StripeClient) CreateIntent(amount int64, currency, description string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(amount),
		Currency:    stripe.String(currency),
		Description: stripe.String(description),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	return paymentintent.New(params)
}

func (s *StripeClient) GetIntent(id string) (*stripe.PaymentIntent, error) {
	return paymentintent.Get(id, nil)
}

func (s *StripeClient) Refund(intentID string, amount *int64) (*stripe.Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	if amount != nil {
		params.Amount = stripe.Int64(*amount)
	}
	return refund.New(params)
}
