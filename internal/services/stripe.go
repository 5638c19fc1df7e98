package services

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"

	"github.com/example/velora/internal/models"
)

// StripeService wraps the PaymentIntents flow for the card payment path.
type StripeService struct {
	secretKey string
}

func NewStripeService(secretKey string) *StripeService {
	if secretKey != "" {
		stripe.Key = secretKey
	}
	return &StripeService{secretKey: secretKey}
}

// Configured reports whether the card path is available.
func (s *StripeService) Configured() bool {
	return s.secretKey != ""
}

// PaymentIntentResult is what the handlers hand back to the storefront.
type PaymentIntentResult struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
}

var centsFactor = decimal.NewFromInt(100)

// CreatePaymentIntent opens a PaymentIntent for the order total. Stripe
// takes minor units, so the amount converts to cents here and nowhere else.
func (s *StripeService) CreatePaymentIntent(amount decimal.Decimal, currency string, metadata map[string]string) (*PaymentIntentResult, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("stripe is not configured")
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("invalid amount %s", amount)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount.Mul(centsFactor).IntPart()),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	log.Printf("[Stripe] payment intent %s created for %s %s", pi.ID, amount, currency)

	return &PaymentIntentResult{
		PaymentIntentID: pi.ID,
		ClientSecret:    pi.ClientSecret,
	}, nil
}

// RetrieveConfirmation fetches the current state of a PaymentIntent from
// Stripe. Client-supplied statuses are never trusted; this server-side read
// is the only input to payment confirmation.
func (s *StripeService) RetrieveConfirmation(paymentIntentID string) (string, models.PaymentDetails, error) {
	if !s.Configured() {
		return "", models.PaymentDetails{}, fmt.Errorf("stripe is not configured")
	}

	pi, err := paymentintent.Get(paymentIntentID, nil)
	if err != nil {
		return "", models.PaymentDetails{}, fmt.Errorf("retrieve payment intent: %w", err)
	}

	details := models.PaymentDetails{
		StripePaymentIntentID: pi.ID,
		ProviderStatus:        string(pi.Status),
	}
	if pi.Customer != nil {
		details.StripeCustomerID = pi.Customer.ID
	}
	if pi.LatestCharge != nil {
		details.ReceiptURL = pi.LatestCharge.ReceiptURL
		if pi.LatestCharge.PaymentMethodDetails != nil {
			details.PaymentMethodDetail = string(pi.LatestCharge.PaymentMethodDetails.Type)
		}
	}

	return string(pi.Status), details, nil
}
