// Package payment adapts the payment processor behind the IntentCreator
// and PaymentConfirmer ports. Card data never passes through this module;
// collection is the processor's own concern.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/willowgrove/storefront/internal/core/domain"
	"github.com/willowgrove/storefront/internal/port"
)

// Stripe creates and confirms payment intents with Stripe.
type Stripe struct {
	api *client.API

	// paymentMethod is attached on confirm for headless flows (e.g. the
	// pm_card_* test methods); browser flows attach one via the payment
	// element instead.
	paymentMethod string
}

func NewStripe(secretKey, paymentMethod string) *Stripe {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{api: api, paymentMethod: paymentMethod}
}

func (s *Stripe) CreateIntent(ctx context.Context, amount decimal.Decimal, currency, orderID string) (string, string, error) {
	cents := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(cents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", orderID)

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return "", "", fmt.Errorf("create payment intent: %w", err)
	}
	return intent.ID, intent.ClientSecret, nil
}

func (s *Stripe) ConfirmPayment(ctx context.Context, req port.ConfirmRequest) (port.ConfirmResult, error) {
	intentID, err := IntentIDFromSecret(req.ClientSecret)
	if err != nil {
		return port.ConfirmResult{}, err
	}

	params := &stripe.PaymentIntentConfirmParams{
		ReturnURL: stripe.String(req.ReturnURL),
	}
	params.Context = ctx
	if s.paymentMethod != "" {
		params.PaymentMethod = stripe.String(s.paymentMethod)
	}

	intent, err := s.api.PaymentIntents.Confirm(intentID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return port.ConfirmResult{}, &domain.PaymentDeclinedError{
				Code:    string(stripeErr.Code),
				Message: stripeErr.Msg,
			}
		}
		return port.ConfirmResult{}, &domain.TransportError{Op: "confirm payment intent", Err: err}
	}

	return port.ConfirmResult{
		PaymentIntentID: intent.ID,
		Status:          string(intent.Status),
	}, nil
}

// IntentIDFromSecret recovers the payment intent id from its client
// secret ("pi_xxx_secret_yyy" -> "pi_xxx").
func IntentIDFromSecret(secret string) (string, error) {
	idx := strings.Index(secret, "_secret")
	if idx <= 0 {
		return "", fmt.Errorf("malformed client secret")
	}
	return secret[:idx], nil
}
