package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/willowgrove/storefront/internal/core/domain"
)

// PaymentStatusSucceeded is the processor status that completes a checkout.
const PaymentStatusSucceeded = "succeeded"

// ConfirmRequest carries everything the processor needs to confirm a
// prebuilt payment intent. The adapter never sees raw card data; payment
// method collection is the processor's own concern.
type ConfirmRequest struct {
	ClientSecret string
	ReturnURL    string
	Billing      domain.ContactDetails
}

type ConfirmResult struct {
	PaymentIntentID string
	Status          string
}

// PaymentConfirmer wraps the payment processor's confirmation call.
// Declines surface as *domain.PaymentDeclinedError.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, req ConfirmRequest) (ConfirmResult, error)
}

// IntentCreator creates a payment intent with the processor. Used by the
// backend when pricing an order.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency, orderID string) (id, clientSecret string, err error)
}
