package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/willowgrove/storefront/internal/core/domain"
)

// CartLine is the wire shape the backend expects for a cart line item.
type CartLine struct {
	Product  string          `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Taxable  bool            `json:"taxable"`
}

// CreateIntentRequest asks the backend for a payment intent covering the
// cart. Amount is the tax-inclusive grand total.
type CreateIntentRequest struct {
	CartID   string                `json:"cartId"`
	Amount   decimal.Decimal       `json:"amount"`
	Currency string                `json:"currency"`
	Products []CartLine            `json:"products"`
	Billing  domain.ContactDetails `json:"billingDetails"`
	Shipping domain.ContactDetails `json:"shippingDetails"`
}

// CreateIntentResponse carries the processor client secret used to confirm
// the payment and the backend's order id.
type CreateIntentResponse struct {
	ClientSecret string
	OrderID      string
}

// ConfirmOrderRequest notifies the backend that the processor reported a
// successful payment.
type ConfirmOrderRequest struct {
	OrderID         string                `json:"orderId"`
	PaymentIntentID string                `json:"paymentIntentId"`
	Billing         domain.ContactDetails `json:"billingDetails"`
	Shipping        domain.ContactDetails `json:"shippingDetails"`
}

// Backend is the storefront REST API consumed during checkout. It is a
// fixed external contract; implementations return *domain.TransportError
// for network failures and *domain.BackendError for backend-reported ones.
type Backend interface {
	// CreateCart submits the local line items and returns the server-side
	// cart id.
	CreateCart(ctx context.Context, lines []CartLine) (string, error)

	CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (CreateIntentResponse, error)

	ConfirmPayment(ctx context.Context, req ConfirmOrderRequest) error

	// Order fetches the order record for the confirmation page. Returns
	// nil without error when the order does not exist.
	Order(ctx context.Context, orderID string) (*domain.Order, error)
}
