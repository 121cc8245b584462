package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutState is the payment-intent session lifecycle.
type CheckoutState string

const (
	CheckoutUninitialized CheckoutState = "uninitialized"
	CheckoutCreating      CheckoutState = "creating"
	CheckoutReady         CheckoutState = "ready"
	CheckoutConfirming    CheckoutState = "confirming"
	CheckoutSucceeded     CheckoutState = "succeeded"

	// CheckoutFailed is transient: a declined confirmation returns the
	// session straight to ready with the intent intact, so the failure is
	// observable only as the error returned from the confirm call.
	CheckoutFailed CheckoutState = "failed"
)

// Address uses the payment processor's field names on the wire.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// ContactDetails covers both billing and shipping. Shipping may be a
// plain copy of billing when the buyer ticks "same as billing".
type ContactDetails struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address Address `json:"address"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is the backend's record of a checkout, fetched for the
// confirmation page.
type Order struct {
	ID              string          `json:"id"`
	CartID          string          `json:"cart_id"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	Items           []LineItem      `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	Status          OrderStatus     `json:"status"`
	Billing         ContactDetails  `json:"billing_details"`
	Shipping        ContactDetails  `json:"shipping_details"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
