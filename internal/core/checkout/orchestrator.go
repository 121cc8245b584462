// Package checkout drives the payment-intent session through its
// lifecycle: uninitialized -> creating -> ready -> confirming ->
// succeeded or back to ready on a decline.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/willowgrove/storefront/internal/core/cart"
	"github.com/willowgrove/storefront/internal/core/domain"
	"github.com/willowgrove/storefront/internal/metrics"
	"github.com/willowgrove/storefront/internal/port"
)

var (
	// ErrNotReady rejects a confirmation before a client secret exists.
	ErrNotReady = errors.New("checkout is not ready to confirm")

	// ErrConfirmInProgress rejects a duplicate submit while a confirmation
	// is in flight.
	ErrConfirmInProgress = errors.New("payment confirmation already in progress")

	// ErrIntentExists rejects re-creating an intent once a client secret
	// has been obtained; retrying at that point would duplicate intents.
	ErrIntentExists = errors.New("payment intent already created")

	// ErrIntentInProgress rejects a duplicate submit while an intent
	// creation is already in flight.
	ErrIntentInProgress = errors.New("payment intent creation already in progress")
)

// GenericInitError is shown when intent creation fails without a
// backend-supplied message.
const GenericInitError = "Failed to initialize payment"

// Session is the orchestrator's view of the in-flight checkout.
type Session struct {
	State           domain.CheckoutState
	ClientSecret    string
	OrderID         string
	CartID          string
	PaymentIntentID string
}

// Config wires an Orchestrator. Cart, Backend, Payments and Tokens are
// required; the rest default sensibly.
type Config struct {
	Cart     *cart.Service
	Remote   *cart.RemoteSync
	Backend  port.Backend
	Payments port.PaymentConfirmer
	Tokens   port.TokenSource

	Logger  *zap.Logger
	Metrics *metrics.Checkout

	Currency  string
	TaxRate   decimal.Decimal
	ReturnURL string
}

// Orchestrator owns the PaymentIntentSession exclusively. All methods are
// safe for concurrent use, though the intended caller is a single UI or
// request handler; the locking exists so a duplicate submit can be
// rejected rather than raced.
type Orchestrator struct {
	cart     *cart.Service
	remote   *cart.RemoteSync
	backend  port.Backend
	payments port.PaymentConfirmer
	tokens   port.TokenSource
	log      *zap.Logger
	metrics  *metrics.Checkout

	currency  string
	taxRate   decimal.Decimal
	returnURL string

	mu       sync.Mutex
	state    domain.CheckoutState
	inflight bool
	secret   string
	orderID  string
	cartID   string
	intentID string
	billing  domain.ContactDetails
	shipping domain.ContactDetails
}

func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		cart:      cfg.Cart,
		remote:    cfg.Remote,
		backend:   cfg.Backend,
		payments:  cfg.Payments,
		tokens:    cfg.Tokens,
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
		currency:  cfg.Currency,
		taxRate:   cfg.TaxRate,
		returnURL: cfg.ReturnURL,
		state:     domain.CheckoutUninitialized,
	}
	if o.remote == nil {
		o.remote = cart.NewRemoteSync(cfg.Cart, cfg.Backend)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.currency == "" {
		o.currency = "usd"
	}
	if o.taxRate.IsZero() {
		o.taxRate = domain.DefaultTaxRate
	}
	return o
}

// Begin moves the session to creating. It checks the checkout
// preconditions locally, before any network call: a non-empty cart and an
// authenticated session.
func (o *Orchestrator) Begin(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != domain.CheckoutUninitialized {
		return fmt.Errorf("begin checkout: invalid state %q", o.state)
	}
	if o.cart.Len() == 0 {
		return domain.ErrCartEmpty
	}
	token, err := o.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if token == "" {
		return domain.ErrNotAuthenticated
	}

	o.state = domain.CheckoutCreating
	return nil
}

// CreateIntent syncs the cart to the backend, prices it and requests a
// payment intent. On failure the session stays in creating so the caller
// may retry manually; nothing is retried automatically, which is what
// keeps duplicate intents from being created. Once a client secret exists
// the call is rejected outright, and while one call is in flight a second
// is rejected rather than raced.
func (o *Orchestrator) CreateIntent(ctx context.Context, billing, shipping domain.ContactDetails, shippingSameAsBilling bool) error {
	o.mu.Lock()
	if o.state != domain.CheckoutCreating {
		o.mu.Unlock()
		return fmt.Errorf("create intent: invalid state %q", o.state)
	}
	if o.secret != "" {
		o.mu.Unlock()
		return ErrIntentExists
	}
	if o.inflight {
		o.mu.Unlock()
		return ErrIntentInProgress
	}
	o.inflight = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inflight = false
		o.mu.Unlock()
	}()

	if shippingSameAsBilling {
		shipping = billing
	}

	cartID, err := o.remote.Ensure(ctx)
	if err != nil {
		o.countIntentFailure()
		return err
	}

	snap := o.cart.Snapshot()
	quote := domain.NewQuote(snap.Total, o.taxRate)

	lines := make([]port.CartLine, 0, len(snap.Items))
	for _, item := range snap.Items {
		lines = append(lines, port.CartLine{
			Product:  item.ProductID,
			Quantity: item.Quantity,
			Price:    item.UnitPrice,
			Taxable:  item.Taxable,
		})
	}

	resp, err := o.backend.CreatePaymentIntent(ctx, port.CreateIntentRequest{
		CartID:   cartID,
		Amount:   quote.Total,
		Currency: o.currency,
		Products: lines,
		Billing:  billing,
		Shipping: shipping,
	})
	if err != nil {
		o.countIntentFailure()
		o.log.Warn("payment intent creation failed",
			zap.String("cart_id", cartID),
			zap.Error(err))
		return err
	}
	if resp.ClientSecret == "" {
		o.countIntentFailure()
		return &domain.BackendError{Message: "no client secret returned from server"}
	}

	o.mu.Lock()
	o.secret = resp.ClientSecret
	o.orderID = resp.OrderID
	o.cartID = cartID
	o.billing = billing
	o.shipping = shipping
	o.state = domain.CheckoutReady
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.IntentsCreated.Inc()
	}
	o.log.Info("payment intent created",
		zap.String("cart_id", cartID),
		zap.String("order_id", resp.OrderID),
		zap.String("amount", quote.Total.StringFixed(2)))
	return nil
}

// Confirm delegates to the payment processor with the stored client
// secret. A decline resets the session to ready with the intent intact so
// the buyer can retry. On success the backend confirmation is best-effort:
// the processor is the source of truth for funds movement, so a backend
// failure there is logged for reconciliation rather than raised, and the
// cart is cleared regardless.
func (o *Orchestrator) Confirm(ctx context.Context) error {
	o.mu.Lock()
	switch o.state {
	case domain.CheckoutConfirming:
		o.mu.Unlock()
		return ErrConfirmInProgress
	case domain.CheckoutReady:
	default:
		o.mu.Unlock()
		return ErrNotReady
	}
	o.state = domain.CheckoutConfirming
	secret := o.secret
	orderID := o.orderID
	billing := o.billing
	shipping := o.shipping
	o.mu.Unlock()

	result, err := o.payments.ConfirmPayment(ctx, port.ConfirmRequest{
		ClientSecret: secret,
		ReturnURL:    o.returnURL,
		Billing:      billing,
	})
	if err != nil {
		o.failConfirm()
		o.countConfirmation("declined")
		return err
	}
	if result.Status != port.PaymentStatusSucceeded {
		o.failConfirm()
		o.countConfirmation("declined")
		return &domain.PaymentDeclinedError{
			Message: fmt.Sprintf("payment not completed (status %s)", result.Status),
		}
	}

	o.mu.Lock()
	o.state = domain.CheckoutSucceeded
	o.intentID = result.PaymentIntentID
	o.mu.Unlock()
	o.countConfirmation("succeeded")

	if err := o.backend.ConfirmPayment(ctx, port.ConfirmOrderRequest{
		OrderID:         orderID,
		PaymentIntentID: result.PaymentIntentID,
		Billing:         billing,
		Shipping:        shipping,
	}); err != nil {
		// Payment already moved; flag for operator reconciliation instead
		// of blocking a customer who has paid.
		if o.metrics != nil {
			o.metrics.ConfirmLeniency.Inc()
		}
		o.log.Error("backend order confirmation failed after successful payment",
			zap.String("order_id", orderID),
			zap.String("payment_intent_id", result.PaymentIntentID),
			zap.Error(err))
	}

	if err := o.cart.Clear(ctx); err != nil {
		o.log.Warn("cart clear failed after successful payment", zap.Error(err))
	}

	o.log.Info("checkout succeeded",
		zap.String("order_id", orderID),
		zap.String("payment_intent_id", result.PaymentIntentID))
	return nil
}

// Abort discards the session, e.g. when the buyer navigates away. No
// cancellation call is made to the backend; intent expiry is left to
// backend reconciliation.
func (o *Orchestrator) Abort() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = domain.CheckoutUninitialized
	o.secret = ""
	o.orderID = ""
	o.cartID = ""
	o.intentID = ""
	o.billing = domain.ContactDetails{}
	o.shipping = domain.ContactDetails{}
}

func (o *Orchestrator) State() domain.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) Session() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Session{
		State:           o.state,
		ClientSecret:    o.secret,
		OrderID:         o.orderID,
		CartID:          o.cartID,
		PaymentIntentID: o.intentID,
	}
}

// failConfirm returns the session to ready: the intent and cart stay
// intact so the same intent can be confirmed again.
func (o *Orchestrator) failConfirm() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = domain.CheckoutReady
}

func (o *Orchestrator) countIntentFailure() {
	if o.metrics != nil {
		o.metrics.IntentFailures.Inc()
	}
}

func (o *Orchestrator) countConfirmation(outcome string) {
	if o.metrics != nil {
		o.metrics.Confirmations.WithLabelValues(outcome).Inc()
	}
}

// UserMessage maps an error from Begin, CreateIntent or Confirm to the
// string shown to the buyer: backend and processor messages verbatim,
// everything else a generic fallback.
func UserMessage(err error) string {
	var backendErr *domain.BackendError
	if errors.As(err, &backendErr) && backendErr.Message != "" {
		return backendErr.Message
	}
	var declined *domain.PaymentDeclinedError
	if errors.As(err, &declined) {
		return declined.Error()
	}
	switch {
	case errors.Is(err, domain.ErrCartEmpty):
		return "Please add items to cart before checkout"
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "You need to login to proceed to checkout"
	}
	return GenericInitError
}
