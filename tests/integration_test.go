package tests

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willowgrove/storefront/internal/adapter/backend"
	"github.com/willowgrove/storefront/internal/adapter/handler"
	"github.com/willowgrove/storefront/internal/adapter/payment"
	"github.com/willowgrove/storefront/internal/adapter/storage"
	"github.com/willowgrove/storefront/internal/core/cart"
	"github.com/willowgrove/storefront/internal/core/checkout"
	"github.com/willowgrove/storefront/internal/core/domain"
	"github.com/willowgrove/storefront/internal/core/session"
)

// testEnv runs the reference backend in-process and wires a full checkout
// client against it, so the whole flow runs with no external services.
type testEnv struct {
	server  *httptest.Server
	api     *backend.Client
	cart    *cart.Service
	orch    *checkout.Orchestrator
	tokens  session.StaticToken
	confirm *payment.Local
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	srv := handler.NewServer(
		storage.NewMemoryOrderStore(),
		payment.NewLocal(),
		nil, nil,
		decimal.Decimal{},
	)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	tokens := session.StaticToken("integration-session")
	api := backend.NewClient(ts.URL, 0, tokens)
	cartSvc := cart.NewService(storage.NewMemoryStore())
	confirmer := payment.NewLocal()

	orch := checkout.New(checkout.Config{
		Cart:      cartSvc,
		Backend:   api,
		Payments:  confirmer,
		Tokens:    tokens,
		ReturnURL: "http://localhost:3000/order-success",
	})

	return &testEnv{
		server:  ts,
		api:     api,
		cart:    cartSvc,
		orch:    orch,
		tokens:  tokens,
		confirm: confirmer,
	}
}

func product(t *testing.T, id, name, price string, inventory int) domain.Product {
	t.Helper()
	p, err := decimal.NewFromString(price)
	require.NoError(t, err)
	return domain.Product{ID: id, Name: name, Price: p, Taxable: true, Inventory: inventory}
}

func billing() domain.ContactDetails {
	return domain.ContactDetails{
		Name:  "Jane Doe",
		Email: "jane@example.com",
		Phone: "+1 555 0100",
		Address: domain.Address{
			Line1:      "123 Main Street",
			City:       "Portland",
			State:      "OR",
			PostalCode: "97201",
			Country:    "US",
		},
	}
}

func TestCheckoutFlow(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	require.NoError(t, env.cart.AddItem(ctx, product(t, "oak-tree", "Oak Memorial Tree", "49.99", 100), 1))
	require.NoError(t, env.cart.AddItem(ctx, product(t, "lily-bouquet", "Lily Bouquet", "24.50", 100), 2))
	require.True(t, env.cart.Total().Equal(decimal.New(9899, -2)), "total = %s", env.cart.Total())

	require.NoError(t, env.orch.Begin(ctx))
	require.NoError(t, env.orch.CreateIntent(ctx, billing(), domain.ContactDetails{}, true))
	require.NoError(t, env.orch.Confirm(ctx))

	sess := env.orch.Session()
	assert.Equal(t, domain.CheckoutSucceeded, sess.State)
	require.NotEmpty(t, sess.OrderID)

	order, err := env.api.Order(ctx, sess.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	assert.Equal(t, sess.PaymentIntentID, order.PaymentIntentID)
	// 98.99 subtotal, 7.92 tax, 106.91 total.
	assert.Equal(t, "98.99", order.Subtotal.StringFixed(2))
	assert.Equal(t, "7.92", order.Tax.StringFixed(2))
	assert.Equal(t, "106.91", order.Total.StringFixed(2))
	require.Len(t, order.Items, 2)

	// The cart is cleared only after everything succeeded.
	assert.Equal(t, 0, env.cart.Len())
	assert.Empty(t, env.cart.RemoteID())
}

func TestCheckoutFlow_CartSurvivesBackendRestart(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	store := storage.NewMemoryStore()

	first := cart.NewService(store)
	require.NoError(t, first.AddItem(ctx, product(t, "oak-tree", "Oak Memorial Tree", "49.99", 100), 1))

	// A fresh service over the same storage sees the same cart.
	second := cart.NewService(store)
	require.NoError(t, second.Hydrate(ctx))
	assert.Equal(t, 1, second.Len())
	assert.True(t, second.Total().Equal(first.Total()))

	orch := checkout.New(checkout.Config{
		Cart:     second,
		Backend:  env.api,
		Payments: env.confirm,
		Tokens:   env.tokens,
	})
	require.NoError(t, orch.Begin(ctx))
	require.NoError(t, orch.CreateIntent(ctx, billing(), domain.ContactDetails{}, true))
	require.NoError(t, orch.Confirm(ctx))
	assert.Equal(t, domain.CheckoutSucceeded, orch.State())
}

func TestCheckoutFlow_AmountAgreesWithBackend(t *testing.T) {
	// The client and server price the cart independently; the server
	// rejects the intent when they disagree, so a full run proves the two
	// quote paths stay in lockstep.
	ctx := context.Background()
	env := setupTestEnv(t)

	// Prices chosen so tax rounding is exercised: 10.06 * 0.08 = 0.8048.
	require.NoError(t, env.cart.AddItem(ctx, product(t, "card", "Condolence Card", "10.06", 100), 1))

	require.NoError(t, env.orch.Begin(ctx))
	require.NoError(t, env.orch.CreateIntent(ctx, billing(), domain.ContactDetails{}, true))

	sess := env.orch.Session()
	order, err := env.api.Order(ctx, sess.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "0.80", order.Tax.StringFixed(2))
	assert.Equal(t, "10.86", order.Total.StringFixed(2))
}

func TestCheckoutFlow_UnauthenticatedIsBlockedLocally(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	require.NoError(t, env.cart.AddItem(ctx, product(t, "oak-tree", "Oak Memorial Tree", "49.99", 100), 1))

	orch := checkout.New(checkout.Config{
		Cart:     env.cart,
		Backend:  env.api,
		Payments: env.confirm,
		Tokens:   session.StaticToken(""),
	})

	err := orch.Begin(ctx)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Equal(t, "You need to login to proceed to checkout", checkout.UserMessage(err))
}
