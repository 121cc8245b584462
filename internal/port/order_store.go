package port

import (
	"context"

	"github.com/willowgrove/storefront/internal/core/domain"
)

// OrderStore persists the backend's cart and order projections.
type OrderStore interface {
	// CreateCart stores the submitted line items and returns a new cart id.
	CreateCart(ctx context.Context, items []domain.LineItem) (string, error)

	// Cart returns the stored line items, or nil when the cart is unknown.
	Cart(ctx context.Context, cartID string) ([]domain.LineItem, error)

	CreateOrder(ctx context.Context, order domain.Order) error

	// MarkOrderPaid records the payment intent against the order and moves
	// it to paid.
	MarkOrderPaid(ctx context.Context, orderID, paymentIntentID string) error

	// Order returns nil without error when the order does not exist.
	Order(ctx context.Context, orderID string) (*domain.Order, error)
}
