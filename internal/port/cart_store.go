package port

import "context"

// CartStore is the durable client-local storage behind the cart: a plain
// string key/value store with localStorage semantics. Get returns an empty
// string, not an error, for a missing key.
type CartStore interface {
	Get(ctx context.Context, key string) (string, error)

	Set(ctx context.Context, key, value string) error

	// Remove deletes the given keys; missing keys are not an error.
	Remove(ctx context.Context, keys ...string) error
}
