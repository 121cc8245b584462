package domain

import "fmt"

var (
	// ErrProductInvalid rejects products missing an id, name or positive price.
	ErrProductInvalid = fmt.Errorf("product information is incomplete")

	// ErrCartEmpty blocks checkout before any network call is made.
	ErrCartEmpty = fmt.Errorf("cart is empty")

	// ErrNotAuthenticated blocks checkout for anonymous sessions.
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// ErrCartIDMissing means the backend accepted the cart but returned no id.
	ErrCartIDMissing = fmt.Errorf("backend returned no cart id")

	// ErrOrderNotFound is returned by order stores for unknown order ids.
	ErrOrderNotFound = fmt.Errorf("order not found")
)

// QuantityLimitError reports a request above the inventory-tier cap.
type QuantityLimitError struct {
	Requested int
	Limit     int
}

func (e *QuantityLimitError) Error() string {
	return fmt.Sprintf("quantity may not be greater than %d (requested %d)", e.Limit, e.Requested)
}

// RemoteSyncError wraps a failure to reconcile local cart state with the
// backend. Local state is never partially mutated when one is returned.
type RemoteSyncError struct {
	Op  string
	Err error
}

func (e *RemoteSyncError) Error() string {
	return fmt.Sprintf("remote cart sync: %s: %v", e.Op, e.Err)
}

func (e *RemoteSyncError) Unwrap() error { return e.Err }

// TransportError reports a network-level failure (connection, timeout).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BackendError carries the backend's own error message so it can be
// surfaced to the user verbatim. Message may be empty when the backend
// returned no error field.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error (status %d)", e.StatusCode)
	}
	return e.Message
}

// PaymentDeclinedError is surfaced verbatim from the payment processor.
// The payment intent stays reusable so the buyer can retry.
type PaymentDeclinedError struct {
	Code    string
	Message string
}

func (e *PaymentDeclinedError) Error() string {
	if e.Message == "" {
		return "payment declined"
	}
	return e.Message
}
