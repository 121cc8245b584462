package cart

import (
	"context"

	"github.com/willowgrove/storefront/internal/core/domain"
	"github.com/willowgrove/storefront/internal/port"
)

// RemoteSync lazily creates the server-side cart resource. The backend's
// cart is only a projection; local state stays authoritative.
type RemoteSync struct {
	svc     *Service
	backend port.Backend
}

func NewRemoteSync(svc *Service, backend port.Backend) *RemoteSync {
	return &RemoteSync{svc: svc, backend: backend}
}

// Ensure returns the remote cart id, creating the resource on first use.
// It is a no-op when the id is already known or the cart is empty. On
// failure the local cart is left exactly as it was.
func (r *RemoteSync) Ensure(ctx context.Context) (string, error) {
	if id := r.svc.RemoteID(); id != "" {
		return id, nil
	}

	snap := r.svc.Snapshot()
	if len(snap.Items) == 0 {
		return "", nil
	}

	lines := make([]port.CartLine, 0, len(snap.Items))
	for _, item := range snap.Items {
		lines = append(lines, port.CartLine{
			Product:  item.ProductID,
			Quantity: item.Quantity,
			Price:    item.UnitPrice,
			Taxable:  item.Taxable,
		})
	}

	id, err := r.backend.CreateCart(ctx, lines)
	if err != nil {
		return "", &domain.RemoteSyncError{Op: "create cart", Err: err}
	}
	if id == "" {
		return "", &domain.RemoteSyncError{Op: "create cart", Err: domain.ErrCartIDMissing}
	}

	if err := r.svc.SetRemoteID(ctx, id); err != nil {
		return "", &domain.RemoteSyncError{Op: "persist cart id", Err: err}
	}
	return id, nil
}
