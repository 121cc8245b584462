package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/willowgrove/storefront/internal/core/domain"
	"github.com/willowgrove/storefront/internal/port"
)

// Storage keys for the persisted cart snapshot.
const (
	KeyItems  = "cart_items"
	KeyTotal  = "cart_total"
	KeyCartID = "cart_id"
)

// Service owns the cart: the single source of truth for what the buyer
// intends to purchase. Every mutation persists the full snapshot to the
// injected store before the in-memory state is committed, so a failed
// write leaves memory untouched.
type Service struct {
	store port.CartStore

	mu       sync.Mutex
	items    []domain.LineItem
	total    decimal.Decimal
	remoteID string
}

func NewService(store port.CartStore) *Service {
	return &Service{
		store: store,
		total: decimal.Zero,
	}
}

// Hydrate loads the persisted snapshot, typically at session start. The
// total is recomputed from the items rather than trusted from storage, so
// replaying the same snapshot can never double-count.
func (s *Service) Hydrate(ctx context.Context) error {
	raw, err := s.store.Get(ctx, KeyItems)
	if err != nil {
		return fmt.Errorf("load cart items: %w", err)
	}

	var items []domain.LineItem
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return fmt.Errorf("decode cart items: %w", err)
		}
	}
	for i := range items {
		items[i].LineTotal = domain.LineTotal(items[i].UnitPrice, items[i].Quantity)
	}

	remoteID, err := s.store.Get(ctx, KeyCartID)
	if err != nil {
		return fmt.Errorf("load cart id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.total = domain.CartTotal(items)
	s.remoteID = remoteID
	return nil
}

// AddItem validates the product and quantity, merges into an existing line
// item or appends a new one, recomputes the total and persists.
func (s *Service) AddItem(ctx context.Context, p domain.Product, quantity int) error {
	if p.ID == "" || p.Name == "" || p.Price.Sign() <= 0 {
		return domain.ErrProductInvalid
	}

	limit := purchaseLimit(p.Inventory)
	if quantity < 1 || quantity > limit {
		return &domain.QuantityLimitError{Requested: quantity, Limit: limit}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneItems(s.items)
	merged := false
	for i := range next {
		if next[i].ProductID == p.ID {
			next[i].Quantity += quantity
			next[i].LineTotal = domain.LineTotal(next[i].UnitPrice, next[i].Quantity)
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, domain.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  quantity,
			Taxable:   p.Taxable,
			LineTotal: domain.LineTotal(p.Price, quantity),
		})
	}

	total := domain.CartTotal(next)
	if err := s.persist(ctx, next, total); err != nil {
		return err
	}

	s.items = next
	s.total = total
	return nil
}

// RemoveItem drops the line item. Removing an absent product is a no-op,
// not an error.
func (s *Service) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.LineItem, 0, len(s.items))
	for _, item := range s.items {
		if item.ProductID != productID {
			next = append(next, item)
		}
	}
	if len(next) == len(s.items) {
		return nil
	}

	total := domain.CartTotal(next)
	if err := s.persist(ctx, next, total); err != nil {
		return err
	}

	s.items = next
	s.total = total
	return nil
}

// Clear empties the cart, forgets the remote cart id and removes the
// persisted entries. A cleared cart behaves exactly like a fresh one.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Remove(ctx, KeyItems, KeyTotal, KeyCartID); err != nil {
		return fmt.Errorf("clear cart storage: %w", err)
	}

	s.items = nil
	s.total = decimal.Zero
	s.remoteID = ""
	return nil
}

// SetRemoteID records the server-assigned cart id, persisting it first.
func (s *Service) SetRemoteID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(ctx, KeyCartID, id); err != nil {
		return fmt.Errorf("persist cart id: %w", err)
	}
	s.remoteID = id
	return nil
}

// Snapshot returns a copy of the current cart.
func (s *Service) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Cart{
		Items:    cloneItems(s.items),
		Total:    s.total,
		RemoteID: s.remoteID,
	}
}

func (s *Service) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Service) RemoteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteID
}

func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// persist writes the snapshot under the fixed storage keys. The items key
// is authoritative; the total key exists for cheap display on reload and
// is recomputed on hydrate.
func (s *Service) persist(ctx context.Context, items []domain.LineItem, total decimal.Decimal) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart items: %w", err)
	}
	if err := s.store.Set(ctx, KeyItems, string(data)); err != nil {
		return fmt.Errorf("persist cart items: %w", err)
	}
	if err := s.store.Set(ctx, KeyTotal, total.StringFixed(2)); err != nil {
		return fmt.Errorf("persist cart total: %w", err)
	}
	return nil
}

func cloneItems(items []domain.LineItem) []domain.LineItem {
	if items == nil {
		return nil
	}
	out := make([]domain.LineItem, len(items))
	copy(out, items)
	return out
}

// purchaseLimit caps the quantity a single add may request, tiered by the
// product's available inventory. Unknown inventory is treated as 100.
func purchaseLimit(inventory int) int {
	if inventory <= 0 {
		inventory = 100
	}
	switch {
	case inventory <= 25:
		return 1
	case inventory <= 100:
		return 5
	case inventory < 500:
		return 25
	default:
		return 50
	}
}
