package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/willowgrove/storefront/internal/core/domain"
)

// MemoryOrderStore keeps carts and orders in process. It is the reference
// server's default when no MySQL DSN is configured.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	carts  map[string][]domain.LineItem
	orders map[string]domain.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{
		carts:  make(map[string][]domain.LineItem),
		orders: make(map[string]domain.Order),
	}
}

func (m *MemoryOrderStore) CreateCart(_ context.Context, items []domain.LineItem) (string, error) {
	id := uuid.NewString()
	stored := make([]domain.LineItem, len(items))
	copy(stored, items)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[id] = stored
	return id, nil
}

func (m *MemoryOrderStore) Cart(_ context.Context, cartID string) ([]domain.LineItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items, ok := m.carts[cartID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.LineItem, len(items))
	copy(out, items)
	return out, nil
}

func (m *MemoryOrderStore) CreateOrder(_ context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *MemoryOrderStore) MarkOrderPaid(_ context.Context, orderID, paymentIntentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = domain.OrderStatusPaid
	order.PaymentIntentID = paymentIntentID
	order.UpdatedAt = time.Now()
	m.orders[orderID] = order
	return nil
}

func (m *MemoryOrderStore) Order(_ context.Context, orderID string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &order, nil
}
