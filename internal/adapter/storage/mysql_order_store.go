package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/willowgrove/storefront/internal/core/domain"
)

// MySQLOrderStore persists carts and orders. Line items and contact
// details are stored as JSON columns; money columns are DECIMAL(10,2).
//
// Schema:
//
//	CREATE TABLE carts (
//	    id         CHAR(36) PRIMARY KEY,
//	    items      JSON NOT NULL,
//	    created_at DATETIME NOT NULL
//	);
//	CREATE TABLE orders (
//	    id                CHAR(36) PRIMARY KEY,
//	    cart_id           CHAR(36),
//	    payment_intent_id VARCHAR(255),
//	    currency          CHAR(3) NOT NULL,
//	    subtotal          DECIMAL(10,2) NOT NULL,
//	    tax               DECIMAL(10,2) NOT NULL,
//	    total             DECIMAL(10,2) NOT NULL,
//	    status            VARCHAR(16) NOT NULL,
//	    items             JSON NOT NULL,
//	    billing           JSON NOT NULL,
//	    shipping          JSON NOT NULL,
//	    created_at        DATETIME NOT NULL,
//	    updated_at        DATETIME NOT NULL
//	);
type MySQLOrderStore struct {
	db *sql.DB
}

func NewMySQLOrderStore(db *sql.DB) *MySQLOrderStore {
	return &MySQLOrderStore{db: db}
}

func (m *MySQLOrderStore) CreateCart(ctx context.Context, items []domain.LineItem) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode cart items: %w", err)
	}

	id := uuid.NewString()
	_, err = m.db.ExecContext(ctx, `
		INSERT INTO carts (id, items, created_at) VALUES (?, ?, ?)`,
		id, data, time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("insert cart: %w", err)
	}
	return id, nil
}

func (m *MySQLOrderStore) Cart(ctx context.Context, cartID string) ([]domain.LineItem, error) {
	var data []byte
	err := m.db.QueryRowContext(ctx, `
		SELECT items FROM carts WHERE id = ?`, cartID,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	return items, nil
}

func (m *MySQLOrderStore) CreateOrder(ctx context.Context, order domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	billing, err := json.Marshal(order.Billing)
	if err != nil {
		return fmt.Errorf("encode billing details: %w", err)
	}
	shipping, err := json.Marshal(order.Shipping)
	if err != nil {
		return fmt.Errorf("encode shipping details: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO orders (id, cart_id, payment_intent_id, currency, subtotal, tax, total,
			status, items, billing, shipping, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.CartID, order.PaymentIntentID, order.Currency,
		order.Subtotal.StringFixed(2), order.Tax.StringFixed(2), order.Total.StringFixed(2),
		order.Status, items, billing, shipping, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (m *MySQLOrderStore) MarkOrderPaid(ctx context.Context, orderID, paymentIntentID string) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, payment_intent_id = ?, updated_at = NOW()
		WHERE id = ?`,
		domain.OrderStatusPaid, paymentIntentID, orderID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (m *MySQLOrderStore) Order(ctx context.Context, orderID string) (*domain.Order, error) {
	var (
		order                  domain.Order
		intentID               sql.NullString
		subtotal, tax, total   string
		items, billing, shippg []byte
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, cart_id, payment_intent_id, currency, subtotal, tax, total,
			status, items, billing, shipping, created_at, updated_at
		FROM orders WHERE id = ?`, orderID,
	).Scan(&order.ID, &order.CartID, &intentID, &order.Currency,
		&subtotal, &tax, &total, &order.Status, &items, &billing, &shippg,
		&order.CreatedAt, &order.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	order.PaymentIntentID = intentID.String
	if order.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("parse subtotal: %w", err)
	}
	if order.Tax, err = decimal.NewFromString(tax); err != nil {
		return nil, fmt.Errorf("parse tax: %w", err)
	}
	if order.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(billing, &order.Billing); err != nil {
		return nil, fmt.Errorf("decode billing details: %w", err)
	}
	if err := json.Unmarshal(shippg, &order.Shipping); err != nil {
		return nil, fmt.Errorf("decode shipping details: %w", err)
	}
	return &order, nil
}
