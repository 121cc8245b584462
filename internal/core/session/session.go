// Package session plumbs the authenticated-session token through the same
// persistent store the cart lives in.
package session

import (
	"context"
	"fmt"

	"github.com/willowgrove/storefront/internal/port"
)

// TokenKey is the storage key the bearer token is persisted under.
const TokenKey = "token"

// Store reads and writes the session token from a CartStore.
type Store struct {
	store port.CartStore
}

func NewStore(store port.CartStore) *Store {
	return &Store{store: store}
}

func (s *Store) Token(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		return "", fmt.Errorf("load session token: %w", err)
	}
	return token, nil
}

func (s *Store) SetToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	return nil
}

func (s *Store) ClearToken(ctx context.Context) error {
	if err := s.store.Remove(ctx, TokenKey); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}

// StaticToken is a fixed-token source for headless clients and tests.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}
