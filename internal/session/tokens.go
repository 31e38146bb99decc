package session

import (
	"context"
	"strings"
)

// TokenStore holds the bearer credential of a session.
type TokenStore struct {
	store Store
}

// NewTokenStore wraps a Store.
func NewTokenStore(store Store) *TokenStore {
	return &TokenStore{store: store}
}

// Set stores the token; a blank token clears it.
func (t *TokenStore) Set(ctx context.Context, sid, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return t.Clear(ctx, sid)
	}
	return t.store.Set(ctx, sid, KeyToken, token)
}

// Get returns the token, ok=false when the session has none.
func (t *TokenStore) Get(ctx context.Context, sid string) (string, bool, error) {
	token, ok, err := t.store.Get(ctx, sid, KeyToken)
	if err != nil || !ok || token == "" {
		return "", false, err
	}
	return token, true, nil
}

// Clear drops the token.
func (t *TokenStore) Clear(ctx context.Context, sid string) error {
	return t.store.Clear(ctx, sid, KeyToken)
}
