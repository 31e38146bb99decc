package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenStore(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokenStore(NewMemoryStore(0))

	_, ok, err := tokens.Get(ctx, "sid")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, tokens.Set(ctx, "sid", "  jwt-value "))
	token, ok, err := tokens.Get(ctx, "sid")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "jwt-value", token)

	require.NoError(t, tokens.Set(ctx, "sid", ""))
	_, ok, err = tokens.Get(ctx, "sid")
	require.NoError(t, err)
	require.False(t, ok)
}
