package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_BindAndLookup(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	require.NoError(t, st.Bind(ctx, "tok-1", 42, time.Hour))

	id, ok, err := st.Lookup(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	_, ok, err = st.Lookup(ctx, "tok-unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Rebind(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	require.NoError(t, st.Bind(ctx, "tok-1", 1, time.Hour))
	require.NoError(t, st.Bind(ctx, "tok-1", 2, time.Hour))

	id, ok, err := st.Lookup(ctx, "tok-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 2, id)
}

func TestMemory_Expiry(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	require.NoError(t, st.Bind(ctx, "tok-1", 42, -time.Second))

	_, ok, err := st.Lookup(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok, "expired tokens must not resolve")
}

func TestMemory_Invalidate(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	require.NoError(t, st.Bind(ctx, "tok-1", 42, time.Hour))
	require.NoError(t, st.Invalidate(ctx, "tok-1"))

	_, ok, err := st.Lookup(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Invalidating an unknown token is not an error.
	require.NoError(t, st.Invalidate(ctx, "tok-unknown"))
}
