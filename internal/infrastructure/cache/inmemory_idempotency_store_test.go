package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_GetPut(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored payment ID", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		tenantID := uuid.New()
		paymentID := uuid.New()

		require.NoError(t, store.Put(ctx, tenantID, "req-1", paymentID, time.Hour))

		got, err := store.Get(ctx, tenantID, "req-1")
		require.NoError(t, err)
		assert.Equal(t, paymentID, got)
	})

	t.Run("unknown key returns nil UUID", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()

		got, err := store.Get(ctx, uuid.New(), "never-seen")
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, got)
	})

	t.Run("keys are scoped per tenant", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		paymentID := uuid.New()

		require.NoError(t, store.Put(ctx, uuid.New(), "req-1", paymentID, time.Hour))

		got, err := store.Get(ctx, uuid.New(), "req-1")
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, got)
	})

	t.Run("first writer wins", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		tenantID := uuid.New()
		first := uuid.New()

		require.NoError(t, store.Put(ctx, tenantID, "req-1", first, time.Hour))
		require.NoError(t, store.Put(ctx, tenantID, "req-1", uuid.New(), time.Hour))

		got, err := store.Get(ctx, tenantID, "req-1")
		require.NoError(t, err)
		assert.Equal(t, first, got)
	})

	t.Run("expired entry is gone", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		tenantID := uuid.New()

		require.NoError(t, store.Put(ctx, tenantID, "req-1", uuid.New(), -time.Second))

		got, err := store.Get(ctx, tenantID, "req-1")
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, got)
	})

	t.Run("expired entry can be rewritten", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		tenantID := uuid.New()
		replacement := uuid.New()

		require.NoError(t, store.Put(ctx, tenantID, "req-1", uuid.New(), -time.Second))
		require.NoError(t, store.Put(ctx, tenantID, "req-1", replacement, time.Hour))

		got, err := store.Get(ctx, tenantID, "req-1")
		require.NoError(t, err)
		assert.Equal(t, replacement, got)
	})
}
