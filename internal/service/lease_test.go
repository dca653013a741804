package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLeaseManager(t *testing.T) {
	ctx := context.Background()

	t.Run("grants the first acquire and blocks the second", func(t *testing.T) {
		m := NewMemoryLeaseManager(time.Minute)

		ok, err := m.Acquire(ctx, "acct-1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = m.Acquire(ctx, "acct-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("leases are per account", func(t *testing.T) {
		m := NewMemoryLeaseManager(time.Minute)

		ok, _ := m.Acquire(ctx, "acct-1")
		assert.True(t, ok)
		ok, _ = m.Acquire(ctx, "acct-2")
		assert.True(t, ok)
	})

	t.Run("release frees the lease", func(t *testing.T) {
		m := NewMemoryLeaseManager(time.Minute)

		ok, _ := m.Acquire(ctx, "acct-1")
		require.True(t, ok)

		m.Release(ctx, "acct-1")

		ok, err := m.Acquire(ctx, "acct-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired lease can be re-acquired", func(t *testing.T) {
		m := NewMemoryLeaseManager(10 * time.Millisecond)

		ok, _ := m.Acquire(ctx, "acct-1")
		require.True(t, ok)

		time.Sleep(20 * time.Millisecond)

		ok, err := m.Acquire(ctx, "acct-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("releasing an unheld lease is harmless", func(t *testing.T) {
		m := NewMemoryLeaseManager(time.Minute)
		m.Release(ctx, "acct-1")

		ok, _ := m.Acquire(ctx, "acct-1")
		assert.True(t, ok)
	})
}
