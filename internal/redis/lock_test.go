package redisclient

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotKey(t *testing.T) {
	id := uuid.MustParse("7d4c2f3e-9a51-4a8e-9d7d-1f0b6f1a2c33")
	assert.Equal(t, "lock:slot:7d4c2f3e-9a51-4a8e-9d7d-1f0b6f1a2c33:5_3_2025:09:00 AM", SlotKey(id, "5_3_2025", "09:00 AM"))
}

func TestLocalLockerFailsFastWhileHeld(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	err := l.WithLock(ctx, "k", func(ctx context.Context) error {
		inner := l.WithLock(ctx, "k", func(context.Context) error { return nil })
		assert.ErrorIs(t, inner, ErrLockNotAcquired)

		return l.WithLock(ctx, "other", func(context.Context) error { return nil })
	})
	require.NoError(t, err)

	ran := false
	require.NoError(t, l.WithLock(ctx, "k", func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
}
