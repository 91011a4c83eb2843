package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAdapter_SaveAndGet(t *testing.T) {
	adapter := NewMemoryAdapter(time.Minute)
	ctx := context.Background()

	require.NoError(t, adapter.SaveCheckout(ctx, sampleCheckout("m-1")))

	got, err := adapter.GetCheckout(ctx, "m-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Salma Idrissi", got.Draft.Name)

	// callers get a copy
	got.Draft.Name = "changed"
	again, _ := adapter.GetCheckout(ctx, "m-1")
	assert.Equal(t, "Salma Idrissi", again.Draft.Name)
}

func TestMemoryAdapter_Expiry(t *testing.T) {
	adapter := NewMemoryAdapter(time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	adapter.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, adapter.SaveCheckout(ctx, sampleCheckout("m-2")))
	assert.Equal(t, 1, adapter.Len())

	now = now.Add(2 * time.Minute)
	got, err := adapter.GetCheckout(ctx, "m-2")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, adapter.Len())
}

func TestMemoryAdapter_NoTTL(t *testing.T) {
	adapter := NewMemoryAdapter(0)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	adapter.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, adapter.SaveCheckout(ctx, sampleCheckout("m-3")))
	now = now.Add(24 * time.Hour)

	got, err := adapter.GetCheckout(ctx, "m-3")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestMemoryAdapter_CanceledContext(t *testing.T) {
	adapter := NewMemoryAdapter(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, adapter.SaveCheckout(ctx, sampleCheckout("m-4")), context.Canceled)
	_, _, err := adapter.AcquireLock(ctx, "m-4")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryAdapter_Lock(t *testing.T) {
	adapter := NewMemoryAdapter(time.Minute)
	ctx := context.Background()

	first, ok, err := adapter.AcquireLock(ctx, "m-5")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = adapter.AcquireLock(ctx, "m-5")
	assert.False(t, ok)

	require.NoError(t, adapter.ReleaseLock(ctx, "m-5", "someone-else"))
	_, ok, _ = adapter.AcquireLock(ctx, "m-5")
	assert.False(t, ok)

	require.NoError(t, adapter.ReleaseLock(ctx, "m-5", first))
	_, ok, _ = adapter.AcquireLock(ctx, "m-5")
	assert.True(t, ok)
}

func TestMemoryAdapter_ConcurrentLock(t *testing.T) {
	adapter := NewMemoryAdapter(time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	var winners atomic.Int32
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := adapter.AcquireLock(ctx, "m-6"); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}
