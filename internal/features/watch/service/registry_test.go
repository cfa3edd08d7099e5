package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTrackingRegistry_RegisterAndCancel verifies the basic lifecycle of
// a handle.
func TestTrackingRegistry_RegisterAndCancel(t *testing.T) {
	registry := NewTrackingRegistry()

	handle := registry.Register(context.Background(), 100)
	require.NotNil(t, handle)
	assert.Equal(t, 100, handle.ProductID)
	assert.Equal(t, 1, registry.Len())
	require.NoError(t, handle.Context().Err())

	registry.Cancel(100)
	assert.Zero(t, registry.Len())
	assert.Error(t, handle.Context().Err())
}

// TestTrackingRegistry_CancelIsIdempotent verifies that cancelling twice
// has the same effect as cancelling once.
func TestTrackingRegistry_CancelIsIdempotent(t *testing.T) {
	registry := NewTrackingRegistry()
	registry.Register(context.Background(), 100)

	registry.Cancel(100)
	registry.Cancel(100)
	registry.Cancel(999) // unknown id is a no-op too

	assert.Zero(t, registry.Len())
}

// TestTrackingRegistry_CancelAll verifies that every handle is cancelled.
func TestTrackingRegistry_CancelAll(t *testing.T) {
	registry := NewTrackingRegistry()
	h1 := registry.Register(context.Background(), 1)
	h2 := registry.Register(context.Background(), 2)
	h3 := registry.Register(context.Background(), 3)

	registry.CancelAll()

	assert.Zero(t, registry.Len())
	assert.Error(t, h1.Context().Err())
	assert.Error(t, h2.Context().Err())
	assert.Error(t, h3.Context().Err())
}

// TestTrackingRegistry_ReregisterReplacesHandle verifies that a second
// Register for the same id cancels the stale handle.
func TestTrackingRegistry_ReregisterReplacesHandle(t *testing.T) {
	registry := NewTrackingRegistry()
	old := registry.Register(context.Background(), 100)
	fresh := registry.Register(context.Background(), 100)

	assert.Equal(t, 1, registry.Len())
	assert.Error(t, old.Context().Err())
	assert.NoError(t, fresh.Context().Err())
}

// TestTrackingRegistry_ConcurrentCancel exercises self-cancel racing
// CancelAll from the shutdown path.
func TestTrackingRegistry_ConcurrentCancel(t *testing.T) {
	registry := NewTrackingRegistry()
	for id := 1; id <= 50; id++ {
		registry.Register(context.Background(), id)
	}

	var wg sync.WaitGroup
	for id := 1; id <= 50; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			registry.Cancel(id)
		}(id)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		registry.CancelAll()
	}()
	wg.Wait()

	assert.Zero(t, registry.Len())
}
