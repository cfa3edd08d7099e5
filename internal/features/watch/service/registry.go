package service

import (
	"context"
	"sync"
)

// TrackingHandle is the cancellation capability for one product's
// tracker. Exactly one handle exists per actively tracked product;
// cancelling it is the only sanctioned way to stop a tracker early.
type TrackingHandle struct {
	// ProductID is the shop article number the handle belongs to.
	ProductID int

	ctx    context.Context
	cancel context.CancelFunc
}

// Context returns the context the tracker's loop runs under.
func (h *TrackingHandle) Context() context.Context {
	return h.ctx
}

// TrackingRegistry owns the map of active tracking handles. Cancel may
// be invoked by a tracker on itself (on any terminal exit) concurrently
// with CancelAll from the shutdown path; both are safe and idempotent.
type TrackingRegistry struct {
	mu      sync.Mutex
	handles map[int]*TrackingHandle
}

// NewTrackingRegistry creates an empty registry.
func NewTrackingRegistry() *TrackingRegistry {
	return &TrackingRegistry{
		handles: make(map[int]*TrackingHandle),
	}
}

// Register creates a handle for the product under the given parent
// context and stores it. Registering an id that already has a handle
// replaces the old handle after cancelling it.
func (r *TrackingRegistry) Register(ctx context.Context, productID int) *TrackingHandle {
	child, cancel := context.WithCancel(ctx)
	handle := &TrackingHandle{
		ProductID: productID,
		ctx:       child,
		cancel:    cancel,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.handles[productID]; ok {
		old.cancel()
	}
	r.handles[productID] = handle
	return handle
}

// Cancel stops the tracker for the given product id. It is a no-op when
// the id is unknown or already cancelled.
func (r *TrackingRegistry) Cancel(productID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if handle, ok := r.handles[productID]; ok {
		handle.cancel()
		delete(r.handles, productID)
	}
}

// CancelAll stops every active tracker.
func (r *TrackingRegistry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, handle := range r.handles {
		handle.cancel()
		delete(r.handles, id)
	}
}

// Len returns the number of active handles.
func (r *TrackingRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
