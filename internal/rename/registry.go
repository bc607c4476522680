package rename

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Registry tracks rename batches whose edits are still being computed or
// applied. Other code paths that must observe finished renames call Wait;
// nothing is blocked implicitly.
type Registry struct {
	mu      sync.Mutex
	pending map[string]struct{}
	idle    chan struct{}
}

func NewRegistry() *Registry {
	idle := make(chan struct{})
	close(idle)
	return &Registry{
		pending: make(map[string]struct{}),
		idle:    idle,
	}
}

// Add registers a new pending batch. The returned done function removes it
// again; calling done more than once is harmless.
func (r *Registry) Add() (string, func()) {
	id := uuid.NewString()

	r.mu.Lock()
	if len(r.pending) == 0 {
		r.idle = make(chan struct{})
	}
	r.pending[id] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	return id, func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[id]; !ok {
		return
	}
	delete(r.pending, id)
	if len(r.pending) == 0 {
		close(r.idle)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[id]
	return ok
}

// Wait blocks until no batch is pending or ctx is done.
func (r *Registry) Wait(ctx context.Context) error {
	r.mu.Lock()
	idle := r.idle
	r.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
