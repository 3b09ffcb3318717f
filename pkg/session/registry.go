package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/ayr/pkg/domain"
)

// Controller is the part of a workspace controller the Registry needs.
type Controller interface {
	Snapshot() *domain.Snapshot
	Reset()
}

// Factory builds a live controller for key, resumed from snapshot.
type Factory[C Controller] func(key string, snapshot *domain.Snapshot) C

// Registry keeps one live controller per workspace key for long-running surfaces
// (HTTP server, MCP server). Controllers are resumed from the Manager on first use
// and persisted after every action.
//
// The Registry never holds a workspace lock across a remote call, so concurrent
// actions on one key reach the controller and meet its busy gate.
type Registry[C Controller] struct {
	manager *Manager
	factory Factory[C]

	mu   sync.Mutex
	live map[string]C
}

// NewRegistry creates a registry persisting through manager.
func NewRegistry[C Controller](manager *Manager, factory Factory[C]) *Registry[C] {
	return &Registry[C]{
		manager: manager,
		factory: factory,
		live:    make(map[string]C),
	}
}

// Get returns the live controller for key, resuming it from storage if needed.
func (r *Registry[C]) Get(ctx context.Context, key string) (C, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.live[key]; ok {
		return c, nil
	}

	var zero C
	snapshot, err := r.manager.LoadOrNew(ctx, key)
	if err != nil {
		return zero, err
	}
	c := r.factory(key, snapshot)
	r.live[key] = c
	return c, nil
}

// Lookup returns the live controller for key without resuming it.
func (r *Registry[C]) Lookup(key string) (C, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.live[key]
	return c, ok
}

// Persist saves the current snapshot of a live controller.
func (r *Registry[C]) Persist(ctx context.Context, key string) error {
	c, ok := r.Lookup(key)
	if !ok {
		return fmt.Errorf("workspace %q: %w", key, domain.ErrSessionNotFound)
	}
	return r.manager.Save(ctx, key, c.Snapshot())
}

// Forget resets a live controller, drops it, and deletes its snapshot.
func (r *Registry[C]) Forget(ctx context.Context, key string) error {
	r.mu.Lock()
	c, ok := r.live[key]
	delete(r.live, key)
	r.mu.Unlock()

	if ok {
		c.Reset()
	}
	if err := r.manager.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}
	return nil
}

// Keys lists live and stored workspace keys.
func (r *Registry[C]) Keys(ctx context.Context) ([]string, error) {
	stored, err := r.manager.List(ctx)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(stored))
	for _, k := range stored {
		set[k] = struct{}{}
	}
	r.mu.Lock()
	for k := range r.live {
		set[k] = struct{}{}
	}
	r.mu.Unlock()

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Manager returns the persistence manager.
func (r *Registry[C]) Manager() *Manager {
	return r.manager
}
