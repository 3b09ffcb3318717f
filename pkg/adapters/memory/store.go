package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/ayr/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use. Snapshots are deep-copied on the way in and out.
type Store struct {
	data map[string]domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Snapshot),
	}
}

// Save keeps a copy of the snapshot.
func (s *Store) Save(ctx context.Context, key string, snapshot *domain.Snapshot) error {
	copied := domain.Snapshot{View: snapshot.View.Clone(), SavedAt: snapshot.SavedAt}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load returns a copy so the caller cannot mutate the stored snapshot.
func (s *Store) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.data[key]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &domain.Snapshot{View: snapshot.View.Clone(), SavedAt: snapshot.SavedAt}, nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored workspace keys in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
