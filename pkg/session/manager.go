package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ayr/internal/logging"
	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed holder can keep a workspace locked.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates workspace snapshot access, ensuring safe concurrent operations.
// Per-key locks are reference counted and dropped once no caller holds them.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager over the given snapshot store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// Load retrieves an existing snapshot.
func (m *Manager) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	var snapshot *domain.Snapshot
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		snapshot, err = m.store.Load(ctx, key)
		return err
	})
	return snapshot, err
}

// LoadOrNew loads the snapshot for key, or returns an idle one if none is stored.
// New snapshots are not persisted until Save.
func (m *Manager) LoadOrNew(ctx context.Context, key string) (*domain.Snapshot, error) {
	snapshot, err := m.Load(ctx, key)
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to check workspace existence: %w", err)
	}
	return &domain.Snapshot{View: domain.NewView(), SavedAt: m.now()}, nil
}

// Save persists the snapshot, stamping SavedAt.
func (m *Manager) Save(ctx context.Context, key string, snapshot *domain.Snapshot) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.save(ctx, key, snapshot)
	})
}

func (m *Manager) save(ctx context.Context, key string, snapshot *domain.Snapshot) error {
	snapshot.SavedAt = m.now()
	if err := m.store.Save(ctx, key, snapshot); err != nil {
		return fmt.Errorf("failed to save workspace %q: %w", key, err)
	}
	return nil
}

// Update runs a load, act, save cycle on key while holding its lock.
// fn receives the stored snapshot, or a fresh idle one, and returns the snapshot to persist.
// A nil result skips the save.
func (m *Manager) Update(ctx context.Context, key string, fn func(context.Context, *domain.Snapshot) (*domain.Snapshot, error)) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, key)
		if errors.Is(err, domain.ErrSessionNotFound) {
			current = &domain.Snapshot{View: domain.NewView(), SavedAt: m.now()}
		} else if err != nil {
			return fmt.Errorf("failed to load workspace %q: %w", key, err)
		}

		next, err := fn(ctx, current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		return m.save(ctx, key, next)
	})
}

// Delete removes the snapshot from the store.
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Delete(ctx, key)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock executes fn while holding the lock for key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"workspace", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
