package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/ayr/pkg/adapters/memory"
	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/ports"
	"github.com/aretw0/ayr/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke races if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Save(ctx context.Context, key string, snapshot *domain.Snapshot) error {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Save(ctx, key, snapshot)
}

func (s SlowStore) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, key)
}

type countingLocker struct {
	locks   atomic.Int32
	unlocks atomic.Int32
	ttl     time.Duration
	fail    error
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail != nil {
		return nil, l.fail
	}
	l.locks.Add(1)
	l.ttl = ttl
	return func(context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_UpdateSerializes(t *testing.T) {
	manager := session.NewManager(SlowStore{memory.NewStore()})
	ctx := context.Background()
	key := "race.ayr"

	var wg sync.WaitGroup
	workers := 10
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Update(ctx, key, func(ctx context.Context, s *domain.Snapshot) (*domain.Snapshot, error) {
				s.View.Output = append(s.View.Output, "x")
				return s, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snapshot, err := manager.Load(ctx, key)
	require.NoError(t, err)
	assert.Len(t, snapshot.View.Output, workers, "no read-modify-write cycle may be lost")
}

func TestManager_LoadOrNew(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	snapshot, err := manager.LoadOrNew(ctx, "fresh.ayr")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, snapshot.View.Phase)

	keys, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys, "a fresh snapshot is not persisted until saved")

	snapshot.View.Output = []string{"10"}
	require.NoError(t, manager.Save(ctx, "fresh.ayr", snapshot))

	loaded, err := manager.LoadOrNew(ctx, "fresh.ayr")
	require.NoError(t, err)
	assert.Equal(t, []string{"10"}, loaded.View.Output)
	assert.False(t, loaded.SavedAt.IsZero())
}

func TestManager_UpdateSkipsNilResult(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	err := manager.Update(ctx, "w", func(context.Context, *domain.Snapshot) (*domain.Snapshot, error) {
		return nil, nil
	})
	require.NoError(t, err)

	_, err = manager.Load(ctx, "w")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_UpdatePropagatesError(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	boom := errors.New("boom")

	err := manager.Update(context.Background(), "w", func(context.Context, *domain.Snapshot) (*domain.Snapshot, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(),
		session.WithLocker(locker),
		session.WithLockTTL(5*time.Second),
	)
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "w", &domain.Snapshot{View: domain.NewView()}))
	_, err := manager.Load(ctx, "w")
	require.NoError(t, err)

	assert.Equal(t, int32(2), locker.locks.Load())
	assert.Equal(t, int32(2), locker.unlocks.Load())
	assert.Equal(t, 5*time.Second, locker.ttl)
}

func TestManager_DistributedLockerFailure(t *testing.T) {
	unavailable := errors.New("redis down")
	manager := session.NewManager(memory.NewStore(), session.WithLocker(&countingLocker{fail: unavailable}))

	err := manager.Save(context.Background(), "w", &domain.Snapshot{View: domain.NewView()})
	assert.ErrorIs(t, err, unavailable)
}
