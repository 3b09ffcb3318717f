package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ayr/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		view := domain.NewView()
		view.Phase = domain.PhaseDebugActive
		view.Mode = view.Phase.Mode()
		view.SessionID = "remote-1"
		view.DebugKey = "main.ayr"
		view.Cursor = 3
		view.Output = []string{"10"}
		view.Environment["x"] = 10
		view.Problems = []domain.Problem{{Kind: domain.KindError, Title: "Expression Error (Line 2):", Message: "division by zero", Line: domain.IntPtr(2)}}
		view.Summary = domain.Summary{TotalErrors: 1, TotalProblems: 1}
		view.ActiveTab = domain.TabProblems

		err := store.Save(ctx, key, &domain.Snapshot{View: view, SavedAt: time.Now()})
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.PhaseDebugActive, loaded.View.Phase)
		assert.Equal(t, "remote-1", loaded.View.SessionID)
		assert.Equal(t, 3, loaded.View.Cursor)
		assert.Equal(t, []string{"10"}, loaded.View.Output)
		assert.Equal(t, view.Problems, loaded.View.Problems)
		assert.Equal(t, view.Summary, loaded.View.Summary)
		assert.Equal(t, domain.TabProblems, loaded.View.ActiveTab)
		// JSON backed stores turn numbers into float64, so only presence is checked.
		assert.NotNil(t, loaded.View.Environment["x"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, key, &domain.Snapshot{View: domain.NewView(), SavedAt: time.Now()})
		require.NoError(t, err)

		err = store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		k1 := key + "-1"
		k2 := key + "-2"
		_ = store.Save(ctx, k1, &domain.Snapshot{View: domain.NewView(), SavedAt: time.Now()})
		_ = store.Save(ctx, k2, &domain.Snapshot{View: domain.NewView(), SavedAt: time.Now()})

		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})
}
