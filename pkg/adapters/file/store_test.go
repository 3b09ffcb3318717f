package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/ayr/pkg/adapters/file"
	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunStateStoreContract(t, store)
}

func TestFileStore_DefaultPath(t *testing.T) {
	store := file.New("")
	assert.Equal(t, filepath.Join(".ayr", "sessions"), store.BasePath)
}

func TestFileStore_PathLikeKeys(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	key := "examples/nested/main.ayr"
	require.NoError(t, store.Save(ctx, key, &domain.Snapshot{View: domain.NewView(), SavedAt: time.Now()}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "key separators must not create directories")
	assert.False(t, entries[0].IsDir())

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	loaded, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, loaded.View.Phase)
}

func TestFileStore_InvalidKeys(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"", ".", ".."} {
		err := store.Save(ctx, key, &domain.Snapshot{View: domain.NewView()})
		assert.ErrorIs(t, err, file.ErrInvalidKey, "key %q", key)
	}
}

func TestFileStore_Overwrite(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	first := domain.NewView()
	first.Output = []string{"first"}
	require.NoError(t, store.Save(ctx, "w", &domain.Snapshot{View: first}))

	second := domain.NewView()
	second.Output = []string{"second"}
	require.NoError(t, store.Save(ctx, "w", &domain.Snapshot{View: second}))

	loaded, err := store.Load(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, loaded.View.Output)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
