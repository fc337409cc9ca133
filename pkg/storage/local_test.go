package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/balanco/pkg/faults"
)

func TestLocalStore_PutGetList(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root)
	ctx := context.Background()

	key := "bndes-data/2024/03/05/balanco_patrimonial_2023_consolidado.parquet"
	require.NoError(t, store.Put(ctx, key, []byte("PAR1")))

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("PAR1"), data)

	keys, err := store.List(ctx, "bndes-data")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	assert.Equal(t, filepath.Join(root, "bndes-data", "2024", "03", "05", "balanco_patrimonial_2023_consolidado.parquet"), store.Location(key))
	assert.Equal(t, "Local Filesystem", store.Describe())
}

func TestLocalStore_GetMissing(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	_, err := store.Get(context.Background(), "nope.parquet")
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindNotFound))
}

func TestLocalStore_ListMissingPrefix(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	keys, err := store.List(context.Background(), "absent")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLocalStore_Ping(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "out")
	store := NewLocalStore(root)

	require.NoError(t, store.Ping(context.Background()))
	keys, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, keys, "probe file should be removed")
}

func TestLocalStore_PutCanceled(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Put(ctx, "k", []byte("x")), context.Canceled)
}
