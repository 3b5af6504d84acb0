package boltdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artify3d/client/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "session.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "session", []byte(`{"id":"u1"}`)))
	got, err := store.Get(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"u1"}`), got)

	require.NoError(t, store.Set(ctx, "session", []byte("replaced")))
	got, err = store.Get(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, []byte("replaced"), got)

	require.NoError(t, store.Remove(ctx, "session"))
	_, err = store.Get(ctx, "session")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	// Removing an absent key is not an error.
	require.NoError(t, store.Remove(ctx, "session"))
}

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := Open(path, "session")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	require.NoError(t, store.Close())

	store, err = Open(path, "session")
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
