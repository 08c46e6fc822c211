package snapshot_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarkovhub/overlay/internal/snapshot"
	"github.com/tarkovhub/overlay/pkg/apply"
	"github.com/tarkovhub/overlay/pkg/errors"
)

func openStore(t *testing.T) *snapshot.Store {
	t.Helper()
	store, err := snapshot.Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	entities := []apply.Entity{
		{"id": "t1", "name": "Debut", "minPlayerLevel": float64(1)},
		{"id": "t2", "name": "Checking"},
	}
	require.NoError(t, store.Put(ctx, "tasks", "", entities))

	got, err := store.Get(ctx, "tasks", "", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].ID())
	assert.Equal(t, "Debut", got[0].Name())
}

func TestGetMissingSnapshot(t *testing.T) {
	store := openStore(t)
	_, err := store.Get(context.Background(), "tasks", "", 0)
	assert.True(t, errors.IsNotFound(err))
}

func TestModesAreSeparate(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tasks", "", []apply.Entity{{"id": "regular"}}))
	require.NoError(t, store.Put(ctx, "tasks", "pve", []apply.Entity{{"id": "pve"}}))

	regular, err := store.Get(ctx, "tasks", "", 0)
	require.NoError(t, err)
	pve, err := store.Get(ctx, "tasks", "pve", 0)
	require.NoError(t, err)

	assert.Equal(t, "regular", regular[0].ID())
	assert.Equal(t, "pve", pve[0].ID())
}

func TestPutReplacesExisting(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tasks", "", []apply.Entity{{"id": "old"}}))
	require.NoError(t, store.Put(ctx, "tasks", "", []apply.Entity{{"id": "new"}}))

	got, err := store.Get(ctx, "tasks", "", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID())
}

func TestMaxAge(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tasks", "", []apply.Entity{{"id": "t1"}}))

	// A generous max age accepts the fresh snapshot.
	_, err := store.Get(ctx, "tasks", "", time.Hour)
	assert.NoError(t, err)

	// A zero-width window rejects it as stale.
	time.Sleep(5 * time.Millisecond)
	_, err = store.Get(ctx, "tasks", "", time.Nanosecond)
	assert.ErrorIs(t, err, errors.ErrStale)
}

func TestFetchedAt(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, store.Put(ctx, "tasks", "", []apply.Entity{{"id": "t1"}}))

	ts, err := store.FetchedAt(ctx, "tasks", "")
	require.NoError(t, err)
	assert.True(t, ts.After(before))
}
