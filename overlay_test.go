package overlay

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarkovhub/overlay/pkg/apply"
	"github.com/tarkovhub/overlay/pkg/errors"
	"github.com/tarkovhub/overlay/pkg/overlays"
	"github.com/tarkovhub/overlay/pkg/reconcile"
)

type fakeSource struct {
	entities map[string][]apply.Entity
	calls    int
}

func (s *fakeSource) Category(_ context.Context, category, _ string) ([]apply.Entity, error) {
	s.calls++
	entities, ok := s.entities[category]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "category query", ID: category}
	}
	return entities, nil
}

func testSources() fstest.MapFS {
	return fstest.MapFS{
		"tasks.json5": &fstest.MapFile{Data: []byte(`{
  // live data has the wrong unlock level
  "task-1": { "minPlayerLevel": 5 },
  "task-2": { "disabled": true },
}`)},
		"tasks-additions.json5": &fstest.MapFile{Data: []byte(`{
  "task-9": { "id": "task-9", "name": "Missing Quest" },
}`)},
	}
}

func testSource() *fakeSource {
	return &fakeSource{entities: map[string][]apply.Entity{
		"tasks": {
			{"id": "task-1", "name": "Debut", "minPlayerLevel": float64(1)},
			{"id": "task-2", "name": "Gone", "minPlayerLevel": float64(3)},
		},
	}}
}

func TestClientLoadCaches(t *testing.T) {
	c, err := New(WithFS(testSources()), WithSource(testSource()))
	require.NoError(t, err)
	defer c.Close()

	first, err := c.Load()
	require.NoError(t, err)
	second, err := c.Load()
	require.NoError(t, err)
	assert.Same(t, first, second)

	third, err := c.Reload()
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestClientBuildDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	c, err := New(
		WithFS(testSources()),
		WithSource(testSource()),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	defer c.Close()

	first, err := c.Build("1.2.3")
	require.NoError(t, err)
	second, err := c.Build("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	meta, err := overlays.Verify(first)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", meta.Version)
}

func TestClientApply(t *testing.T) {
	c, err := New(WithFS(testSources()), WithSource(testSource()))
	require.NoError(t, err)
	defer c.Close()

	entities, err := c.Apply(context.Background(), "tasks", "")
	require.NoError(t, err)

	// task-2 is disabled, task-9 is an addition.
	require.Len(t, entities, 2)
	assert.Equal(t, "task-1", entities[0].ID())
	assert.Equal(t, float64(5), entities[0]["minPlayerLevel"])
	assert.Equal(t, "task-9", entities[1].ID())
}

func TestClientCheck(t *testing.T) {
	c, err := New(WithFS(testSources()), WithSource(testSource()))
	require.NoError(t, err)
	defer c.Close()

	report, err := c.Check(context.Background(), "")
	require.NoError(t, err)

	// task-1 still diverges, task-2 is disabled, task-9 is absent live.
	assert.Len(t, report.StillNeeded, 2)
	assert.Len(t, report.RemovedFromAPI, 1)
	assert.Equal(t, reconcile.StatusRemoved, report.RemovedFromAPI[0].Status)
}

func TestClientCheckUnknownMode(t *testing.T) {
	c, err := New(WithFS(testSources()), WithSource(testSource()))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Check(context.Background(), "pve")
	assert.True(t, errors.IsNotFound(err))
}

func TestClientCheckModeSubtree(t *testing.T) {
	sources := testSources()
	sources["modes/pve/tasks.json5"] = &fstest.MapFile{Data: []byte(`{
  "task-1": { "minPlayerLevel": 1 },
}`)}

	c, err := New(WithFS(sources), WithSource(testSource()))
	require.NoError(t, err)
	defer c.Close()

	report, err := c.Check(context.Background(), "pve")
	require.NoError(t, err)

	require.Len(t, report.Fixed, 1)
	assert.Equal(t, "task-1", report.Fixed[0].ID)
	results, ok := report.Results["pve/tasks"]
	require.True(t, ok)
	assert.Len(t, results, 1)
}

func TestClientSnapshotFallback(t *testing.T) {
	dbPath := t.TempDir() + "/snapshots.db"
	source := testSource()

	c, err := New(WithFS(testSources()), WithSource(source), WithSnapshot(dbPath, 0))
	require.NoError(t, err)

	_, err = c.Live(context.Background(), "tasks", "")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	// Offline client serves the cached snapshot without the source.
	offline, err := New(
		WithFS(testSources()),
		WithSource(&fakeSource{}),
		WithSnapshot(dbPath, 0),
		WithOffline(true),
	)
	require.NoError(t, err)
	defer offline.Close()

	entities, err := offline.Live(context.Background(), "tasks", "")
	require.NoError(t, err)
	assert.Len(t, entities, 2)
}

func TestClientOfflineRequiresSnapshot(t *testing.T) {
	_, err := New(WithFS(testSources()), WithOffline(true))
	require.Error(t, err)
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestClientValidate(t *testing.T) {
	c, err := New(WithFS(testSources()), WithSource(testSource()))
	require.NoError(t, err)
	defer c.Close()

	results, err := c.Validate()
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, result := range results {
		assert.True(t, result.Valid, result.File)
	}
}
