package overlays_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarkovhub/overlay/pkg/errors"
	"github.com/tarkovhub/overlay/pkg/overlays"
)

func testOverlay(t *testing.T) *overlays.Overlay {
	t.Helper()
	fsys := fstest.MapFS{
		"tasks.json5": {Data: []byte(`{
			"t1": {minPlayerLevel: 10, wikiLink: "https://wiki/t1"},
			"t2": {disabled: true},
		}`)},
		"editions-additions.json5": {Data: []byte(`{"unheard": {id: "unheard", name: "The Unheard Edition"}}`)},
		"modes/pve/tasks.json5":    {Data: []byte(`{"t1": {minPlayerLevel: 1}}`)},
	}
	overlay, err := overlays.Load(fsys)
	require.NoError(t, err)
	return overlay
}

func TestArtifactShape(t *testing.T) {
	overlay := testOverlay(t)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	artifact, err := overlay.Artifact("1.4.2", now)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(artifact, &doc))

	meta, ok := doc["$meta"].(map[string]any)
	require.True(t, ok, "artifact must carry $meta")
	assert.Equal(t, "1.4.2", meta["version"])
	assert.Equal(t, "2026-08-30T12:00:00Z", meta["generated"])
	assert.Len(t, meta["sha256"], 64)

	tasks, ok := doc["tasks"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, tasks, "t1")
	assert.Contains(t, tasks, "t2")

	editions, ok := doc["editions"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, editions, "unheard")

	modes, ok := doc["modes"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, modes, "pve")
}

func TestArtifactDeterministic(t *testing.T) {
	overlay := testOverlay(t)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	first, err := overlay.Artifact("1.4.2", now)
	require.NoError(t, err)
	second, err := overlay.Artifact("1.4.2", now)
	require.NoError(t, err)

	// Byte-identical output is load-bearing: the hash stamp and CI
	// gating both depend on it.
	assert.True(t, bytes.Equal(first, second))
}

func TestArtifactVerifyRoundTrip(t *testing.T) {
	overlay := testOverlay(t)
	artifact, err := overlay.Artifact("1.4.2", time.Now())
	require.NoError(t, err)

	meta, err := overlays.Verify(artifact)
	require.NoError(t, err)
	assert.Equal(t, "1.4.2", meta.Version)
	assert.Len(t, meta.SHA256, 64)
}

func TestVerifyDetectsTampering(t *testing.T) {
	overlay := testOverlay(t)
	artifact, err := overlay.Artifact("1.4.2", time.Now())
	require.NoError(t, err)

	tampered := bytes.Replace(artifact, []byte(`"minPlayerLevel": 10`), []byte(`"minPlayerLevel": 11`), 1)
	require.NotEqual(t, artifact, tampered, "fixture must actually change the document")

	_, err = overlays.Verify(tampered)
	assert.ErrorIs(t, err, errors.ErrHashMismatch)
}

func TestVerifyRequiresMeta(t *testing.T) {
	_, err := overlays.Verify([]byte(`{"tasks": {}}`))
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = overlays.Verify([]byte(`not json`))
	var pe *errors.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestArtifactRejectsOverrideAdditionCollision(t *testing.T) {
	overlay := overlays.New()
	cat := overlay.Category("editions")

	patch, err := overlays.DecodePatch(map[string]any{"name": "renamed"})
	require.NoError(t, err)
	cat.Overrides["eod"] = patch
	cat.Additions["eod"] = overlays.Addition{"id": "eod"}

	_, err = overlay.Artifact("1.0.0", time.Now())
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
