package overlays_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarkovhub/overlay/pkg/errors"
	"github.com/tarkovhub/overlay/pkg/overlays"
)

func TestLoadJSON5WithComments(t *testing.T) {
	fsys := fstest.MapFS{
		"tasks.json5": {Data: []byte(`{
			// wiki says level 15, API still claims 20
			"5936d90786f7742b1420ba5b": {
				minPlayerLevel: 15,
				wikiLink: "https://escapefromtarkov.fandom.com/wiki/Debut",
			},
		}`)},
	}

	overlay, err := overlays.Load(fsys)
	require.NoError(t, err)

	cat := overlay.Categories["tasks"]
	require.NotNil(t, cat)
	patch := cat.Overrides["5936d90786f7742b1420ba5b"]
	require.NotNil(t, patch)

	level, ok := patch.Field("minPlayerLevel")
	assert.True(t, ok)
	assert.EqualValues(t, 15, level)
	assert.True(t, patch.DeclaresField("wikiLink"))
	assert.False(t, patch.DeclaresField("experience"))
}

func TestLoadMixedFormats(t *testing.T) {
	fsys := fstest.MapFS{
		"tasks.json5":   {Data: []byte(`{"t1": {name: "Fixed Name"}}`)},
		"items.json":    {Data: []byte(`{"i1": {"shortName": "GPU"}}`)},
		"editions.yaml": {Data: []byte("e1:\n  name: Edge of Darkness\n")},
	}

	overlay, err := overlays.Load(fsys)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"editions", "items", "tasks"}, overlay.CategoryNames())
	assert.Equal(t, 3, overlay.Stats().Overrides)
}

func TestLoadAdditionsAndModes(t *testing.T) {
	fsys := fstest.MapFS{
		"tasks.json5":                {Data: []byte(`{"t1": {"minPlayerLevel": 5}}`)},
		"editions-additions.json5":   {Data: []byte(`{"unheard": {id: "unheard", name: "The Unheard Edition"}}`)},
		"modes/pve/tasks.json5":      {Data: []byte(`{"t1": {"minPlayerLevel": 1}}`)},
		"modes/pve/maps-additions.json5": {Data: []byte(`{"m9": {id: "m9", name: "Terminal"}}`)},
	}

	overlay, err := overlays.Load(fsys)
	require.NoError(t, err)

	require.Contains(t, overlay.Categories, "editions")
	add := overlay.Categories["editions"].Additions["unheard"]
	assert.Equal(t, "The Unheard Edition", add.Name())
	assert.Equal(t, "unheard", add.ID())

	require.Contains(t, overlay.Modes, "pve")
	pve := overlay.Modes["pve"]
	require.Contains(t, pve, "tasks")
	assert.Len(t, pve["tasks"].Overrides, 1)
	assert.Len(t, pve["maps"].Additions, 1)

	stats := overlay.Stats()
	assert.Equal(t, 2, stats.Overrides)
	assert.Equal(t, 2, stats.Additions)
	assert.Equal(t, 1, stats.Modes)
}

func TestLoadEmptyFilesAreNoOps(t *testing.T) {
	fsys := fstest.MapFS{
		"tasks.json5":  {Data: []byte("")},
		"items.json":   {Data: []byte("{}")},
		"traders.yaml": {Data: []byte("\n")},
		"README.md":    {Data: []byte("not an overlay file")},
	}

	overlay, err := overlays.Load(fsys)
	require.NoError(t, err)
	assert.Empty(t, overlay.Categories)
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	fsys := fstest.MapFS{
		"a/tasks.json5": {Data: []byte(`{"t1": {"name": "one"}}`)},
		"b/tasks.json5": {Data: []byte(`{"t1": {"name": "two"}}`)},
	}

	_, err := overlays.Load(fsys)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestLoadReportsParseErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"tasks.json5": {Data: []byte(`{"t1": `)},
	}

	_, err := overlays.Load(fsys)
	require.Error(t, err)

	var pe *errors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "tasks.json5", pe.File)
}

func TestLoadRejectsNonMappingDocuments(t *testing.T) {
	fsys := fstest.MapFS{
		"tasks.json": {Data: []byte(`["not", "a", "mapping"]`)},
	}

	_, err := overlays.Load(fsys)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestDecodePatch(t *testing.T) {
	patch, err := overlays.DecodePatch(map[string]any{
		"minPlayerLevel": float64(10),
		"disabled":       false,
		"objectives": map[string]any{
			"obj-1": map[string]any{"count": float64(3)},
		},
		"objectivesAdd": []any{
			map[string]any{"id": "obj-9", "description": "Hand over the found item"},
		},
	})
	require.NoError(t, err)

	assert.False(t, patch.Disabled)
	assert.Equal(t, []string{"minPlayerLevel"}, patch.FieldNames())
	require.Contains(t, patch.Objectives, "obj-1")
	assert.EqualValues(t, 3, patch.Objectives["obj-1"]["count"])
	require.Len(t, patch.ObjectivesAdd, 1)
	assert.Equal(t, "obj-9", patch.ObjectivesAdd[0]["id"])
}

func TestDecodePatchShapeViolations(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"disabled not bool", map[string]any{"disabled": "yes"}},
		{"objectives not mapping", map[string]any{"objectives": []any{"x"}}},
		{"objective patch not object", map[string]any{"objectives": map[string]any{"o1": 5}}},
		{"objectivesAdd not list", map[string]any{"objectivesAdd": map[string]any{}}},
		{"objectivesAdd entry not object", map[string]any{"objectivesAdd": []any{"x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := overlays.DecodePatch(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
}
