package schema_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarkovhub/overlay/internal/schema"
)

func TestValidOverrideFile(t *testing.T) {
	result := schema.ValidateFile("tasks.json5", []byte(`{
		"t1": {minPlayerLevel: 10, wikiLink: "https://wiki/t1"},
	}`))

	assert.True(t, result.Valid)
	assert.Empty(t, result.Findings)
	assert.Equal(t, "overrides.schema.json", result.Schema)
}

func TestInvalidFieldTypes(t *testing.T) {
	result := schema.ValidateFile("tasks.json5", []byte(`{
		"t1": {minPlayerLevel: "ten"},
	}`))

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Findings)
	assert.Contains(t, result.Findings[0].Path, "t1")
}

func TestAdditionsFileUsesAdditionsSchema(t *testing.T) {
	result := schema.ValidateFile("editions-additions.json5", []byte(`{
		"unheard": {id: "unheard", name: "The Unheard Edition"},
	}`))

	assert.True(t, result.Valid)
	assert.Equal(t, "additions.schema.json", result.Schema)
}

func TestAdditionWithoutIdentityIsInvalid(t *testing.T) {
	result := schema.ValidateFile("editions-additions.json5", []byte(`{
		"mystery": {price: 100},
	}`))

	assert.False(t, result.Valid)
}

func TestParseErrorReportedPerFile(t *testing.T) {
	result := schema.ValidateFile("tasks.json5", []byte(`{"broken":`))

	assert.False(t, result.Valid)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "$", result.Findings[0].Path)
}

func TestEmptyFileIsValid(t *testing.T) {
	result := schema.ValidateFile("tasks.json5", nil)
	assert.True(t, result.Valid)
}

func TestValidateFS(t *testing.T) {
	fsys := fstest.MapFS{
		"tasks.json5":    {Data: []byte(`{"t1": {minPlayerLevel: 10}}`)},
		"bad.json5":      {Data: []byte(`{"x": {minPlayerLevel: "nope"}}`)},
		"notes/plan.txt": {Data: []byte("ignored")},
	}

	results, err := schema.ValidateFS(fsys)
	require.NoError(t, err)

	require.Len(t, results, 2)
	// Sorted by file name.
	assert.Equal(t, "bad.json5", results[0].File)
	assert.False(t, results[0].Valid)
	assert.True(t, results[1].Valid)

	assert.True(t, schema.AnyInvalid(results))
}
