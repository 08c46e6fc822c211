// Package schema validates overlay source files against embedded JSON
// Schemas. The schema is chosen by filename pattern: addition files get
// the additions schema, everything else the overrides schema. Validation
// findings are aggregated per file and never abort the pipeline.
package schema

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/tarkovhub/overlay/pkg/errors"
	"github.com/tarkovhub/overlay/pkg/overlays"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// schemaPatterns maps a filename glob (matched against the base name
// sans extension) to its schema file. First match wins.
var schemaPatterns = []struct {
	pattern string
	schema  string
}{
	{"*-additions", "schemas/additions.schema.json"},
	{"*", "schemas/overrides.schema.json"},
}

// Finding is one schema violation inside a file.
type Finding struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// FileResult is the validation outcome for one source file.
type FileResult struct {
	File     string    `json:"file"`
	Schema   string    `json:"schema"`
	Valid    bool      `json:"valid"`
	Findings []Finding `json:"findings,omitempty"`
}

// ValidateFS validates every overlay source file in the tree. Malformed
// files are reported as invalid with the parser's message rather than
// aborting the walk.
func ValidateFS(fsys fs.FS) ([]FileResult, error) {
	var results []FileResult

	err := fs.WalkDir(fsys, ".", func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WrapIO("walk", filePath, err)
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") || !isOverlayFile(d.Name()) {
			return nil
		}

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return errors.WrapIO("read", filePath, err)
		}
		results = append(results, ValidateFile(filePath, data))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })
	return results, nil
}

// ValidateFile validates one source file against its schema.
func ValidateFile(name string, data []byte) FileResult {
	schemaFile := schemaFor(name)
	result := FileResult{File: name, Schema: path.Base(schemaFile), Valid: true}

	doc, err := overlays.ParseFile(name, data)
	if err != nil {
		result.Valid = false
		result.Findings = append(result.Findings, Finding{Path: "$", Message: err.Error()})
		return result
	}
	if doc == nil {
		return result // empty file is a valid no-op
	}

	schemaData, err := schemaFS.ReadFile(schemaFile)
	if err != nil {
		// Embedded schemas are part of the binary; missing ones are a
		// programming error.
		panic("missing embedded schema: " + schemaFile)
	}

	// Validate the parsed document so JSON5 and YAML sources share one
	// schema path.
	generic := make(map[string]any, len(doc))
	for id, record := range doc {
		generic[id] = record
	}

	outcome, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaData),
		gojsonschema.NewGoLoader(generic),
	)
	if err != nil {
		result.Valid = false
		result.Findings = append(result.Findings, Finding{Path: "$", Message: err.Error()})
		return result
	}

	if !outcome.Valid() {
		result.Valid = false
		for _, violation := range outcome.Errors() {
			result.Findings = append(result.Findings, Finding{
				Path:    violation.Field(),
				Message: violation.Description(),
			})
		}
		sort.Slice(result.Findings, func(i, j int) bool {
			if result.Findings[i].Path != result.Findings[j].Path {
				return result.Findings[i].Path < result.Findings[j].Path
			}
			return result.Findings[i].Message < result.Findings[j].Message
		})
	}
	return result
}

// AnyInvalid reports whether any file failed validation.
func AnyInvalid(results []FileResult) bool {
	for _, r := range results {
		if !r.Valid {
			return true
		}
	}
	return false
}

// schemaFor picks the schema for a file by its base name.
func schemaFor(name string) string {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	for _, entry := range schemaPatterns {
		if ok, _ := path.Match(entry.pattern, base); ok {
			return entry.schema
		}
	}
	return schemaPatterns[len(schemaPatterns)-1].schema
}

// isOverlayFile reports whether the file extension is one the loader
// understands.
func isOverlayFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json5", ".json", ".yaml", ".yml":
		return true
	}
	return false
}
