package overlays

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/tarkovhub/overlay/pkg/errors"
	"github.com/tarkovhub/overlay/pkg/logging"
)

// additionsSuffix marks a file as declaring additions instead of
// overrides: "tasks-additions.json5" adds to the "tasks" category.
const additionsSuffix = "-additions"

// modesDir is the subtree holding game-mode specific overlays.
const modesDir = "modes"

// LoadDir loads an overlay from a directory tree on disk.
func LoadDir(dir string) (*Overlay, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.WrapIO("read", dir, err)
	}
	return Load(os.DirFS(dir))
}

// Load loads an overlay from a filesystem. Files may be JSON5, JSON, or
// YAML; each holds a mapping from entity ID to an override patch or an
// addition record. Files under modes/<mode>/ land in that mode's
// subtree. Empty files and empty mappings are valid no-ops.
//
// fs.WalkDir visits files in lexical order, so duplicate-ID detection
// and merge results are deterministic.
func Load(fsys fs.FS) (*Overlay, error) {
	overlay := New()

	err := fs.WalkDir(fsys, ".", func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WrapIO("walk", filePath, err)
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		format := formatOf(d.Name())
		if format == "" {
			return nil
		}

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return errors.WrapIO("read", filePath, err)
		}

		entries, err := ParseFile(filePath, data)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			logging.Debug().Str("file", filePath).Msg("Empty overlay file")
			return nil
		}

		category, mode, additions := classify(filePath)
		var cat *Category
		if mode != "" {
			cat = overlay.ModeCategory(mode, category)
		} else {
			cat = overlay.Category(category)
		}

		return mergeEntries(cat, filePath, entries, additions)
	})
	if err != nil {
		return nil, err
	}

	return overlay, nil
}

// ParseFile decodes one overlay source file into a mapping from entity
// ID to its raw record. The format is chosen by file extension.
func ParseFile(name string, data []byte) (map[string]map[string]any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var raw any
	format := formatOf(name)
	switch format {
	case "json5":
		if err := json5.Unmarshal(data, &raw); err != nil {
			return nil, errors.WrapParse("json5", name, err)
		}
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, errors.WrapParse("json", name, err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.WrapParse("yaml", name, err)
		}
	default:
		return nil, &errors.ParseError{Format: "unknown", File: name, Message: "unsupported file extension"}
	}

	if raw == nil {
		return nil, nil
	}
	mapping, ok := raw.(map[string]any)
	if !ok {
		return nil, &errors.ValidationError{
			File:    name,
			Message: fmt.Sprintf("expected a mapping of entity ID to record, got %T", raw),
		}
	}

	entries := make(map[string]map[string]any, len(mapping))
	for id, value := range mapping {
		record, ok := value.(map[string]any)
		if !ok {
			return nil, &errors.ValidationError{
				File:    name,
				Field:   id,
				Message: fmt.Sprintf("expected an object, got %T", value),
			}
		}
		entries[id] = record
	}
	return entries, nil
}

// mergeEntries folds one file's entries into a category. The same entity
// declared twice across files is ambiguous and rejected.
func mergeEntries(cat *Category, file string, entries map[string]map[string]any, additions bool) error {
	for id, record := range entries {
		if additions {
			if _, exists := cat.Additions[id]; exists {
				return &errors.ValidationError{
					File:    file,
					Field:   id,
					Message: "addition declared more than once",
				}
			}
			cat.Additions[id] = Addition(record)
			continue
		}

		if _, exists := cat.Overrides[id]; exists {
			return &errors.ValidationError{
				File:    file,
				Field:   id,
				Message: "override declared more than once",
			}
		}
		patch, err := DecodePatch(record)
		if err != nil {
			return fmt.Errorf("%s: entity %s: %w", file, id, err)
		}
		cat.Overrides[id] = patch
	}
	return nil
}

// classify derives (category, mode, additions) from a file path.
func classify(filePath string) (category, mode string, additions bool) {
	dir, name := path.Split(filePath)

	parts := strings.Split(strings.Trim(dir, "/"), "/")
	if len(parts) >= 2 && parts[0] == modesDir {
		mode = parts[1]
	}

	base := strings.TrimSuffix(name, path.Ext(name))
	if strings.HasSuffix(base, additionsSuffix) {
		return strings.TrimSuffix(base, additionsSuffix), mode, true
	}
	return base, mode, false
}

// formatOf maps a file name to its parse format, or "" to skip it.
func formatOf(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".json5":
		return "json5"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}
