// Package overlays defines the community overlay data model: per-entity
// field overrides and whole-entity additions, grouped by entity category
// (tasks, items, editions, ...) and optionally by game mode. It also
// builds and verifies the merged, hash-stamped artifact that downstream
// consumers apply on top of live API responses.
package overlays

import (
	"fmt"
	"sort"

	"github.com/tarkovhub/overlay/pkg/errors"
)

// Keys with reserved meaning inside an override patch.
const (
	KeyDisabled      = "disabled"
	KeyObjectives    = "objectives"
	KeyObjectivesAdd = "objectivesAdd"
)

// Patch is a declared correction for one entity. Field presence matters:
// a field absent from Fields claims nothing, a field mapped to nil claims
// the live value must be exactly null. Go map semantics preserve that
// distinction through JSON decoding.
type Patch struct {
	// Disabled marks the override as no longer wanted: the entity is
	// dropped from corrected output and reconciliation recommends
	// deleting the entry.
	Disabled bool

	// Fields holds replacement values keyed by field name. Values fully
	// replace the live value at that key; there is no deep merge here.
	Fields map[string]any

	// Objectives maps objective ID to a partial patch of that
	// objective's fields.
	Objectives map[string]map[string]any

	// ObjectivesAdd lists whole new objective records to append.
	ObjectivesAdd []map[string]any

	raw map[string]any
}

// DeclaresField reports whether the patch claims a value for the given
// top-level field.
func (p *Patch) DeclaresField(name string) bool {
	_, ok := p.Fields[name]
	return ok
}

// Field returns the declared value for name and whether it was declared.
func (p *Patch) Field(name string) (any, bool) {
	v, ok := p.Fields[name]
	return v, ok
}

// FieldNames returns the declared top-level field names in sorted order,
// keeping reconciliation reports deterministic.
func (p *Patch) FieldNames() []string {
	names := make([]string, 0, len(p.Fields))
	for name := range p.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Raw returns the patch as it appeared in its source file. Used when
// assembling the merged artifact, which reproduces author input verbatim.
func (p *Patch) Raw() map[string]any {
	return p.raw
}

// DecodePatch converts a raw decoded mapping into a Patch, failing fast
// on shape violations instead of coercing them.
func DecodePatch(raw map[string]any) (*Patch, error) {
	p := &Patch{
		Fields: make(map[string]any),
		raw:    raw,
	}

	for key, value := range raw {
		switch key {
		case KeyDisabled:
			b, ok := value.(bool)
			if !ok {
				return nil, &errors.ValidationError{
					Field:   KeyDisabled,
					Message: fmt.Sprintf("expected bool, got %T", value),
				}
			}
			p.Disabled = b

		case KeyObjectives:
			objs, ok := value.(map[string]any)
			if !ok {
				return nil, &errors.ValidationError{
					Field:   KeyObjectives,
					Message: fmt.Sprintf("expected mapping of objective ID to patch, got %T", value),
				}
			}
			p.Objectives = make(map[string]map[string]any, len(objs))
			for objID, objPatch := range objs {
				fields, ok := objPatch.(map[string]any)
				if !ok {
					return nil, &errors.ValidationError{
						Field:   KeyObjectives + "." + objID,
						Message: fmt.Sprintf("expected object, got %T", objPatch),
					}
				}
				p.Objectives[objID] = fields
			}

		case KeyObjectivesAdd:
			list, ok := value.([]any)
			if !ok {
				return nil, &errors.ValidationError{
					Field:   KeyObjectivesAdd,
					Message: fmt.Sprintf("expected list of objective records, got %T", value),
				}
			}
			p.ObjectivesAdd = make([]map[string]any, 0, len(list))
			for i, entry := range list {
				record, ok := entry.(map[string]any)
				if !ok {
					return nil, &errors.ValidationError{
						Field:   fmt.Sprintf("%s[%d]", KeyObjectivesAdd, i),
						Message: fmt.Sprintf("expected object, got %T", entry),
					}
				}
				p.ObjectivesAdd = append(p.ObjectivesAdd, record)
			}

		default:
			p.Fields[key] = value
		}
	}

	return p, nil
}

// Addition is a whole entity the live data source is missing. It carries
// enough identity (id or description) to detect when the source catches
// up and defines the same thing natively.
type Addition map[string]any

// ID returns the addition's declared ID, if any.
func (a Addition) ID() string {
	if id, ok := a["id"].(string); ok {
		return id
	}
	return ""
}

// Description returns the addition's description text, if any.
func (a Addition) Description() string {
	if d, ok := a["description"].(string); ok {
		return d
	}
	return ""
}

// Name returns the addition's name, if any.
func (a Addition) Name() string {
	if n, ok := a["name"].(string); ok {
		return n
	}
	return ""
}

// Category groups the overrides and additions for one entity category.
type Category struct {
	Overrides map[string]*Patch
	Additions map[string]Addition
}

// NewCategory returns an empty category.
func NewCategory() *Category {
	return &Category{
		Overrides: make(map[string]*Patch),
		Additions: make(map[string]Addition),
	}
}

// IsEmpty reports whether the category declares nothing.
func (c *Category) IsEmpty() bool {
	return len(c.Overrides) == 0 && len(c.Additions) == 0
}

// OverrideIDs returns the override entity IDs in sorted order.
func (c *Category) OverrideIDs() []string {
	ids := make([]string, 0, len(c.Overrides))
	for id := range c.Overrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AdditionIDs returns the addition entity IDs in sorted order.
func (c *Category) AdditionIDs() []string {
	ids := make([]string, 0, len(c.Additions))
	for id := range c.Additions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Overlay is the full collection of overrides and additions, the unit
// that gets versioned, hash-stamped, and reconciled against live data.
type Overlay struct {
	Categories map[string]*Category

	// Modes holds game-mode specific overlays with the same shape,
	// keyed by mode name (e.g. "pve").
	Modes map[string]map[string]*Category
}

// New returns an empty overlay.
func New() *Overlay {
	return &Overlay{
		Categories: make(map[string]*Category),
		Modes:      make(map[string]map[string]*Category),
	}
}

// Category returns the category with the given name, creating it if
// needed.
func (o *Overlay) Category(name string) *Category {
	cat, ok := o.Categories[name]
	if !ok {
		cat = NewCategory()
		o.Categories[name] = cat
	}
	return cat
}

// ModeCategory returns the category for a game mode, creating it if
// needed.
func (o *Overlay) ModeCategory(mode, name string) *Category {
	categories, ok := o.Modes[mode]
	if !ok {
		categories = make(map[string]*Category)
		o.Modes[mode] = categories
	}
	cat, ok := categories[name]
	if !ok {
		cat = NewCategory()
		categories[name] = cat
	}
	return cat
}

// CategoryNames returns the declared category names in sorted order.
func (o *Overlay) CategoryNames() []string {
	names := make([]string, 0, len(o.Categories))
	for name := range o.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats summarizes the overlay's contents.
type Stats struct {
	Categories int
	Overrides  int
	Additions  int
	Modes      int
}

// Stats counts the overlay's declared entries, including mode subtrees.
func (o *Overlay) Stats() Stats {
	s := Stats{Categories: len(o.Categories), Modes: len(o.Modes)}
	for _, cat := range o.Categories {
		s.Overrides += len(cat.Overrides)
		s.Additions += len(cat.Additions)
	}
	for _, categories := range o.Modes {
		for _, cat := range categories {
			s.Overrides += len(cat.Overrides)
			s.Additions += len(cat.Additions)
		}
	}
	return s
}
