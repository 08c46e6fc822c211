// Package apply merges overlay patches into live entities, producing the
// corrected entities downstream consumers see. Application is a pure
// transform: inputs are never mutated, every corrected entity is a fresh
// value.
package apply

import (
	"fmt"

	"github.com/tarkovhub/overlay/pkg/errors"
	"github.com/tarkovhub/overlay/pkg/logging"
	"github.com/tarkovhub/overlay/pkg/overlays"
)

// Entity is a live domain object (task, item, trader, ...) keyed by its
// stable source-system ID.
type Entity map[string]any

// ID returns the entity's stable ID.
func (e Entity) ID() string {
	if id, ok := e["id"].(string); ok {
		return id
	}
	return ""
}

// Name returns the entity's display name, if any.
func (e Entity) Name() string {
	if name, ok := e["name"].(string); ok {
		return name
	}
	return ""
}

// Clone returns a shallow copy of the entity.
func (e Entity) Clone() Entity {
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Strategy selects how a patched field merges into an entity.
type Strategy int

const (
	// Replace substitutes the patch value for the entity value at that
	// key. No deep merge.
	Replace Strategy = iota

	// MergeKeyed shallow-merges patch fields into the list element
	// whose ID matches the patch key. Unmatched elements pass through.
	MergeKeyed

	// Append adds whole records after the merged list.
	Append
)

// strategies is the auditable field-to-merge-strategy table. Every field
// not listed here replaces wholesale.
var strategies = map[string]Strategy{
	overlays.KeyObjectives:    MergeKeyed,
	overlays.KeyObjectivesAdd: Append,
}

// StrategyFor returns the merge strategy for a patch field.
func StrategyFor(field string) Strategy {
	if s, ok := strategies[field]; ok {
		return s
	}
	return Replace
}

// Apply merges a patch into an entity and returns the corrected entity.
// A disabled patch returns (nil, nil): the entity should be dropped from
// corrected output. The input entity is never mutated.
func Apply(entity Entity, patch *overlays.Patch) (Entity, error) {
	if patch == nil {
		return entity, nil
	}
	if patch.Disabled {
		return nil, nil
	}

	out := entity.Clone()

	for _, field := range patch.FieldNames() {
		value, _ := patch.Field(field)
		out[field] = value
	}

	if len(patch.Objectives) > 0 {
		merged, err := mergeObjectives(out, patch.Objectives)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", entity.ID(), err)
		}
		out[overlays.KeyObjectives] = merged
	}

	if len(patch.ObjectivesAdd) > 0 {
		appended, err := appendObjectives(out, patch.ObjectivesAdd)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", entity.ID(), err)
		}
		out[overlays.KeyObjectives] = appended
	}

	return out, nil
}

// All applies a category's overrides to every entity, drops entities
// disabled by their patch, and preserves the relative order of the
// survivors. Overrides whose entity ID matches nothing are silently
// no-ops here; the reconciliation pipeline reports them.
func All(entities []Entity, overrides map[string]*overlays.Patch) ([]Entity, error) {
	out := make([]Entity, 0, len(entities))
	for _, entity := range entities {
		corrected, err := Apply(entity, overrides[entity.ID()])
		if err != nil {
			return nil, err
		}
		if corrected == nil {
			continue
		}
		out = append(out, corrected)
	}
	return out, nil
}

// Category applies a category's overrides and then appends its additions
// as new entities, in sorted-ID order for determinism.
func Category(entities []Entity, cat *overlays.Category) ([]Entity, error) {
	if cat == nil {
		return entities, nil
	}
	out, err := All(entities, cat.Overrides)
	if err != nil {
		return nil, err
	}
	for _, id := range cat.AdditionIDs() {
		out = append(out, Entity(cat.Additions[id]))
	}
	return out, nil
}

// mergeObjectives performs the ID-keyed shallow merge of objective
// patches into the entity's objectives list.
func mergeObjectives(entity Entity, patches map[string]map[string]any) ([]any, error) {
	objectives, err := objectiveList(entity)
	if err != nil {
		return nil, err
	}

	merged := make([]any, 0, len(objectives))
	for _, raw := range objectives {
		objective, ok := raw.(map[string]any)
		if !ok {
			return nil, &errors.ValidationError{
				Field:   overlays.KeyObjectives,
				Message: fmt.Sprintf("live objective is %T, expected object", raw),
			}
		}

		id, _ := objective["id"].(string)
		fieldPatch, ok := patches[id]
		if !ok {
			merged = append(merged, objective)
			continue
		}

		patched := make(map[string]any, len(objective)+len(fieldPatch))
		for k, v := range objective {
			patched[k] = v
		}
		for k, v := range fieldPatch {
			patched[k] = v
		}
		merged = append(merged, patched)
	}
	return merged, nil
}

// appendObjectives appends new objective records after the existing
// list. A record whose ID collides with an existing objective is still
// appended as declared; the collision is logged here and reported by the
// reconciler as a finding needing review.
func appendObjectives(entity Entity, records []map[string]any) ([]any, error) {
	objectives, err := objectiveList(entity)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]bool, len(objectives))
	for _, raw := range objectives {
		if objective, ok := raw.(map[string]any); ok {
			if id, ok := objective["id"].(string); ok {
				existing[id] = true
			}
		}
	}

	out := append([]any{}, objectives...)
	for _, record := range records {
		if id, ok := record["id"].(string); ok && existing[id] {
			logging.Warn().
				Str("entity", entity.ID()).
				Str("objective", id).
				Msg("objectivesAdd record collides with an existing objective ID")
		}
		out = append(out, record)
	}
	return out, nil
}

// objectiveList extracts the entity's objectives as a list, treating a
// missing field as empty.
func objectiveList(entity Entity) ([]any, error) {
	raw, ok := entity[overlays.KeyObjectives]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &errors.ValidationError{
			Field:   overlays.KeyObjectives,
			Message: fmt.Sprintf("expected list, got %T", raw),
		}
	}
	return list, nil
}
