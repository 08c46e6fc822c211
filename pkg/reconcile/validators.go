package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tarkovhub/overlay/pkg/apply"
	"github.com/tarkovhub/overlay/pkg/canonical"
	"github.com/tarkovhub/overlay/pkg/errors"
	"github.com/tarkovhub/overlay/pkg/overlays"
)

// fieldValidator checks one top-level field of interest. Validators run
// in a fixed order so detail ordering, and therefore the report, stays
// deterministic.
type fieldValidator struct {
	field    string
	validate func(patch *overlays.Patch, entity apply.Entity) ([]Detail, error)
}

// fieldValidators is the static validator table. All but
// taskRequirements use plain subset comparison.
var fieldValidators = []fieldValidator{
	{"minPlayerLevel", subsetValidator("minPlayerLevel")},
	{"name", subsetValidator("name")},
	{"wikiLink", subsetValidator("wikiLink")},
	{"map", subsetValidator("map")},
	{"experience", subsetValidator("experience")},
	{"finishRewards", subsetValidator("finishRewards")},
	{"taskRequirements", validateTaskRequirements},
}

// subsetValidator builds the standard check for one field: skip when the
// override doesn't declare it, otherwise the declared value must be a
// subset of the live value.
func subsetValidator(field string) func(*overlays.Patch, apply.Entity) ([]Detail, error) {
	return func(patch *overlays.Patch, entity apply.Entity) ([]Detail, error) {
		declared, ok := patch.Field(field)
		if !ok {
			return nil, nil
		}

		liveValue, present := entity[field]
		if !present {
			return []Detail{{
				Field:   field,
				Status:  DetailNeeded,
				Message: fmt.Sprintf("override declares %s but live data has no such field", render(declared)),
			}}, nil
		}

		satisfied, err := canonical.SubsetAny(declared, liveValue)
		if err != nil {
			return nil, err
		}
		if satisfied {
			return []Detail{{
				Field:   field,
				Status:  DetailFixed,
				Message: fmt.Sprintf("live value %s now matches override %s", render(liveValue), render(declared)),
			}}, nil
		}
		return []Detail{{
			Field:   field,
			Status:  DetailNeeded,
			Message: fmt.Sprintf("override %s still differs from live value %s", render(declared), render(liveValue)),
		}}, nil
	}
}

// validateTaskRequirements compares the override's required-predecessor
// task IDs against the live requirement list as order-insensitive sets.
// Live requirements already marked active are excluded first: only
// requirements not yet satisfied in-game are comparable claims.
func validateTaskRequirements(patch *overlays.Patch, entity apply.Entity) ([]Detail, error) {
	const field = "taskRequirements"

	declared, ok := patch.Field(field)
	if !ok {
		return nil, nil
	}

	overrideIDs, err := requirementIDs(declared)
	if err != nil {
		return nil, err
	}

	liveRaw, _ := entity[field]
	liveList, _ := liveRaw.([]any)
	var pending []any
	for _, req := range liveList {
		if !requirementActive(req) {
			pending = append(pending, req)
		}
	}

	if len(pending) == 0 {
		if len(overrideIDs) > 0 {
			return []Detail{{
				Field:   field,
				Status:  DetailNeeded,
				Message: fmt.Sprintf("override requires predecessors [%s] but live data lists none", strings.Join(overrideIDs, ", ")),
			}}, nil
		}
		return []Detail{{
			Field:   field,
			Status:  DetailFixed,
			Message: "override and live data both list no pending requirements",
		}}, nil
	}

	liveIDs, err := requirementIDs(pending)
	if err != nil {
		return nil, err
	}

	if equalSets(overrideIDs, liveIDs) {
		return []Detail{{
			Field:   field,
			Status:  DetailFixed,
			Message: fmt.Sprintf("live predecessors [%s] now match override", strings.Join(liveIDs, ", ")),
		}}, nil
	}
	return []Detail{{
		Field:  field,
		Status: DetailNeeded,
		Message: fmt.Sprintf("override predecessors [%s] differ from live [%s]",
			strings.Join(overrideIDs, ", "), strings.Join(liveIDs, ", ")),
	}}, nil
}

// validateObjectives runs the per-objective nested checks for every
// (objectiveID, fieldPatch) pair the override declares.
func validateObjectives(patch *overlays.Patch, entity apply.Entity) ([]Detail, error) {
	if len(patch.Objectives) == 0 {
		return nil, nil
	}

	liveObjectives := objectivesByID(entity)

	objectiveIDs := make([]string, 0, len(patch.Objectives))
	for id := range patch.Objectives {
		objectiveIDs = append(objectiveIDs, id)
	}
	sort.Strings(objectiveIDs)

	var details []Detail
	for _, objectiveID := range objectiveIDs {
		objective, found := liveObjectives[objectiveID]
		if !found {
			details = append(details, Detail{
				Field:   "objective:" + objectiveID,
				Status:  DetailCheck,
				Message: "objective ID not found in live data; verify the ID or remove the patch",
			})
			continue
		}

		fieldPatch := patch.Objectives[objectiveID]
		fields := make([]string, 0, len(fieldPatch))
		for f := range fieldPatch {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		for _, f := range fields {
			qualified := "objective:" + objectiveID + ":" + f
			declared := fieldPatch[f]

			liveValue, present := objective[f]
			if !present {
				details = append(details, Detail{
					Field:   qualified,
					Status:  DetailNeeded,
					Message: fmt.Sprintf("override declares %s but live objective has no such field", render(declared)),
				})
				continue
			}

			satisfied, err := canonical.SubsetAny(declared, liveValue)
			if err != nil {
				return nil, fmt.Errorf("objective %s field %s: %w", objectiveID, f, err)
			}
			if satisfied {
				details = append(details, Detail{
					Field:   qualified,
					Status:  DetailFixed,
					Message: fmt.Sprintf("live value %s now matches override %s", render(liveValue), render(declared)),
				})
			} else {
				details = append(details, Detail{
					Field:   qualified,
					Status:  DetailNeeded,
					Message: fmt.Sprintf("override %s still differs from live value %s", render(declared), render(liveValue)),
				})
			}
		}
	}
	return details, nil
}

// validateObjectivesAdd checks whether live data caught up with each
// added objective, matching by ID first and description text second.
func validateObjectivesAdd(patch *overlays.Patch, entity apply.Entity) ([]Detail, error) {
	if len(patch.ObjectivesAdd) == 0 {
		return nil, nil
	}

	liveObjectives := objectivesByID(entity)
	descriptions := make(map[string]bool)
	for _, objective := range liveObjectives {
		if d, ok := objective["description"].(string); ok && d != "" {
			descriptions[d] = true
		}
	}

	var details []Detail
	for i, record := range patch.ObjectivesAdd {
		id, _ := record["id"].(string)
		description, _ := record["description"].(string)

		label := id
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		qualified := "objectivesAdd:" + label

		_, idMatch := liveObjectives[id]
		if idMatch || (description != "" && descriptions[description]) {
			details = append(details, Detail{
				Field:   qualified,
				Status:  DetailFixed,
				Message: "live data now defines this objective; move it into objectives or delete the addition",
			})
			continue
		}

		if id == "" && description == "" {
			details = append(details, Detail{
				Field:   qualified,
				Status:  DetailCheck,
				Message: "added objective carries neither id nor description; cannot match against live data",
			})
			continue
		}

		details = append(details, Detail{
			Field:   qualified,
			Status:  DetailNeeded,
			Message: "live data still lacks this objective",
		})
	}
	return details, nil
}

// objectivesByID indexes an entity's live objectives by their ID.
func objectivesByID(entity apply.Entity) map[string]map[string]any {
	out := make(map[string]map[string]any)
	list, _ := entity[overlays.KeyObjectives].([]any)
	for _, raw := range list {
		objective, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := objective["id"].(string); ok && id != "" {
			out[id] = objective
		}
	}
	return out
}

// requirementIDs extracts the sorted set of predecessor task IDs from a
// requirement list. Records carry either {task: {id}} or a bare {id}.
func requirementIDs(raw any) ([]string, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, &errors.ValidationError{
			Field:   "taskRequirements",
			Message: fmt.Sprintf("expected list of requirement records, got %T", raw),
		}
	}

	seen := make(map[string]bool, len(list))
	ids := make([]string, 0, len(list))
	for _, entry := range list {
		record, ok := entry.(map[string]any)
		if !ok {
			return nil, &errors.ValidationError{
				Field:   "taskRequirements",
				Message: fmt.Sprintf("expected requirement record, got %T", entry),
			}
		}

		var id string
		if task, ok := record["task"].(map[string]any); ok {
			id, _ = task["id"].(string)
		}
		if id == "" {
			id, _ = record["id"].(string)
		}
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// requirementActive reports whether a live requirement is already marked
// active in-game. The live API carries status as a list of state names.
func requirementActive(raw any) bool {
	record, ok := raw.(map[string]any)
	if !ok {
		return false
	}
	switch status := record["status"].(type) {
	case string:
		return status == "active"
	case []any:
		for _, s := range status {
			if name, ok := s.(string); ok && name == "active" {
				return true
			}
		}
	}
	return false
}

// equalSets compares two sorted, deduplicated ID slices.
func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// render formats a value for a human-readable message, normalized so the
// same inputs always render the same bytes.
func render(value any) string {
	cv, err := canonical.FromAny(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return canonical.Normalize(cv).JSON()
}
