// Package reconcile compares declared overlay corrections against current
// live API data and classifies each one: still needed, already fixed
// upstream, or orphaned because the entity left the API. Maintainers use
// the resulting report to decide which overlay entries to keep.
//
// Reconciliation is pure: it consumes a fully-materialized snapshot of
// live entities plus the overlay, and produces a fresh report. Given
// identical inputs the report is byte-identical, which CI gating relies
// on.
package reconcile

import (
	"fmt"

	"github.com/tarkovhub/overlay/pkg/apply"
	"github.com/tarkovhub/overlay/pkg/overlays"
)

// DetailStatus classifies one field-level finding.
type DetailStatus string

// Detail statuses.
const (
	// DetailFixed means the override's claim now matches live data; the
	// override is obsolete.
	DetailFixed DetailStatus = "fixed"

	// DetailNeeded means the override's claim is still required.
	DetailNeeded DetailStatus = "needed"

	// DetailCheck means the finding is ambiguous and needs human
	// judgment.
	DetailCheck DetailStatus = "check"

	// DetailInfo is descriptive and non-actionable.
	DetailInfo DetailStatus = "info"
)

// Status classifies one entity's overall reconciliation outcome.
type Status string

// Entity statuses.
const (
	StatusNeeded  Status = "NEEDED"
	StatusFixed   Status = "FIXED"
	StatusRemoved Status = "REMOVED_FROM_API"
)

// Detail is one field-level finding.
type Detail struct {
	Field   string       `json:"field"`
	Status  DetailStatus `json:"status"`
	Message string       `json:"message"`
}

// Result is one entity's full reconciliation.
//
// Invariant: Status is StatusRemoved iff the entity is absent from live
// data or explicitly disabled; otherwise Status is StatusNeeded iff any
// detail is needed or check, else StatusFixed. StillNeeded is true
// exactly when Status is StatusNeeded.
type Result struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Status      Status   `json:"status"`
	StillNeeded bool     `json:"stillNeeded"`
	Details     []Detail `json:"details"`
}

// Override reconciles one declared override against the live entity set.
func Override(id string, patch *overlays.Patch, live map[string]apply.Entity) (Result, error) {
	entity, ok := live[id]
	if !ok {
		return Result{
			ID:     id,
			Name:   overrideName(patch),
			Status: StatusRemoved,
			Details: []Detail{{
				Field:   "entity",
				Status:  DetailInfo,
				Message: "entity no longer exists in live data; remove this override",
			}},
		}, nil
	}

	if patch.Disabled {
		return Result{
			ID:     id,
			Name:   entity.Name(),
			Status: StatusRemoved,
			Details: []Detail{{
				Field:   "entity",
				Status:  DetailInfo,
				Message: "override is disabled; remove this entry",
			}},
		}, nil
	}

	var details []Detail
	for _, validator := range fieldValidators {
		found, err := validator.validate(patch, entity)
		if err != nil {
			return Result{}, fmt.Errorf("entity %s: field %s: %w", id, validator.field, err)
		}
		details = append(details, found...)
	}

	objectiveDetails, err := validateObjectives(patch, entity)
	if err != nil {
		return Result{}, fmt.Errorf("entity %s: %w", id, err)
	}
	details = append(details, objectiveDetails...)

	addedDetails, err := validateObjectivesAdd(patch, entity)
	if err != nil {
		return Result{}, fmt.Errorf("entity %s: %w", id, err)
	}
	details = append(details, addedDetails...)

	return finalize(id, entity.Name(), details), nil
}

// Category reconciles every override and addition in a category against
// the live entity list, in sorted-ID order.
func Category(cat *overlays.Category, live []apply.Entity) ([]Result, error) {
	byID := make(map[string]apply.Entity, len(live))
	for _, entity := range live {
		byID[entity.ID()] = entity
	}

	results := make([]Result, 0, len(cat.Overrides)+len(cat.Additions))
	for _, id := range cat.OverrideIDs() {
		result, err := Override(id, cat.Overrides[id], byID)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	for _, id := range cat.AdditionIDs() {
		results = append(results, Addition(id, cat.Additions[id], live))
	}
	return results, nil
}

// finalize derives the aggregate status from the collected details.
func finalize(id, name string, details []Detail) Result {
	stillNeeded := false
	for _, d := range details {
		if d.Status == DetailNeeded || d.Status == DetailCheck {
			stillNeeded = true
			break
		}
	}

	status := StatusFixed
	if stillNeeded {
		status = StatusNeeded
	}

	if details == nil {
		details = []Detail{}
	}
	return Result{
		ID:          id,
		Name:        name,
		Status:      status,
		StillNeeded: stillNeeded,
		Details:     details,
	}
}

// overrideName pulls a display name out of the patch itself, for results
// about entities that no longer exist upstream.
func overrideName(patch *overlays.Patch) string {
	if patch == nil {
		return ""
	}
	if name, ok := patch.Field("name"); ok {
		if s, ok := name.(string); ok {
			return s
		}
	}
	return ""
}
