package reconcile

import (
	"fmt"

	"github.com/tarkovhub/overlay/pkg/apply"
	"github.com/tarkovhub/overlay/pkg/overlays"
)

// Addition reconciles one declared top-level addition against the live
// entity list: has the source system caught up and defined the same
// thing natively?
//
// Matching is by ID first, then by name or description text. A single
// text match means the addition is obsolete; several text matches are
// ambiguous and surfaced for human review rather than auto-resolved.
func Addition(id string, addition overlays.Addition, live []apply.Entity) Result {
	name := addition.Name()

	for _, entity := range live {
		if entity.ID() == id {
			return finalize(id, name, []Detail{{
				Field:   "entity",
				Status:  DetailFixed,
				Message: "live data now defines this entity; delete the addition",
			}})
		}
	}

	matches := 0
	for _, entity := range live {
		if textMatches(addition, entity) {
			matches++
		}
	}

	switch {
	case matches == 1:
		return finalize(id, name, []Detail{{
			Field:   "entity",
			Status:  DetailFixed,
			Message: "live data defines an entity with the same name; delete the addition or align its ID",
		}})
	case matches > 1:
		return finalize(id, name, []Detail{{
			Field:   "entity",
			Status:  DetailCheck,
			Message: fmt.Sprintf("addition matches %d live entities by name; needs human review", matches),
		}})
	default:
		return finalize(id, name, []Detail{{
			Field:   "entity",
			Status:  DetailNeeded,
			Message: "live data still lacks this entity",
		}})
	}
}

// textMatches reports whether an addition and a live entity share a
// non-empty name or description.
func textMatches(addition overlays.Addition, entity apply.Entity) bool {
	if name := addition.Name(); name != "" && name == entity.Name() {
		return true
	}
	if desc := addition.Description(); desc != "" {
		if liveDesc, ok := entity["description"].(string); ok && desc == liveDesc {
			return true
		}
	}
	return false
}
