package reconcile

import (
	"fmt"
	"sort"
	"strings"
)

// Report groups reconciliation results into the three maintainer-facing
// buckets. Every result lands in exactly one of Fixed / RemovedFromAPI /
// (needed), and StillNeeded holds exactly the needed ones.
type Report struct {
	// Results holds every result, keyed and ordered by category then ID.
	Results map[string][]Result `json:"results"`

	StillNeeded    []Result `json:"stillNeeded"`
	Fixed          []Result `json:"fixed"`
	RemovedFromAPI []Result `json:"removedFromApi"`
}

// Categorize partitions per-category results into a report. Bucket order
// follows category name then entity ID, so reports are reproducible.
func Categorize(results map[string][]Result) *Report {
	report := &Report{Results: results}

	categories := make([]string, 0, len(results))
	for name := range results {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	for _, name := range categories {
		for _, result := range results[name] {
			switch {
			case result.StillNeeded:
				report.StillNeeded = append(report.StillNeeded, result)
			case result.Status == StatusRemoved:
				report.RemovedFromAPI = append(report.RemovedFromAPI, result)
			default:
				report.Fixed = append(report.Fixed, result)
			}
		}
	}
	return report
}

// Filter returns a report limited to categories whose name matches
// category, including game-mode subtrees ("pve/tasks" matches "tasks").
func (r *Report) Filter(category string) *Report {
	filtered := make(map[string][]Result)
	for name, results := range r.Results {
		base := name
		if i := strings.LastIndex(name, "/"); i >= 0 {
			base = name[i+1:]
		}
		if base == category {
			filtered[name] = results
		}
	}
	return Categorize(filtered)
}

// Total returns the number of reconciled entries.
func (r *Report) Total() int {
	return len(r.StillNeeded) + len(r.Fixed) + len(r.RemovedFromAPI)
}

// Summary returns a one-line human-readable overview.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d corrections checked: %d still needed, %d fixed upstream, %d removed from API",
		r.Total(), len(r.StillNeeded), len(r.Fixed), len(r.RemovedFromAPI))
}
