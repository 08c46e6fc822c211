// Package cmdutil renders reconciliation reports and validation results
// for the terminal.
package cmdutil

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tarkovhub/overlay/internal/schema"
	"github.com/tarkovhub/overlay/pkg/reconcile"
)

// PrintReport writes a reconciliation report as tables, one per bucket.
func PrintReport(w io.Writer, report *reconcile.Report, noColor bool) {
	printBucket(w, "Still needed", report.StillNeeded, text.FgRed, noColor)
	printBucket(w, "Fixed upstream", report.Fixed, text.FgGreen, noColor)
	printBucket(w, "Removed from API", report.RemovedFromAPI, text.FgYellow, noColor)
	fmt.Fprintln(w, report.Summary())
}

// PrintReportJSON writes the report as indented JSON.
func PrintReportJSON(w io.Writer, report *reconcile.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func printBucket(w io.Writer, title string, results []reconcile.Result, color text.Color, noColor bool) {
	if len(results) == 0 {
		return
	}

	heading := fmt.Sprintf("%s (%d)", title, len(results))
	if !noColor {
		heading = color.Sprint(heading)
	}
	fmt.Fprintln(w, heading)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Name", "Field", "Status", "Message"})
	for _, result := range results {
		for i, detail := range result.Details {
			id, name := result.ID, result.Name
			if i > 0 {
				id, name = "", ""
			}
			tw.AppendRow(table.Row{id, name, detail.Field, detail.Status, detail.Message})
		}
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()
	fmt.Fprintln(w)
}

// PrintValidation writes per-file schema results and returns whether
// every file passed.
func PrintValidation(w io.Writer, results []schema.FileResult, noColor bool) bool {
	allValid := true
	for _, result := range results {
		if result.Valid {
			status := "ok"
			if !noColor {
				status = text.FgGreen.Sprint(status)
			}
			fmt.Fprintf(w, "%s  %s\n", status, result.File)
			continue
		}

		allValid = false
		status := "FAIL"
		if !noColor {
			status = text.FgRed.Sprint(status)
		}
		fmt.Fprintf(w, "%s %s (%s)\n", status, result.File, result.Schema)
		for _, finding := range result.Findings {
			fmt.Fprintf(w, "     %s: %s\n", finding.Path, finding.Message)
		}
	}
	return allValid
}
