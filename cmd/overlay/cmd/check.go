package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tarkovhub/overlay/internal/cmdutil"
)

func newCheckCommand() *cobra.Command {
	var (
		mode     string
		asJSON   bool
		category string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Reconcile every correction against live data",
		Long: `Check fetches current game data and compares every override and
addition against it. Corrections whose live values already match are
reported as fixed upstream; entities the API no longer returns are
reported as removed.

The command exits non-zero only on hard errors. Corrections that are
still needed are expected and reported, not failed on.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := commandTimeout(cmd.Context())
			defer cancel()

			report, err := client.Check(ctx, mode)
			if err != nil {
				return err
			}
			if category != "" {
				report = report.Filter(category)
			}
			if asJSON {
				return cmdutil.PrintReportJSON(cmd.OutOrStdout(), report)
			}
			cmdutil.PrintReport(cmd.OutOrStdout(), report, noColor())
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "limit the check to one game mode's overlay")
	cmd.Flags().StringVar(&category, "category", "", "limit the report to one category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")
	return cmd
}
