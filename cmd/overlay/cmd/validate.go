package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarkovhub/overlay/internal/cmdutil"
	"github.com/tarkovhub/overlay/internal/schema"
)

func invalidCount(results []schema.FileResult) int {
	n := 0
	for _, result := range results {
		if !result.Valid {
			n++
		}
	}
	return n
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the overlay source files against their schemas",
		Long: `Validate parses every overlay source file and checks it against the
overrides or additions JSON schema. The command fails if any file is
malformed or violates its schema.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			results, err := client.Validate()
			if err != nil {
				return err
			}
			if !cmdutil.PrintValidation(cmd.OutOrStdout(), results, noColor()) {
				return fmt.Errorf("%d of %d files failed validation", invalidCount(results), len(results))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d files valid\n", len(results))
			return nil
		},
	}
}
