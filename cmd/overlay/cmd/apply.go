package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newApplyCommand() *cobra.Command {
	var (
		mode string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "apply <category>",
		Short: "Apply the overlay's corrections to live entities",
		Long: `Apply fetches the live entities of one category, replaces the fields
every override declares, merges objective patches, appends additions,
and drops disabled entities. The corrected entities are emitted as
JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := commandTimeout(cmd.Context())
			defer cancel()

			entities, err := client.Apply(ctx, args[0], mode)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(entities)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "game mode whose overlay to apply")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the corrected entities to a file instead of stdout")
	return cmd
}
