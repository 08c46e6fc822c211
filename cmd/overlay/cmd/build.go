package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tarkovhub/overlay/pkg/logging"
	"github.com/tarkovhub/overlay/pkg/overlays"
)

func newBuildCommand() *cobra.Command {
	var (
		out     string
		release string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Merge the overlay sources into the distributable artifact",
		Long: `Build parses every overlay source file, merges overrides and
additions per category, and writes a single JSON artifact stamped with
a version, generation timestamp, and content hash.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if release == "" {
				release = versionString
			}
			artifact, err := client.Build(release)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(out, artifact, 0o644); err != nil {
				return err
			}

			meta, err := overlays.Verify(artifact)
			if err != nil {
				return err
			}
			o, err := client.Load()
			if err != nil {
				return err
			}
			stats := o.Stats()
			logging.Info().
				Str("path", out).
				Str("sha256", meta.SHA256).
				Int("overrides", stats.Overrides).
				Int("additions", stats.Additions).
				Msg("artifact written")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d overrides, %d additions, sha256 %s)\n",
				out, stats.Overrides, stats.Additions, meta.SHA256)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", filepath.Join("dist", "overlay.json"), "output path for the artifact")
	cmd.Flags().StringVar(&release, "release", "", "version stamped into the artifact (default: CLI version)")
	return cmd
}
