// Package cmd implements the overlay CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tarkovhub/overlay"
	"github.com/tarkovhub/overlay/pkg/logging"
)

var (
	versionString = "dev"
	commitString  = "unknown"
	dateString    = "unknown"
)

// SetVersionInfo records the build metadata shown by the version
// command.
func SetVersionInfo(version, commit, date string) {
	versionString = version
	commitString = commit
	dateString = date
}

// Execute runs the CLI with the given arguments.
func Execute(ctx context.Context, args []string) error {
	rootCmd := newRootCommand()
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "overlay",
		Short:   "Community game-data overlay toolkit",
		Version: versionString,
		Long: `Overlay maintains a community-curated set of corrections and
additions to tarkov.dev game data.

It validates the JSON5 source files, merges them into a hash-stamped
artifact, applies the corrections to live entities, and reconciles
every override against the upstream API to find ones that are still
needed, fixed upstream, or stale.`,
		PersistentPreRunE: setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().String("dir", "overlays", "directory holding the overlay source files")
	rootCmd.PersistentFlags().String("snapshot", "", "path to the snapshot cache database")
	rootCmd.PersistentFlags().Duration("max-age", 0, "oldest snapshot the cache may serve (0 accepts any)")
	rootCmd.PersistentFlags().Bool("offline", false, "serve live data from the snapshot cache only")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides -v/-q)")
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.overlay.yaml)")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("binding flags: %v", err))
	}
	rootCmd.SetVersionTemplate("overlay {{.Version}}\n")

	rootCmd.AddCommand(
		newBuildCommand(),
		newValidateCommand(),
		newCheckCommand(),
		newApplyCommand(),
		newServeCommand(),
		newVersionCommand(),
	)
	return rootCmd
}

// setup runs before every command: env files, config file, logging.
func setup(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	viper.SetEnvPrefix("OVERLAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".overlay")
		_ = viper.ReadInConfig()
	}

	switch {
	case viper.GetString("log-level") != "":
		level, err := zerolog.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", viper.GetString("log-level"), err)
		}
		logging.SetLevel(level)
	case viper.GetBool("verbose"):
		logging.SetLevel(zerolog.DebugLevel)
	case viper.GetBool("quiet"):
		logging.SetLevel(zerolog.WarnLevel)
	}
	return nil
}

func noColor() bool {
	return viper.GetBool("no-color")
}

// newClient builds the overlay client from the resolved configuration.
func newClient(extra ...overlay.Option) (*overlay.Client, error) {
	opts := []overlay.Option{
		overlay.WithDir(viper.GetString("dir")),
	}
	if path := viper.GetString("snapshot"); path != "" {
		opts = append(opts, overlay.WithSnapshot(path, viper.GetDuration("max-age")))
	}
	if viper.GetBool("offline") {
		opts = append(opts, overlay.WithOffline(true))
	}
	opts = append(opts, extra...)
	return overlay.New(opts...)
}

func commandTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 2*time.Minute)
}
