package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"grasprl/internal/config"
	"grasprl/internal/logging"
	"grasprl/pkg/grasprl"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "grasprlctl",
		Short: "Score recorded grasp contact streams against reward policies",
		Long: `grasprlctl replays recorded hand/object contact events through the
contact-reward trackers and stores per-episode returns.

Settings come from grasprl.yaml (or --config), GRASPRL_* environment
variables, then command-line flags.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("store", "", "Store backend: memory|sqlite")
	rootCmd.PersistentFlags().String("db-path", "", "SQLite database path")
	rootCmd.PersistentFlags().String("artifacts-dir", "", "Run artifacts directory")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace|debug|info|warn|error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newReplayCmd(),
		newRunsCmd(),
		newEpisodesCmd(),
		newRewardsCmd(),
		newPoliciesCmd(),
		newMorphologiesCmd(),
		newPlotCmd(),
		newExportCmd(),
	)
	return rootCmd
}

// loadConfig resolves the layered config and applies any persistent flag
// overrides the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("store") {
		cfg.Storage.Kind, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("db-path") {
		cfg.Storage.DBPath, _ = cmd.Flags().GetString("db-path")
	}
	if cmd.Flags().Changed("artifacts-dir") {
		cfg.Storage.ArtifactsDir, _ = cmd.Flags().GetString("artifacts-dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newClient(cmd *cobra.Command, cfg *config.Config) (*grasprl.Client, error) {
	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	return grasprl.New(grasprl.Options{
		StoreKind:    cfg.Storage.Kind,
		DBPath:       cfg.Storage.DBPath,
		ArtifactsDir: cfg.Storage.ArtifactsDir,
		Logger:       logger,
	})
}

// withClient loads config, opens a client, and closes it after fn returns.
func withClient(cmd *cobra.Command, fn func(*config.Config, *grasprl.Client) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newClient(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	return fn(cfg, client)
}

func jsonOutput(cmd *cobra.Command) bool {
	jsonOut, _ := cmd.Flags().GetBool("json")
	return jsonOut
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
