package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"grasprl/internal/config"
	"grasprl/pkg/grasprl"
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render a PNG chart of a run",
		Long: `Render episode returns (--kind returns) or per-step cumulative reward
curves (--kind cumulative) for a run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run-id")
			latest, _ := cmd.Flags().GetBool("latest")
			kind, _ := cmd.Flags().GetString("kind")
			outPath, _ := cmd.Flags().GetString("out")
			return withClient(cmd, func(_ *config.Config, client *grasprl.Client) error {
				path, err := client.Plot(cmd.Context(), grasprl.PlotRequest{
					RunID:  runID,
					Latest: latest,
					Kind:   kind,
					Out:    outPath,
				})
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return writeJSON(cmd.OutOrStdout(), map[string]string{"path": path})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "plot=%s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().String("run-id", "", "Run identifier")
	cmd.Flags().Bool("latest", false, "Use the most recent run")
	cmd.Flags().String("kind", "returns", "Chart kind: returns|cumulative")
	cmd.Flags().String("out", "", "Output PNG path (defaults inside the run directory)")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifacts to an export directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run-id")
			latest, _ := cmd.Flags().GetBool("latest")
			outDir, _ := cmd.Flags().GetString("out")
			return withClient(cmd, func(_ *config.Config, client *grasprl.Client) error {
				exported, err := client.Export(cmd.Context(), grasprl.ExportRequest{
					RunID:  runID,
					Latest: latest,
					OutDir: outDir,
				})
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return writeJSON(cmd.OutOrStdout(), exported)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
				return nil
			})
		},
	}
	cmd.Flags().String("run-id", "", "Run identifier")
	cmd.Flags().Bool("latest", false, "Use the most recent run")
	cmd.Flags().String("out", "exports", "Export directory")
	return cmd
}
