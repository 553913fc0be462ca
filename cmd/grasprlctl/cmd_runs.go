package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"grasprl/internal/config"
	"grasprl/pkg/grasprl"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withClient(cmd, func(_ *config.Config, client *grasprl.Client) error {
				runs, err := client.Runs(cmd.Context(), grasprl.RunsRequest{Limit: limit})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput(cmd) {
					return writeJSON(out, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "no runs")
					return nil
				}
				for _, run := range runs {
					fmt.Fprintf(out, "%s created=%s policy=%s mode=%s episodes=%d mean_return=%.6f source=%s\n",
						run.RunID, run.CreatedAtUTC, run.Policy, run.Mode, run.Episodes, run.MeanReturn, run.Source)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum runs to list")
	return cmd
}

func newEpisodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "Show per-episode results of a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run-id")
			latest, _ := cmd.Flags().GetBool("latest")
			return withClient(cmd, func(_ *config.Config, client *grasprl.Client) error {
				episodes, err := client.Episodes(cmd.Context(), grasprl.EpisodesRequest{RunID: runID, Latest: latest})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput(cmd) {
					return writeJSON(out, episodes)
				}
				for _, ep := range episodes {
					printEpisode(out, ep)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("run-id", "", "Run identifier")
	cmd.Flags().Bool("latest", false, "Use the most recent run")
	return cmd
}

func newRewardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Show the per-step rewards of one episode",
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run-id")
			latest, _ := cmd.Flags().GetBool("latest")
			episodeID, _ := cmd.Flags().GetString("episode")
			return withClient(cmd, func(_ *config.Config, client *grasprl.Client) error {
				rewards, err := client.StepRewards(cmd.Context(), grasprl.StepRewardsRequest{
					RunID:     runID,
					Latest:    latest,
					EpisodeID: episodeID,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput(cmd) {
					return writeJSON(out, rewards)
				}
				total := 0.0
				for i, r := range rewards {
					total += r
					fmt.Fprintf(out, "step=%d reward=%.9f return=%.9f\n", i+1, r, total)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("run-id", "", "Run identifier")
	cmd.Flags().Bool("latest", false, "Use the most recent run")
	cmd.Flags().String("episode", "", "Episode identifier")
	return cmd
}
