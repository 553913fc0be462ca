package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"grasprl/internal/config"
	"grasprl/pkg/grasprl"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <recording.jsonl>",
		Short: "Score a recorded contact stream",
		Long: `Replay every episode in a JSON-lines contact recording through the
contact trackers and persist the returns as a new run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(cfg *config.Config, client *grasprl.Client) error {
				req := grasprl.ReplayRequest{
					Path:       args[0],
					Policy:     cfg.Replay.Policy,
					PolicyFile: cfg.Replay.PolicyFile,
					Morphology: cfg.Replay.Morphology,
					TargetTag:  cfg.Replay.TargetTag,
					Mode:       cfg.Replay.Mode,
					MaxSteps:   cfg.Replay.MaxSteps,

					MorphologyFile: cfg.Replay.MorphologyFile,
				}
				flags := cmd.Flags()
				if flags.Changed("policy") {
					req.Policy, _ = flags.GetString("policy")
					req.PolicyFile = ""
				}
				if flags.Changed("policy-file") {
					req.PolicyFile, _ = flags.GetString("policy-file")
				}
				if flags.Changed("morphology") {
					req.Morphology, _ = flags.GetString("morphology")
					req.MorphologyFile = ""
				}
				if flags.Changed("morphology-file") {
					req.MorphologyFile, _ = flags.GetString("morphology-file")
				}
				if flags.Changed("target") {
					req.TargetTag, _ = flags.GetString("target")
				}
				if flags.Changed("mode") {
					req.Mode, _ = flags.GetString("mode")
				}
				if flags.Changed("max-steps") {
					req.MaxSteps, _ = flags.GetInt("max-steps")
				}
				req.Workers, _ = flags.GetInt("workers")
				req.RunID, _ = flags.GetString("run-id")

				summary, err := client.Replay(cmd.Context(), req)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput(cmd) {
					return writeJSON(out, summary)
				}
				fmt.Fprintf(out, "run_id=%s policy=%s morphology=%s episodes=%d\n",
					summary.RunID, summary.Policy, summary.Morphology, summary.Summary.Episodes)
				fmt.Fprintf(out, "observation_layout=%s\n", strings.Join(summary.ObservationLayout, ","))
				for _, ep := range summary.Episodes {
					printEpisode(out, ep)
				}
				fmt.Fprintf(out, "mean_return=%.6f std_dev=%.6f min=%.6f max=%.6f\n",
					summary.Summary.Mean, summary.Summary.StdDev, summary.Summary.Min, summary.Summary.Max)
				fmt.Fprintf(out, "artifacts=%s\n", summary.ArtifactsDir)
				return nil
			})
		},
	}

	cmd.Flags().String("policy", "", "Registered reward policy name")
	cmd.Flags().String("policy-file", "", "YAML reward policy file")
	cmd.Flags().String("morphology", "", "Hand morphology name")
	cmd.Flags().String("morphology-file", "", "YAML segment topology file")
	cmd.Flags().String("target", "", "Target object tag (* accepts any)")
	cmd.Flags().String("mode", "", "Evaluation mode: gt|validation|test|benchmark")
	cmd.Flags().Int("max-steps", 0, "Per-episode step cap (0 keeps the mode default)")
	cmd.Flags().Int("workers", 4, "Episodes scored concurrently")
	cmd.Flags().String("run-id", "", "Run identifier (generated when empty)")
	return cmd
}

func printEpisode(out io.Writer, ep grasprl.EpisodeResult) {
	fmt.Fprintf(out, "episode=%s steps=%d sim_time=%.3f return=%.6f touches=%d releases=%d dropped=%d contact=%v observation=%v\n",
		ep.EpisodeID, ep.Steps, ep.SimTime, ep.Return, ep.Touches, ep.Releases, ep.Dropped, ep.ContactFlags, ep.Observation)
}
