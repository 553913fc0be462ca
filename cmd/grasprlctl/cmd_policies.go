package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"grasprl/internal/config"
	"grasprl/internal/model"
	"grasprl/internal/reward"
	"grasprl/pkg/grasprl"
)

func newPoliciesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "List or show reward policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(_ *config.Config, client *grasprl.Client) error {
				policies := client.Policies()
				out := cmd.OutOrStdout()
				if jsonOutput(cmd) {
					return writeJSON(out, policies)
				}
				for _, p := range policies {
					fmt.Fprintf(out, "%s classes=%d\n", p.Name, len(p.Classes))
					policy := reward.Policy{Name: p.Name, Classes: p.Classes}
					for _, class := range policy.SortedClasses() {
						params := p.Classes[class]
						fmt.Fprintf(out, "  %s immediate=%g continuous_rate=%g release_penalty=%g\n",
							class, params.Immediate, params.ContinuousRate, params.ReleasePenalty)
					}
				}
				return nil
			})
		},
	}
	cmd.AddCommand(newPolicyShowCmd())
	return cmd
}

func newPolicyShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Print a reward policy as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			if name == "" && file == "" {
				return fmt.Errorf("policy name or --file is required")
			}
			return withClient(cmd, func(_ *config.Config, client *grasprl.Client) error {
				policy, err := client.Policy(name, file)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return writeJSON(cmd.OutOrStdout(), grasprl.PolicyItem{Name: policy.Name, Classes: policy.Classes})
				}
				return reward.Encode(cmd.OutOrStdout(), policy)
			})
		},
	}
	cmd.Flags().String("file", "", "YAML policy file to load instead of a registered name")
	return cmd
}

func newMorphologiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "morphologies",
		Short: "List built-in hand morphologies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(_ *config.Config, client *grasprl.Client) error {
				items, err := client.Morphologies()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput(cmd) {
					return writeJSON(out, items)
				}
				for _, item := range items {
					fmt.Fprintf(out, "%s profile=%s segments=%d classes=%s\n",
						item.Name, item.Profile, len(item.Segments), joinClasses(item.Segments))
				}
				return nil
			})
		},
	}
}

// joinClasses lists the distinct classes of segments in first-seen order.
func joinClasses(segments []model.Segment) string {
	seen := make(map[model.SegmentClass]bool, len(segments))
	names := make([]string, 0, len(segments))
	for _, segment := range segments {
		if seen[segment.Class] {
			continue
		}
		seen[segment.Class] = true
		names = append(names, segment.Class.String())
	}
	return strings.Join(names, ",")
}
