package scape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"grasprl/internal/morphology"
	"grasprl/internal/reward"
)

const GraspScapeName = "grasp"

// GraspScape scores a contact stream against a reward policy for one hand
// morphology. The agent must implement ContactSource.
type GraspScape struct {
	Morphology morphology.Morphology
	Policy     reward.Policy
	TargetTag  string
	Logger     *slog.Logger
}

func NewGraspScape(m morphology.Morphology, policy reward.Policy) (GraspScape, error) {
	if m == nil {
		return GraspScape{}, fmt.Errorf("%w: morphology is required", ErrInvalidEpisode)
	}
	if !m.Compatible(GraspScapeName) {
		return GraspScape{}, fmt.Errorf("morphology %s is not compatible with scape %s", m.Name(), GraspScapeName)
	}
	if err := morphology.ValidateRegisteredComponents(GraspScapeName, m); err != nil {
		return GraspScape{}, err
	}
	if err := morphology.EnsurePolicyCompatibility(m, policy); err != nil {
		return GraspScape{}, err
	}
	return GraspScape{Morphology: m, Policy: policy}, nil
}

func (GraspScape) Name() string {
	return GraspScapeName
}

func (s GraspScape) Evaluate(ctx context.Context, agent Agent) (Fitness, Trace, error) {
	return s.EvaluateMode(ctx, agent, "gt")
}

func (s GraspScape) EvaluateMode(ctx context.Context, agent Agent, mode string) (Fitness, Trace, error) {
	cfg, err := graspConfigForMode(mode)
	if err != nil {
		return 0, nil, err
	}
	if limit, ok := stepLimitFromContext(ctx); ok {
		cfg.maxSteps = limit
	}
	source, ok := agent.(ContactSource)
	if !ok {
		return 0, nil, fmt.Errorf("agent %s does not implement contact source", agent.ID())
	}

	obs, err := newObservation(s.Morphology)
	if err != nil {
		return 0, nil, err
	}
	episode, err := NewEpisode(EpisodeConfig{
		Morphology:  s.Morphology,
		Policy:      s.Policy,
		TargetTag:   s.TargetTag,
		Observation: obs.contact,
		Logger:      s.Logger,
	})
	if err != nil {
		return 0, nil, err
	}

	stepRewards := make([]float64, 0, 256)
	truncated := false
	for {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		if cfg.maxSteps > 0 && len(stepRewards) >= cfg.maxSteps {
			truncated = true
			break
		}
		report, ok, err := source.NextStep(ctx)
		if err != nil {
			return 0, nil, fmt.Errorf("agent %s next step: %w", agent.ID(), err)
		}
		if !ok {
			break
		}
		if report.DT < 0 {
			return 0, nil, fmt.Errorf("agent %s reported negative step duration %g", agent.ID(), report.DT)
		}
		obs.setKinematics(report)
		result := episode.Step(report)
		stepRewards = append(stepRewards, result.Reward)
	}

	observation, err := obs.read(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("agent %s observation: %w", agent.ID(), err)
	}

	stats := episode.Stats()
	return Fitness(stats.Return), Trace{
		"return":          stats.Return,
		"steps":           stats.Steps,
		"sim_time":        stats.SimTime,
		"touches":         stats.Touches,
		"releases":        stats.Releases,
		"dropped":         stats.Dropped,
		"segment_touches": stats.SegmentTouches,
		"step_rewards":    stepRewards,
		"truncated":       truncated,
		"mode":            cfg.mode,
		"max_steps":       cfg.maxSteps,
		"policy":          episode.PolicyName(),
		"morphology":      s.Morphology.Name(),
		"target_tag":      episode.TargetTag(),
		// observation is the final reading of every morphology sensor, laid
		// out in observation_layout order.
		"observation":        observation,
		"observation_layout": obs.layout,
		"contact_flags":      episode.Observation(nil),
	}, nil
}

type graspModeConfig struct {
	mode     string
	maxSteps int
}

func graspConfigForMode(mode string) (graspModeConfig, error) {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "gt":
		return graspModeConfig{mode: "gt", maxSteps: 5000}, nil
	case "validation":
		return graspModeConfig{mode: "validation", maxSteps: 2500}, nil
	case "test":
		return graspModeConfig{mode: "test", maxSteps: 2500}, nil
	case "benchmark":
		return graspModeConfig{mode: "benchmark", maxSteps: 0}, nil
	default:
		return graspModeConfig{}, fmt.Errorf("unsupported grasp mode: %s", mode)
	}
}

type stepLimitContextKey struct{}

// WithStepLimit returns a context overriding the per-mode step cap. Zero
// removes the cap.
func WithStepLimit(ctx context.Context, maxSteps int) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxSteps < 0 {
		return nil, fmt.Errorf("step limit must be >= 0, got %d", maxSteps)
	}
	return context.WithValue(ctx, stepLimitContextKey{}, maxSteps), nil
}

func stepLimitFromContext(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	limit, ok := ctx.Value(stepLimitContextKey{}).(int)
	return limit, ok
}
