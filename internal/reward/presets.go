package reward

import "grasprl/internal/model"

const (
	BaselinePolicyName = "grasp-baseline-v1"
	ScaledPolicyName   = "grasp-scaled-v2"

	// Continuous rates in both presets are quoted per five seconds of
	// sustained contact.
	presetWindowSeconds = 5.0
)

// BaselinePolicy favours palm and thumb contact and weights fingertips lowest.
func BaselinePolicy() Policy {
	const penalty = -0.02
	return Policy{
		Name: BaselinePolicyName,
		Classes: map[model.SegmentClass]Params{
			model.ClassBaseJoint:  {Immediate: 0.15, ContinuousRate: 0.002 / presetWindowSeconds, ReleasePenalty: penalty},
			model.ClassMidJoint:   {Immediate: 0.10, ContinuousRate: 0.0015 / presetWindowSeconds, ReleasePenalty: penalty},
			model.ClassEndJoint:   {Immediate: 0.05, ContinuousRate: 0.001 / presetWindowSeconds, ReleasePenalty: penalty},
			model.ClassThumbJoint: {Immediate: 0.20, ContinuousRate: 0.0025 / presetWindowSeconds, ReleasePenalty: penalty},
			model.ClassPalm:       {Immediate: 0.25, ContinuousRate: 0.003 / presetWindowSeconds, ReleasePenalty: penalty},
		},
	}
}

// ScaledPolicy keeps the baseline ordering with a heavier continuous term and
// a much larger release penalty.
func ScaledPolicy() Policy {
	const penalty = -0.25
	return Policy{
		Name: ScaledPolicyName,
		Classes: map[model.SegmentClass]Params{
			model.ClassBaseJoint:  {Immediate: 0.15, ContinuousRate: 0.01 / presetWindowSeconds, ReleasePenalty: penalty},
			model.ClassMidJoint:   {Immediate: 0.10, ContinuousRate: 0.0075 / presetWindowSeconds, ReleasePenalty: penalty},
			model.ClassEndJoint:   {Immediate: 0.05, ContinuousRate: 0.005 / presetWindowSeconds, ReleasePenalty: penalty},
			model.ClassThumbJoint: {Immediate: 0.20, ContinuousRate: 0.0125 / presetWindowSeconds, ReleasePenalty: penalty},
			model.ClassPalm:       {Immediate: 0.25, ContinuousRate: 0.015 / presetWindowSeconds, ReleasePenalty: penalty},
		},
	}
}

func init() {
	for _, policy := range []Policy{BaselinePolicy(), ScaledPolicy()} {
		if err := Register(policy); err != nil {
			panic(err)
		}
	}
}
