package scape

import "context"

type Fitness float64

type Trace map[string]any

type Agent interface {
	ID() string
}

// ContactSource is an agent whose behaviour reaches the scape as a stream of
// per-physics-step contact reports. ok is false once the episode has ended.
type ContactSource interface {
	Agent
	NextStep(ctx context.Context) (report StepReport, ok bool, err error)
}

type Scape interface {
	Name() string
	Evaluate(ctx context.Context, agent Agent) (Fitness, Trace, error)
}

// ModeAwareScape optionally exposes evaluation mode routing for gt/validation/test flows.
type ModeAwareScape interface {
	Scape
	EvaluateMode(ctx context.Context, agent Agent, mode string) (Fitness, Trace, error)
}
