package scape

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"grasprl/internal/contact"
	protoio "grasprl/internal/io"
	"grasprl/internal/model"
	"grasprl/internal/morphology"
	"grasprl/internal/reward"
)

// DefaultTargetTag is the tag carried by the object the hand is meant to grasp.
const DefaultTargetTag = "Cylinder"

var ErrInvalidEpisode = errors.New("invalid episode configuration")

type EpisodeConfig struct {
	Morphology morphology.Morphology
	Policy     reward.Policy
	// TargetTag filters events by the Other field. Empty uses DefaultTargetTag;
	// "*" accepts every body.
	TargetTag string
	// Observation, when set, receives the contact flags after every step.
	Observation protoio.VectorSensorSetter
	Logger      *slog.Logger
}

// StepResult is the outcome of one physics step. Observation aliases an
// internal buffer and is only valid until the next call to Step.
type StepResult struct {
	Reward      float64
	Return      float64
	Observation []float64
	Dropped     int
}

// EpisodeStats are running counters for the current episode.
type EpisodeStats struct {
	Steps          int
	SimTime        float64
	Return         float64
	Touches        int
	Releases       int
	Dropped        int
	SegmentTouches map[string]int
}

// Episode owns one tracker per segment and turns physics step reports into
// scalar rewards. It is not safe for concurrent use.
type Episode struct {
	bank      *contact.Bank
	params    []reward.Params
	targetTag string
	sink      protoio.VectorSensorSetter
	logger    *slog.Logger
	policy    string

	obs      []float64
	ret      float64
	steps    int
	simTime  float64
	touches  []int
	releases int
	dropped  int
}

func NewEpisode(cfg EpisodeConfig) (*Episode, error) {
	if cfg.Morphology == nil {
		return nil, fmt.Errorf("%w: morphology is required", ErrInvalidEpisode)
	}
	if err := morphology.EnsurePolicyCompatibility(cfg.Morphology, cfg.Policy); err != nil {
		return nil, err
	}
	bank, err := contact.NewBank(cfg.Morphology.Segments())
	if err != nil {
		return nil, err
	}

	params := make([]reward.Params, bank.Len())
	for i, segment := range bank.Segments() {
		p, ok := cfg.Policy.Params(segment.Class)
		if !ok {
			return nil, fmt.Errorf("%w: policy=%s class=%s", reward.ErrClassMissing, cfg.Policy.Name, segment.Class)
		}
		params[i] = p
	}

	target := cfg.TargetTag
	if target == "" {
		target = DefaultTargetTag
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}

	ep := &Episode{
		bank:      bank,
		params:    params,
		targetTag: target,
		sink:      cfg.Observation,
		logger:    logger,
		policy:    cfg.Policy.Name,
		obs:       make([]float64, 0, bank.Len()),
		touches:   make([]int, bank.Len()),
	}
	ep.Reset()
	return ep, nil
}

// Reset starts a new episode. Every segment returns to idle and the running
// counters are cleared.
func (e *Episode) Reset() {
	e.bank.ResetAll()
	e.ret = 0
	e.steps = 0
	e.simTime = 0
	e.releases = 0
	e.dropped = 0
	for i := range e.touches {
		e.touches[i] = 0
	}
	e.publish()
}

// Step applies one physics step. Every tracker is opened for the step before
// any event is applied. Begin and stay events are applied before exit events,
// each group in report order, so the outcome does not depend on how the
// physics layer happened to list the contact pairs.
func (e *Episode) Step(report StepReport) StepResult {
	e.bank.BeginStepAll()

	total := 0.0
	dropped := 0
	for _, ev := range report.Events {
		id, ok := e.resolve(ev, true)
		if !ok {
			dropped++
			continue
		}
		switch {
		case ev.Kind.Touching():
			p := e.params[id]
			if !e.bank.InContact(id) {
				e.touches[id]++
			}
			total += e.bank.Contact(id, p.Immediate, p.Continuous(report.DT))
		case ev.Kind == ContactExit:
		default:
			dropped++
		}
	}
	for _, ev := range report.Events {
		if ev.Kind != ContactExit {
			continue
		}
		id, ok := e.resolve(ev, false)
		if !ok {
			continue
		}
		if e.bank.InContact(id) {
			e.releases++
		}
		total += e.bank.Release(id, e.params[id].ReleasePenalty)
	}

	e.ret += total
	e.steps++
	e.simTime += report.DT
	e.dropped += dropped
	e.publish()
	return StepResult{Reward: total, Return: e.ret, Observation: e.obs, Dropped: dropped}
}

// resolve maps an event to its tracker. Events against a body other than the
// target or naming an unknown segment do not resolve.
func (e *Episode) resolve(ev ContactEvent, logUnknown bool) (contact.SegmentID, bool) {
	if !e.acceptsOther(ev.Other) {
		return 0, false
	}
	id, ok := e.bank.Resolve(ev.Segment)
	if !ok && logUnknown {
		e.logger.Debug("unknown segment", "segment", ev.Segment, "kind", ev.Kind.String())
	}
	return id, ok
}

func (e *Episode) acceptsOther(other string) bool {
	return e.targetTag == "*" || other == e.targetTag
}

func (e *Episode) publish() {
	e.obs = e.bank.Observation(e.obs)
	if e.sink != nil {
		e.sink.Set(e.obs)
	}
}

func (e *Episode) Return() float64 {
	return e.ret
}

// Observation copies the per-segment contact flags into dst.
func (e *Episode) Observation(dst []float64) []float64 {
	return append(dst[:0], e.obs...)
}

func (e *Episode) Segments() []model.Segment {
	return e.bank.Segments()
}

func (e *Episode) PolicyName() string {
	return e.policy
}

func (e *Episode) TargetTag() string {
	return e.targetTag
}

func (e *Episode) Stats() EpisodeStats {
	stats := EpisodeStats{
		Steps:          e.steps,
		SimTime:        e.simTime,
		Return:         e.ret,
		Releases:       e.releases,
		Dropped:        e.dropped,
		SegmentTouches: make(map[string]int, len(e.touches)),
	}
	segments := e.bank.Segments()
	for i, n := range e.touches {
		stats.Touches += n
		stats.SegmentTouches[segments[i].Name] = n
	}
	return stats
}
