package scape

import (
	"context"
	"errors"
	"testing"

	protoio "grasprl/internal/io"
	"grasprl/internal/model"
	"grasprl/internal/morphology"
	"grasprl/internal/reward"
)

type scriptedContactSource struct {
	id    string
	steps []StepReport
	next  int
	err   error
}

func (s *scriptedContactSource) ID() string {
	return s.id
}

func (s *scriptedContactSource) NextStep(_ context.Context) (StepReport, bool, error) {
	if s.err != nil {
		return StepReport{}, false, s.err
	}
	if s.next >= len(s.steps) {
		return StepReport{}, false, nil
	}
	report := s.steps[s.next]
	s.next++
	return report, true, nil
}

type idOnlyAgent string

func (a idOnlyAgent) ID() string {
	return string(a)
}

func holdPalm(steps int) []StepReport {
	out := make([]StepReport, 0, steps)
	for i := 0; i < steps; i++ {
		kind := ContactStay
		if i == 0 {
			kind = ContactBegin
		}
		out = append(out, StepReport{DT: 0.02, Events: []ContactEvent{{Segment: "Palm", Other: "Cylinder", Kind: kind}}})
	}
	return out
}

func newTestGraspScape(t *testing.T) GraspScape {
	t.Helper()
	sc, err := NewGraspScape(morphology.SixSegmentHandMorphology{}, reward.BaselinePolicy())
	if err != nil {
		t.Fatalf("new grasp scape: %v", err)
	}
	return sc
}

func TestGraspScapeEvaluateAccumulatesReturn(t *testing.T) {
	sc := newTestGraspScape(t)
	agent := &scriptedContactSource{id: "palm-hold", steps: holdPalm(10)}

	fitness, trace, err := sc.Evaluate(context.Background(), agent)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	want := 0.25 + 10*0.0006*0.02
	if !approxEqual(float64(fitness), want) {
		t.Fatalf("expected fitness %.9f, got %.9f", want, float64(fitness))
	}
	if steps, _ := trace["steps"].(int); steps != 10 {
		t.Fatalf("expected 10 steps, got %+v", trace)
	}
	if mode, _ := trace["mode"].(string); mode != "gt" {
		t.Fatalf("expected gt mode marker, got %+v", trace)
	}
	rewards, _ := trace["step_rewards"].([]float64)
	if len(rewards) != 10 {
		t.Fatalf("expected per-step rewards, got %+v", trace["step_rewards"])
	}
	touches, _ := trace["segment_touches"].(map[string]int)
	if touches["Palm"] != 1 {
		t.Fatalf("expected one palm touch, got %+v", touches)
	}
}

func TestGraspScapeModes(t *testing.T) {
	sc := newTestGraspScape(t)
	for _, mode := range []string{"gt", "validation", "test", "benchmark"} {
		agent := &scriptedContactSource{id: "mode-" + mode, steps: holdPalm(3)}
		_, trace, err := sc.EvaluateMode(context.Background(), agent, mode)
		if err != nil {
			t.Fatalf("evaluate %s: %v", mode, err)
		}
		if got, _ := trace["mode"].(string); got != mode {
			t.Fatalf("expected %s mode marker, got %+v", mode, trace)
		}
	}
	if _, _, err := sc.EvaluateMode(context.Background(), &scriptedContactSource{id: "x"}, "train"); err == nil {
		t.Fatal("expected unsupported mode error")
	}
}

func TestGraspScapeStepLimitTruncates(t *testing.T) {
	sc := newTestGraspScape(t)
	ctx, err := WithStepLimit(context.Background(), 4)
	if err != nil {
		t.Fatalf("with step limit: %v", err)
	}
	agent := &scriptedContactSource{id: "long", steps: holdPalm(20)}
	_, trace, err := sc.EvaluateMode(ctx, agent, "benchmark")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if steps, _ := trace["steps"].(int); steps != 4 {
		t.Fatalf("expected 4 steps, got %+v", trace)
	}
	if truncated, _ := trace["truncated"].(bool); !truncated {
		t.Fatalf("expected truncated marker, got %+v", trace)
	}
	if _, err := WithStepLimit(context.Background(), -1); err == nil {
		t.Fatal("expected negative step limit error")
	}
}

func TestGraspScapeRejectsNonContactAgent(t *testing.T) {
	sc := newTestGraspScape(t)
	if _, _, err := sc.Evaluate(context.Background(), idOnlyAgent("plain")); err == nil {
		t.Fatal("expected error for agent without contact source")
	}
}

func TestGraspScapePropagatesSourceError(t *testing.T) {
	sc := newTestGraspScape(t)
	boom := errors.New("physics crashed")
	_, _, err := sc.Evaluate(context.Background(), &scriptedContactSource{id: "broken", err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestGraspScapeRespectsCancellation(t *testing.T) {
	sc := newTestGraspScape(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := sc.Evaluate(ctx, &scriptedContactSource{id: "cancelled", steps: holdPalm(2)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestNewGraspScapeRejectsIncompatibleInputs(t *testing.T) {
	partial := reward.Policy{Name: "empty-ish", Classes: map[model.SegmentClass]reward.Params{model.ClassPalm: {}}}
	if _, err := NewGraspScape(morphology.SixSegmentHandMorphology{}, partial); !errors.Is(err, reward.ErrClassMissing) {
		t.Fatalf("expected class missing error, got %v", err)
	}
	if _, err := NewGraspScape(nil, reward.BaselinePolicy()); err == nil {
		t.Fatal("expected nil morphology error")
	}
}

func TestGraspScapeTraceCarriesObservation(t *testing.T) {
	sc := newTestGraspScape(t)
	agent := &scriptedContactSource{id: "palm-touch", steps: holdPalm(1)}

	_, trace, err := sc.Evaluate(context.Background(), agent)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	layout, _ := trace["observation_layout"].([]string)
	if len(layout) != 1 || layout[0] != protoio.ContactVectorSensorName {
		t.Fatalf("unexpected observation layout: %v", layout)
	}
	want := []float64{0, 0, 0, 0, 0, 1}
	for _, key := range []string{"observation", "contact_flags"} {
		got, _ := trace[key].([]float64)
		if len(got) != len(want) {
			t.Fatalf("%s: expected %v, got %v", key, want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: expected %v, got %v", key, want, got)
			}
		}
	}
}

func TestGraspScapeRoutesKinematicsToSensors(t *testing.T) {
	sc, err := NewGraspScape(morphology.ThreeFingerHandMorphology{}, reward.BaselinePolicy())
	if err != nil {
		t.Fatalf("new grasp scape: %v", err)
	}
	distance := 0.5
	agent := &scriptedContactSource{id: "reach", steps: []StepReport{
		{
			DT:             0.02,
			Events:         []ContactEvent{{Segment: "Palm", Other: "Cylinder", Kind: ContactBegin}},
			JointAngles:    []float64{0.1, 0.2},
			TargetDistance: &distance,
		},
		{DT: 0.02},
	}}

	_, trace, err := sc.Evaluate(context.Background(), agent)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	layout, _ := trace["observation_layout"].([]string)
	wantLayout := []string{protoio.ContactVectorSensorName, protoio.JointAngleSensorName, protoio.TargetDistanceSensorName}
	if len(layout) != len(wantLayout) {
		t.Fatalf("unexpected layout: %v", layout)
	}
	for i := range wantLayout {
		if layout[i] != wantLayout[i] {
			t.Fatalf("unexpected layout: %v", layout)
		}
	}

	segments := len(morphology.ThreeFingerHandMorphology{}.Segments())
	obs, _ := trace["observation"].([]float64)
	if len(obs) != 2*segments+1 {
		t.Fatalf("expected %d values, got %d: %v", 2*segments+1, len(obs), obs)
	}
	if obs[segments-1] != 1 {
		t.Fatalf("expected palm contact flag set: %v", obs[:segments])
	}
	// Angles persist across steps that carry none; the vector is zero-padded.
	if obs[segments] != 0.1 || obs[segments+1] != 0.2 || obs[segments+2] != 0 {
		t.Fatalf("unexpected joint angles: %v", obs[segments:2*segments])
	}
	if obs[2*segments] != distance {
		t.Fatalf("expected target distance %g, got %g", distance, obs[2*segments])
	}
}
