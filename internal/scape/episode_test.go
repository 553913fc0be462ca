package scape

import (
	"context"
	"errors"
	"math"
	"testing"

	protoio "grasprl/internal/io"
	"grasprl/internal/model"
	"grasprl/internal/morphology"
	"grasprl/internal/reward"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func newBaselineEpisode(t *testing.T, sink protoio.VectorSensorSetter) *Episode {
	t.Helper()
	ep, err := NewEpisode(EpisodeConfig{
		Morphology:  morphology.SixSegmentHandMorphology{},
		Policy:      reward.BaselinePolicy(),
		Observation: sink,
	})
	if err != nil {
		t.Fatalf("new episode: %v", err)
	}
	return ep
}

func TestEpisodeConcreteScenario(t *testing.T) {
	ep := newBaselineEpisode(t, nil)

	steps := []struct {
		report StepReport
		want   float64
	}{
		{StepReport{DT: 0.02, Events: []ContactEvent{
			{Segment: "FingerBase", Other: "Cylinder", Kind: ContactBegin},
			{Segment: "FingerBase", Other: "Cylinder", Kind: ContactStay},
		}}, 0.150008},
		{StepReport{DT: 0.02, Events: []ContactEvent{
			{Segment: "FingerBase", Other: "Cylinder", Kind: ContactStay},
		}}, 0.000008},
		{StepReport{DT: 0.02, Events: []ContactEvent{
			{Segment: "FingerBase", Other: "Cylinder", Kind: ContactExit},
		}}, -0.02},
		{StepReport{DT: 0.02, Events: []ContactEvent{
			{Segment: "FingerBase", Other: "Cylinder", Kind: ContactExit},
		}}, 0},
	}

	wantReturn := 0.0
	for i, step := range steps {
		got := ep.Step(step.report)
		if !approxEqual(got.Reward, step.want) {
			t.Fatalf("step %d: expected %.9f, got %.9f", i+1, step.want, got.Reward)
		}
		wantReturn += step.want
		if !approxEqual(got.Return, wantReturn) {
			t.Fatalf("step %d: expected return %.9f, got %.9f", i+1, wantReturn, got.Return)
		}
	}

	stats := ep.Stats()
	if stats.Steps != 4 || stats.Touches != 1 || stats.Releases != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.SegmentTouches["FingerBase"] != 1 || stats.SegmentTouches["Palm"] != 0 {
		t.Fatalf("unexpected segment touches: %+v", stats.SegmentTouches)
	}
	if !approxEqual(stats.SimTime, 0.08) {
		t.Fatalf("expected sim time 0.08, got %f", stats.SimTime)
	}
}

func TestEpisodeDropsForeignAndUnknownEvents(t *testing.T) {
	ep := newBaselineEpisode(t, nil)
	got := ep.Step(StepReport{DT: 0.02, Events: []ContactEvent{
		{Segment: "Palm", Other: "Table", Kind: ContactBegin},
		{Segment: "Wrist", Other: "Cylinder", Kind: ContactBegin},
		{Segment: "Palm", Other: "Cylinder", Kind: ContactKind(9)},
	}})
	if got.Reward != 0 {
		t.Fatalf("expected no reward, got %f", got.Reward)
	}
	if got.Dropped != 3 {
		t.Fatalf("expected 3 dropped events, got %d", got.Dropped)
	}
	for i, v := range got.Observation {
		if v != 0 {
			t.Fatalf("expected no contact at %d: %v", i, got.Observation)
		}
	}
	if ep.Stats().Dropped != 3 {
		t.Fatalf("expected dropped counter 3, got %+v", ep.Stats())
	}
}

func TestEpisodeWildcardTargetAcceptsAnyBody(t *testing.T) {
	ep, err := NewEpisode(EpisodeConfig{
		Morphology: morphology.SixSegmentHandMorphology{},
		Policy:     reward.BaselinePolicy(),
		TargetTag:  "*",
	})
	if err != nil {
		t.Fatalf("new episode: %v", err)
	}
	got := ep.Step(StepReport{DT: 0.02, Events: []ContactEvent{{Segment: "Palm", Other: "Table", Kind: ContactBegin}}})
	if got.Reward <= 0.25 {
		t.Fatalf("expected palm immediate plus continuous, got %f", got.Reward)
	}
}

func TestEpisodeObservationPublishedToSensor(t *testing.T) {
	sensor := protoio.NewVectorInputSensor(protoio.ContactVectorSensorName, 6)
	ep := newBaselineEpisode(t, sensor)

	ep.Step(StepReport{DT: 0.02, Events: []ContactEvent{
		{Segment: "ThumbEnd", Other: "Cylinder", Kind: ContactBegin},
		{Segment: "Palm", Other: "Cylinder", Kind: ContactBegin},
	}})
	values, err := sensor.Read(context.Background())
	if err != nil {
		t.Fatalf("read sensor: %v", err)
	}
	want := []float64{0, 0, 0, 0, 1, 1}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("unexpected observation: %v", values)
		}
	}

	obs := ep.Observation(nil)
	ep.Reset()
	if obs[5] != 1 {
		t.Fatalf("expected copied observation to survive reset: %v", obs)
	}
	values, _ = sensor.Read(context.Background())
	for _, v := range values {
		if v != 0 {
			t.Fatalf("expected cleared observation after reset: %v", values)
		}
	}
}

func TestEpisodeResetClearsHistory(t *testing.T) {
	ep := newBaselineEpisode(t, nil)
	ep.Step(StepReport{DT: 0.02, Events: []ContactEvent{{Segment: "Palm", Other: "Cylinder", Kind: ContactBegin}}})
	ep.Reset()

	if ep.Return() != 0 || ep.Stats().Steps != 0 {
		t.Fatalf("expected cleared counters, got %+v", ep.Stats())
	}
	got := ep.Step(StepReport{DT: 0.02, Events: []ContactEvent{{Segment: "Palm", Other: "Cylinder", Kind: ContactExit}}})
	if got.Reward != 0 {
		t.Fatalf("expected no penalty after reset, got %f", got.Reward)
	}
}

func TestEpisodeContinuousTotalIndependentOfStepSize(t *testing.T) {
	run := func(dt float64, steps int) float64 {
		ep := newBaselineEpisode(t, nil)
		ep.Step(StepReport{DT: 0, Events: []ContactEvent{{Segment: "Palm", Other: "Cylinder", Kind: ContactBegin}}})
		before := ep.Return()
		for i := 0; i < steps; i++ {
			ep.Step(StepReport{DT: dt, Events: []ContactEvent{
				{Segment: "Palm", Other: "Cylinder", Kind: ContactStay},
				{Segment: "Palm", Other: "Cylinder", Kind: ContactStay},
			}})
		}
		return ep.Return() - before
	}
	coarse := run(0.02, 100)
	fine := run(0.005, 400)
	if math.Abs(coarse-fine) > 1e-12 {
		t.Fatalf("expected equal continuous totals, coarse=%g fine=%g", coarse, fine)
	}
	if !approxEqual(coarse, 0.0006*2) {
		t.Fatalf("expected 2s of palm contact to pay 0.0012, got %g", coarse)
	}
}

func TestNewEpisodeRejectsUncoveredPolicy(t *testing.T) {
	partial := reward.Policy{Name: "palm-only", Classes: map[model.SegmentClass]reward.Params{model.ClassPalm: {Immediate: 1}}}
	_, err := NewEpisode(EpisodeConfig{Morphology: morphology.SixSegmentHandMorphology{}, Policy: partial})
	if !errors.Is(err, reward.ErrClassMissing) {
		t.Fatalf("expected class missing error, got %v", err)
	}
	if _, err := NewEpisode(EpisodeConfig{Policy: reward.BaselinePolicy()}); !errors.Is(err, ErrInvalidEpisode) {
		t.Fatalf("expected invalid episode error, got %v", err)
	}
}

func TestParseContactKindAliases(t *testing.T) {
	cases := map[string]ContactKind{
		"begin": ContactBegin, "Enter": ContactBegin,
		"stay": ContactStay, "continue": ContactStay,
		"exit": ContactExit, " END ": ContactExit,
	}
	for raw, want := range cases {
		got, err := ParseContactKind(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s, got %s", raw, want, got)
		}
	}
	if _, err := ParseContactKind("touch"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestEpisodeExitsApplyAfterTouchesRegardlessOfReportOrder(t *testing.T) {
	stay := ContactEvent{Segment: "Palm", Other: "Cylinder", Kind: ContactStay}
	exit := ContactEvent{Segment: "Palm", Other: "Cylinder", Kind: ContactExit}

	orderings := map[string][]ContactEvent{
		"exit-first": {exit, stay},
		"stay-first": {stay, exit},
	}
	results := make(map[string]StepResult, len(orderings))
	for name, events := range orderings {
		ep := newBaselineEpisode(t, nil)
		ep.Step(StepReport{DT: 0.02, Events: []ContactEvent{{Segment: "Palm", Other: "Cylinder", Kind: ContactBegin}}})
		got := ep.Step(StepReport{DT: 0.02, Events: events})
		got.Observation = ep.Observation(nil)
		results[name] = got

		// continuous 0.0006*0.02 for the stay, then the release penalty
		if !approxEqual(got.Reward, 0.000012-0.02) {
			t.Fatalf("%s: expected %.9f, got %.9f", name, 0.000012-0.02, got.Reward)
		}
		if got.Observation[5] != 0 {
			t.Fatalf("%s: expected palm released, got %v", name, got.Observation)
		}
		if stats := ep.Stats(); stats.Touches != 1 || stats.Releases != 1 {
			t.Fatalf("%s: unexpected stats: %+v", name, stats)
		}
	}
	if results["exit-first"].Reward != results["stay-first"].Reward {
		t.Fatalf("expected order-independent reward: %+v", results)
	}
}

func TestEpisodeBeginAndExitInOneStep(t *testing.T) {
	ep := newBaselineEpisode(t, nil)
	got := ep.Step(StepReport{DT: 0.02, Events: []ContactEvent{
		{Segment: "FingerEnd", Other: "Cylinder", Kind: ContactExit},
		{Segment: "FingerEnd", Other: "Cylinder", Kind: ContactBegin},
	}})
	want := 0.05 + 0.0002*0.02 - 0.02
	if !approxEqual(got.Reward, want) {
		t.Fatalf("expected touch then release %.9f, got %.9f", want, got.Reward)
	}
	if ep.Observation(nil)[2] != 0 {
		t.Fatalf("expected fingertip released at step end: %v", ep.Observation(nil))
	}
}
