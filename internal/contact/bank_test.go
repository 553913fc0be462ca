package contact

import (
	"errors"
	"testing"

	"grasprl/internal/model"
)

func testSegments() []model.Segment {
	return []model.Segment{
		{Name: "FingerBase", Class: model.ClassBaseJoint},
		{Name: "FingerEnd", Class: model.ClassEndJoint},
		{Name: "Palm", Class: model.ClassPalm},
	}
}

func TestNewBankRejectsDuplicates(t *testing.T) {
	segments := append(testSegments(), model.Segment{Name: "Palm", Class: model.ClassPalm})
	_, err := NewBank(segments)
	if !errors.Is(err, ErrDuplicateSegment) {
		t.Fatalf("expected duplicate segment error, got %v", err)
	}
}

func TestNewBankRejectsInvalidSegments(t *testing.T) {
	cases := map[string][]model.Segment{
		"empty":      nil,
		"no-name":    {{Class: model.ClassPalm}},
		"bad-class":  {{Name: "Palm"}},
		"bad-class2": {{Name: "Palm", Class: model.SegmentClass(42)}},
	}
	for name, segments := range cases {
		if _, err := NewBank(segments); !errors.Is(err, ErrInvalidSegment) {
			t.Fatalf("%s: expected invalid segment error, got %v", name, err)
		}
	}
}

func TestBankResolveAndObservationOrder(t *testing.T) {
	bank, err := NewBank(testSegments())
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}
	if bank.Len() != 3 {
		t.Fatalf("expected 3 trackers, got %d", bank.Len())
	}
	if _, ok := bank.Resolve("Wrist"); ok {
		t.Fatal("expected unknown segment to be unresolved")
	}

	palm, ok := bank.Resolve("Palm")
	if !ok {
		t.Fatal("expected palm to resolve")
	}
	bank.ResetAll()
	bank.BeginStepAll()
	bank.Contact(palm, 0.25, 0.001)

	obs := bank.Observation(nil)
	want := []float64{0, 0, 1}
	for i := range want {
		if obs[i] != want[i] {
			t.Fatalf("unexpected observation: %v", obs)
		}
	}
	if bank.Segment(palm).Class != model.ClassPalm {
		t.Fatalf("unexpected segment for palm id: %+v", bank.Segment(palm))
	}
}

func TestBankObservationReusesBuffer(t *testing.T) {
	bank, err := NewBank(testSegments())
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}
	buf := make([]float64, 0, 8)
	obs := bank.Observation(buf)
	if &obs[0] != &buf[:1][0] {
		t.Fatal("expected observation to reuse provided buffer")
	}
	if len(obs) != 3 {
		t.Fatalf("expected length 3, got %d", len(obs))
	}
}

func TestBankSegmentsAreIndependent(t *testing.T) {
	bank, err := NewBank(testSegments())
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}
	base, _ := bank.Resolve("FingerBase")
	end, _ := bank.Resolve("FingerEnd")

	bank.ResetAll()
	bank.BeginStepAll()
	bank.Contact(base, 0.15, 0.001)
	if got := bank.Release(end, -0.02); got != 0 {
		t.Fatalf("expected untouched segment release to be free, got %f", got)
	}
	if !bank.InContact(base) {
		t.Fatal("expected base to stay in contact")
	}
	if got := bank.Release(base, -0.02); got != -0.02 {
		t.Fatalf("expected base release penalty, got %f", got)
	}
}
