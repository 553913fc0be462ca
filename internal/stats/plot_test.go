package stats

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReturnCurve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "returns.png")
	if err := WriteReturnCurve(path, "run-1", []float64{0.1, 0.3, 0.2}); err != nil {
		t.Fatalf("write return curve: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat plot: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected non-empty plot file")
	}
}

func TestWriteCumulativeRewardCurves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cumulative.svg")
	series := []Series{
		{Name: "a", Values: []float64{0.150008, 0.000008, -0.02}},
		{Name: "b", Values: []float64{0.25, 0.0001}},
	}
	if err := WriteCumulativeRewardCurves(path, "run-1", series); err != nil {
		t.Fatalf("write cumulative curves: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat plot: %v", err)
	}
}

func TestWriteLinePlotRejectsEmptyInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	if err := WriteLinePlot(path, "x", "x", "y", nil); err == nil {
		t.Fatal("expected error for no series")
	}
	if err := WriteLinePlot(path, "x", "x", "y", []Series{{Name: "empty"}}); err == nil {
		t.Fatal("expected error for empty series")
	}
}
