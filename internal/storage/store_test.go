package storage

import (
	"context"
	"testing"

	"grasprl/internal/model"
)

func testRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		Source:          "fixtures/" + id + ".jsonl",
		Mode:            "gt",
		Policy:          "grasp-baseline-v1",
		Morphology:      "six-segment-hand-v1",
		TargetTag:       "Cylinder",
		Episodes:        2,
		MeanReturn:      0.13,
		CreatedAtUTC:    createdAt,
	}
}

func testEpisode(runID, episodeID string, index int) model.EpisodeSummary {
	return model.EpisodeSummary{
		VersionedRecord: CurrentVersion(),
		RunID:           runID,
		EpisodeID:       episodeID,
		Index:           index,
		Mode:            "gt",
		Steps:           4,
		SimTime:         0.08,
		Return:          0.130016,
		Touches:         1,
		Releases:        1,
		SegmentTouches:  map[string]int{"FingerBase": 1},
	}
}

// exerciseStore runs the round trips every backend must support.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if err := store.SaveRun(ctx, testRun("r2", "2026-01-02T00:00:00Z")); err != nil {
		t.Fatalf("save run r2: %v", err)
	}
	if err := store.SaveRun(ctx, testRun("r1", "2026-01-01T00:00:00Z")); err != nil {
		t.Fatalf("save run r1: %v", err)
	}
	run, ok, err := store.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok || run.Policy != "grasp-baseline-v1" || run.Episodes != 2 {
		t.Fatalf("unexpected run: ok=%t %+v", ok, run)
	}
	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%t err=%v", ok, err)
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "r1" || runs[1].ID != "r2" {
		t.Fatalf("expected runs oldest first, got %+v", runs)
	}

	if err := store.SaveEpisode(ctx, testEpisode("r1", "b", 1)); err != nil {
		t.Fatalf("save episode b: %v", err)
	}
	if err := store.SaveEpisode(ctx, testEpisode("r1", "a", 0)); err != nil {
		t.Fatalf("save episode a: %v", err)
	}
	if err := store.SaveEpisode(ctx, testEpisode("r2", "a", 0)); err != nil {
		t.Fatalf("save episode r2/a: %v", err)
	}
	episode, ok, err := store.GetEpisode(ctx, "r1", "b")
	if err != nil {
		t.Fatalf("get episode: %v", err)
	}
	if !ok || episode.Index != 1 || episode.SegmentTouches["FingerBase"] != 1 {
		t.Fatalf("unexpected episode: ok=%t %+v", ok, episode)
	}
	episodes, err := store.ListEpisodes(ctx, "r1")
	if err != nil {
		t.Fatalf("list episodes: %v", err)
	}
	if len(episodes) != 2 || episodes[0].EpisodeID != "a" || episodes[1].EpisodeID != "b" {
		t.Fatalf("expected r1 episodes by index, got %+v", episodes)
	}

	rewards := []float64{0.150008, 0.000008, -0.02, 0}
	if err := store.SaveStepRewards(ctx, "r1", "a", rewards); err != nil {
		t.Fatalf("save step rewards: %v", err)
	}
	rewards[0] = 99
	loaded, ok, err := store.GetStepRewards(ctx, "r1", "a")
	if err != nil {
		t.Fatalf("get step rewards: %v", err)
	}
	if !ok || len(loaded) != 4 || loaded[0] != 0.150008 || loaded[2] != -0.02 {
		t.Fatalf("unexpected step rewards: ok=%t %v", ok, loaded)
	}
	if _, ok, err := store.GetStepRewards(ctx, "r1", "b"); err != nil || ok {
		t.Fatalf("expected no rewards for r1/b, ok=%t err=%v", ok, err)
	}

	if err := store.SaveEpisode(ctx, model.EpisodeSummary{RunID: "r1"}); err == nil {
		t.Fatal("expected missing episode id error")
	}
}
