package storage

import (
	"context"

	"grasprl/internal/model"
)

// Store persists replay runs, their per-episode summaries and the per-step
// reward series of each episode.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveEpisode(ctx context.Context, episode model.EpisodeSummary) error
	GetEpisode(ctx context.Context, runID, episodeID string) (model.EpisodeSummary, bool, error)
	ListEpisodes(ctx context.Context, runID string) ([]model.EpisodeSummary, error)
	SaveStepRewards(ctx context.Context, runID, episodeID string, rewards []float64) error
	GetStepRewards(ctx context.Context, runID, episodeID string) ([]float64, bool, error)
}
