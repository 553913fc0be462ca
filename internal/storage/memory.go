package storage

import (
	"context"
	"sort"
	"sync"

	"grasprl/internal/model"
)

type episodeKey struct {
	runID     string
	episodeID string
}

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	episodes    map[episodeKey]model.EpisodeSummary
	stepRewards map[episodeKey][]float64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.episodes = make(map[episodeKey]model.EpisodeSummary)
	s.stepRewards = make(map[episodeKey][]float64)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	if run.ID == "" {
		return ErrMissingKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

// ListRuns returns runs oldest first.
func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *MemoryStore) SaveEpisode(_ context.Context, episode model.EpisodeSummary) error {
	if episode.RunID == "" || episode.EpisodeID == "" {
		return ErrMissingKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.episodes[episodeKey{episode.RunID, episode.EpisodeID}] = copyEpisode(episode)
	return nil
}

func (s *MemoryStore) GetEpisode(_ context.Context, runID, episodeID string) (model.EpisodeSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	episode, ok := s.episodes[episodeKey{runID, episodeID}]
	if !ok {
		return model.EpisodeSummary{}, false, nil
	}
	return copyEpisode(episode), true, nil
}

// ListEpisodes returns the episodes of runID ordered by index.
func (s *MemoryStore) ListEpisodes(_ context.Context, runID string) ([]model.EpisodeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var episodes []model.EpisodeSummary
	for key, episode := range s.episodes {
		if key.runID == runID {
			episodes = append(episodes, copyEpisode(episode))
		}
	}
	sort.Slice(episodes, func(i, j int) bool { return episodes[i].Index < episodes[j].Index })
	return episodes, nil
}

func (s *MemoryStore) SaveStepRewards(_ context.Context, runID, episodeID string, rewards []float64) error {
	if runID == "" || episodeID == "" {
		return ErrMissingKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.stepRewards[episodeKey{runID, episodeID}] = append([]float64(nil), rewards...)
	return nil
}

func (s *MemoryStore) GetStepRewards(_ context.Context, runID, episodeID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rewards, ok := s.stepRewards[episodeKey{runID, episodeID}]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), rewards...), true, nil
}

func copyEpisode(episode model.EpisodeSummary) model.EpisodeSummary {
	episode.Observation = append([]float64(nil), episode.Observation...)
	episode.ContactFlags = append([]float64(nil), episode.ContactFlags...)
	if episode.SegmentTouches == nil {
		return episode
	}
	touches := make(map[string]int, len(episode.SegmentTouches))
	for name, n := range episode.SegmentTouches {
		touches[name] = n
	}
	episode.SegmentTouches = touches
	return episode
}

func sortRuns(runs []model.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC != runs[j].CreatedAtUTC {
			return runs[i].CreatedAtUTC < runs[j].CreatedAtUTC
		}
		return runs[i].ID < runs[j].ID
	})
}
