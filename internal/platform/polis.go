package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"grasprl/internal/model"
	"grasprl/internal/scape"
	"grasprl/internal/stats"
	"grasprl/internal/storage"
)

type Config struct {
	Store  storage.Store
	Logger *slog.Logger
}

// EpisodeRun pairs a recorded episode id with the agent that replays it.
type EpisodeRun struct {
	ID    string
	Agent scape.Agent
}

type ReplayConfig struct {
	RunID string
	// Scape evaluates every episode. When nil, ScapeName is looked up among
	// the registered scapes.
	Scape     scape.Scape
	ScapeName string
	Mode      string
	Source    string
	Workers   int
	Episodes  []EpisodeRun
}

type ReplayResult struct {
	Run         model.RunRecord
	Episodes    []model.EpisodeSummary
	StepRewards map[string][]float64
	Summary     stats.ReturnSummary
}

// Polis owns the store and the registered scapes, and runs recorded episodes
// through them.
type Polis struct {
	store  storage.Store
	logger *slog.Logger

	mu      sync.RWMutex
	scapes  map[string]scape.Scape
	started bool
}

func NewPolis(cfg Config) *Polis {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	return &Polis{
		store:  cfg.Store,
		logger: logger,
		scapes: make(map[string]scape.Scape),
	}
}

func (p *Polis) Init(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return err
	}
	p.started = true
	return nil
}

func (p *Polis) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

func (p *Polis) RegisterScape(s scape.Scape) error {
	if s == nil {
		return fmt.Errorf("scape is nil")
	}

	name := s.Name()
	if name == "" {
		return fmt.Errorf("scape name is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return fmt.Errorf("polis is not initialized")
	}
	p.scapes[name] = s
	return nil
}

func (p *Polis) GetScape(name string) (scape.Scape, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.scapes[name]
	return s, ok
}

func (p *Polis) RegisteredScapes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.scapes))
	for name := range p.scapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Polis) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = false
	p.scapes = make(map[string]scape.Scape)
}

// RunReplay evaluates every episode, persists the per-episode summaries, the
// step rewards and the run record, and returns them.
func (p *Polis) RunReplay(ctx context.Context, cfg ReplayConfig) (ReplayResult, error) {
	if !p.Started() {
		return ReplayResult{}, fmt.Errorf("polis is not initialized")
	}
	if cfg.RunID == "" {
		return ReplayResult{}, fmt.Errorf("run id is required")
	}
	if len(cfg.Episodes) == 0 {
		return ReplayResult{}, fmt.Errorf("at least one episode is required")
	}
	sc := cfg.Scape
	if sc == nil {
		var ok bool
		sc, ok = p.GetScape(cfg.ScapeName)
		if !ok {
			return ReplayResult{}, fmt.Errorf("scape not registered: %s", cfg.ScapeName)
		}
	}
	if cfg.Mode == "" {
		cfg.Mode = "gt"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	p.logger.Info("replay started", "run_id", cfg.RunID, "scape", sc.Name(), "mode", cfg.Mode, "episodes", len(cfg.Episodes))
	traces, err := p.evaluateEpisodes(ctx, sc, cfg)
	if err != nil {
		return ReplayResult{}, err
	}

	result := ReplayResult{
		Episodes:    make([]model.EpisodeSummary, 0, len(traces)),
		StepRewards: make(map[string][]float64, len(traces)),
	}
	returns := make([]float64, 0, len(traces))
	for i, tr := range traces {
		episodeID := cfg.Episodes[i].ID
		summary := episodeSummaryFromTrace(cfg.RunID, episodeID, i, float64(tr.fitness), tr.trace)
		rewards, _ := tr.trace["step_rewards"].([]float64)

		if err := p.store.SaveEpisode(ctx, summary); err != nil {
			return ReplayResult{}, fmt.Errorf("save episode %s: %w", episodeID, err)
		}
		if err := p.store.SaveStepRewards(ctx, cfg.RunID, episodeID, rewards); err != nil {
			return ReplayResult{}, fmt.Errorf("save step rewards %s: %w", episodeID, err)
		}
		p.logger.Debug("episode scored", "run_id", cfg.RunID, "episode", episodeID, "return", summary.Return, "steps", summary.Steps, "dropped", summary.Dropped)

		result.Episodes = append(result.Episodes, summary)
		result.StepRewards[episodeID] = rewards
		returns = append(returns, summary.Return)
	}
	result.Summary = stats.SummarizeReturns(returns)

	first := traces[0].trace
	result.Run = model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              cfg.RunID,
		Source:          cfg.Source,
		Mode:            traceString(first, "mode", cfg.Mode),
		Policy:          traceString(first, "policy", ""),
		Morphology:      traceString(first, "morphology", ""),
		TargetTag:       traceString(first, "target_tag", ""),
		Episodes:        len(result.Episodes),
		MeanReturn:      result.Summary.Mean,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339),
	}
	if layout, ok := first["observation_layout"].([]string); ok {
		result.Run.ObservationLayout = append([]string(nil), layout...)
	}
	if err := p.store.SaveRun(ctx, result.Run); err != nil {
		return ReplayResult{}, fmt.Errorf("save run %s: %w", cfg.RunID, err)
	}
	p.logger.Info("replay finished", "run_id", cfg.RunID, "mean_return", result.Summary.Mean, "episodes", result.Summary.Episodes)
	return result, nil
}

type evaluated struct {
	fitness scape.Fitness
	trace   scape.Trace
}

func (p *Polis) evaluateEpisodes(ctx context.Context, sc scape.Scape, cfg ReplayConfig) ([]evaluated, error) {
	type job struct {
		idx int
		run EpisodeRun
	}
	type result struct {
		idx int
		out evaluated
		err error
	}

	jobs := make(chan job)
	results := make(chan result, len(cfg.Episodes))

	workerCount := cfg.Workers
	if workerCount > len(cfg.Episodes) {
		workerCount = len(cfg.Episodes)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				fitness, trace, err := evaluateMode(ctx, sc, j.run.Agent, cfg.Mode)
				if err != nil {
					results <- result{idx: j.idx, err: fmt.Errorf("episode %s: %w", j.run.ID, err)}
					continue
				}
				results <- result{idx: j.idx, out: evaluated{fitness: fitness, trace: trace}}
			}
		}()
	}

	for i := range cfg.Episodes {
		jobs <- job{idx: i, run: cfg.Episodes[i]}
	}
	close(jobs)

	wg.Wait()
	close(results)

	out := make([]evaluated, len(cfg.Episodes))
	var firstErr error
	firstIdx := len(cfg.Episodes)
	for res := range results {
		if res.err != nil {
			if res.idx < firstIdx {
				firstErr, firstIdx = res.err, res.idx
			}
			continue
		}
		out[res.idx] = res.out
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func evaluateMode(ctx context.Context, sc scape.Scape, agent scape.Agent, mode string) (scape.Fitness, scape.Trace, error) {
	if aware, ok := sc.(scape.ModeAwareScape); ok {
		return aware.EvaluateMode(ctx, agent, mode)
	}
	return sc.Evaluate(ctx, agent)
}

func episodeSummaryFromTrace(runID, episodeID string, index int, ret float64, trace scape.Trace) model.EpisodeSummary {
	summary := model.EpisodeSummary{
		VersionedRecord: storage.CurrentVersion(),
		RunID:           runID,
		EpisodeID:       episodeID,
		Index:           index,
		Mode:            traceString(trace, "mode", ""),
		Steps:           traceInt(trace, "steps"),
		SimTime:         traceFloat(trace, "sim_time"),
		Return:          ret,
		Touches:         traceInt(trace, "touches"),
		Releases:        traceInt(trace, "releases"),
		Dropped:         traceInt(trace, "dropped"),
	}
	summary.Observation = traceFloats(trace, "observation")
	summary.ContactFlags = traceFloats(trace, "contact_flags")
	if touches, ok := trace["segment_touches"].(map[string]int); ok {
		summary.SegmentTouches = make(map[string]int, len(touches))
		for name, n := range touches {
			summary.SegmentTouches[name] = n
		}
	}
	return summary
}

func traceString(trace scape.Trace, key, fallback string) string {
	if v, ok := trace[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func traceInt(trace scape.Trace, key string) int {
	switch v := trace[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func traceFloat(trace scape.Trace, key string) float64 {
	switch v := trace[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func traceFloats(trace scape.Trace, key string) []float64 {
	values, ok := trace[key].([]float64)
	if !ok {
		return nil
	}
	return append([]float64(nil), values...)
}
