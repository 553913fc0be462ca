// Package grasprl is the programmatic entry point for scoring recorded grasp
// contact streams against reward policies.
package grasprl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"grasprl/internal/model"
	"grasprl/internal/morphology"
	"grasprl/internal/platform"
	"grasprl/internal/replay"
	"grasprl/internal/reward"
	"grasprl/internal/scape"
	"grasprl/internal/stats"
	"grasprl/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "grasprl.db"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *slog.Logger
}

type Client struct {
	store  storage.Store
	polis  *platform.Polis
	logger *slog.Logger

	artifactsDir string
	exportsDir   string
}

type ReplayRequest struct {
	// Path is a JSON-lines contact recording.
	Path       string
	RunID      string
	Policy     string
	PolicyFile string
	Morphology string
	// MorphologyFile is a YAML segment topology; it takes precedence over
	// Morphology when set.
	MorphologyFile string
	TargetTag      string
	Mode           string
	MaxSteps       int
	Workers        int
}

type EpisodeResult struct {
	EpisodeID string
	Steps     int
	SimTime   float64
	Return    float64
	Touches   int
	Releases  int
	Dropped   int
	// Observation is the final sensor reading; ContactFlags its per-segment
	// contact part.
	Observation  []float64
	ContactFlags []float64
}

type ReplaySummary struct {
	RunID        string
	ArtifactsDir string
	Policy       string
	Morphology   string
	// ObservationLayout names the sensors making up each episode's
	// Observation, in order.
	ObservationLayout []string
	Episodes          []EpisodeResult
	Summary           stats.ReturnSummary
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Source       string
	Mode         string
	Policy       string
	Morphology   string
	Episodes     int
	MeanReturn   float64
}

type EpisodesRequest struct {
	RunID  string
	Latest bool
}

type StepRewardsRequest struct {
	RunID     string
	Latest    bool
	EpisodeID string
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type PlotRequest struct {
	RunID  string
	Latest bool
	// Kind is "returns" (one point per episode) or "cumulative" (running
	// return per step, one line per episode).
	Kind string
	Out  string
}

type PolicyItem struct {
	Name    string
	Classes map[model.SegmentClass]reward.Params
}

type MorphologyItem struct {
	Profile  string
	Name     string
	Segments []model.Segment
	Sensors  []string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		polis:        platform.NewPolis(platform.Config{Store: store, Logger: logger}),
		logger:       logger,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	c.polis.Stop()
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.polis.Init(ctx)
}

// Replay scores every episode of a recording and writes the run artifacts.
func (c *Client) Replay(ctx context.Context, req ReplayRequest) (ReplaySummary, error) {
	if req.Path == "" {
		return ReplaySummary{}, errors.New("recording path is required")
	}
	if req.MaxSteps < 0 {
		return ReplaySummary{}, errors.New("max steps must be >= 0")
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.Mode == "" {
		req.Mode = "gt"
	}
	if req.RunID == "" {
		req.RunID = "replay-" + uuid.NewString()
	}
	if err := c.Init(ctx); err != nil {
		return ReplaySummary{}, err
	}

	policy, err := resolvePolicy(req.Policy, req.PolicyFile)
	if err != nil {
		return ReplaySummary{}, err
	}
	m, err := resolveMorphology(req.Morphology, req.MorphologyFile)
	if err != nil {
		return ReplaySummary{}, err
	}
	sc, err := scape.NewGraspScape(m, policy)
	if err != nil {
		return ReplaySummary{}, err
	}
	sc.TargetTag = req.TargetTag
	sc.Logger = c.logger.With("run_id", req.RunID)

	episodes, err := replay.ReadFile(req.Path)
	if err != nil {
		return ReplaySummary{}, err
	}
	if len(episodes) == 0 {
		return ReplaySummary{}, fmt.Errorf("recording %s has no steps", req.Path)
	}
	runs := make([]platform.EpisodeRun, 0, len(episodes))
	for _, ep := range episodes {
		runs = append(runs, platform.EpisodeRun{ID: ep.ID, Agent: replay.NewSource(ep)})
	}

	if req.MaxSteps > 0 {
		ctx, err = scape.WithStepLimit(ctx, req.MaxSteps)
		if err != nil {
			return ReplaySummary{}, err
		}
	}
	result, err := c.polis.RunReplay(ctx, platform.ReplayConfig{
		RunID:    req.RunID,
		Scape:    sc,
		Mode:     req.Mode,
		Source:   req.Path,
		Workers:  req.Workers,
		Episodes: runs,
	})
	if err != nil {
		return ReplaySummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:             req.RunID,
			Source:            req.Path,
			Mode:              result.Run.Mode,
			Policy:            policy.Name,
			PolicyFile:        req.PolicyFile,
			Morphology:        m.Name(),
			MorphologyFile:    req.MorphologyFile,
			TargetTag:         result.Run.TargetTag,
			MaxSteps:          req.MaxSteps,
			ObservationLayout: result.Run.ObservationLayout,
		},
		Episodes:    result.Episodes,
		StepRewards: result.StepRewards,
		Summary:     result.Summary,
	})
	if err != nil {
		return ReplaySummary{}, err
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:        req.RunID,
		Source:       req.Path,
		Mode:         result.Run.Mode,
		Policy:       policy.Name,
		Morphology:   m.Name(),
		Episodes:     len(result.Episodes),
		MeanReturn:   result.Summary.Mean,
		CreatedAtUTC: result.Run.CreatedAtUTC,
	}); err != nil {
		return ReplaySummary{}, err
	}

	summary := ReplaySummary{
		RunID:        req.RunID,
		ArtifactsDir: filepath.Clean(runDir),
		Policy:       policy.Name,
		Morphology:   m.Name(),
		Episodes:     make([]EpisodeResult, 0, len(result.Episodes)),
		Summary:      result.Summary,

		ObservationLayout: result.Run.ObservationLayout,
	}
	for _, ep := range result.Episodes {
		summary.Episodes = append(summary.Episodes, episodeResult(ep))
	}
	return summary, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:        e.RunID,
			CreatedAtUTC: e.CreatedAtUTC,
			Source:       e.Source,
			Mode:         e.Mode,
			Policy:       e.Policy,
			Morphology:   e.Morphology,
			Episodes:     e.Episodes,
			MeanReturn:   e.MeanReturn,
		})
	}
	return out, nil
}

// Episodes returns the episode summaries of a run, from the store when it
// holds the run and from the run artifacts otherwise.
func (c *Client) Episodes(ctx context.Context, req EpisodesRequest) ([]EpisodeResult, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "episodes")
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	episodes, err := c.store.ListEpisodes(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(episodes) == 0 {
		var ok bool
		episodes, ok, err = stats.ReadEpisodes(c.artifactsDir, runID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("episodes not found for run id: %s", runID)
		}
	}

	out := make([]EpisodeResult, 0, len(episodes))
	for _, ep := range episodes {
		out = append(out, episodeResult(ep))
	}
	return out, nil
}

func (c *Client) StepRewards(ctx context.Context, req StepRewardsRequest) ([]float64, error) {
	if req.EpisodeID == "" {
		return nil, errors.New("episode id is required")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "step rewards")
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	rewards, ok, err := c.store.GetStepRewards(ctx, runID, req.EpisodeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		rewards, ok, err = stats.ReadStepRewards(c.artifactsDir, runID, req.EpisodeID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("step rewards not found for run id %s episode %s", runID, req.EpisodeID)
		}
	}
	return append([]float64(nil), rewards...), nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Plot renders a chart for a run and returns the written path.
func (c *Client) Plot(ctx context.Context, req PlotRequest) (string, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "plot")
	if err != nil {
		return "", err
	}
	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	if kind == "" {
		kind = "returns"
	}
	out := req.Out
	if out == "" {
		out = filepath.Join(c.artifactsDir, runID, kind+".png")
	}

	episodes, err := c.Episodes(ctx, EpisodesRequest{RunID: runID})
	if err != nil {
		return "", err
	}
	switch kind {
	case "returns":
		returns := make([]float64, 0, len(episodes))
		for _, ep := range episodes {
			returns = append(returns, ep.Return)
		}
		err = stats.WriteReturnCurve(out, runID, returns)
	case "cumulative":
		series := make([]stats.Series, 0, len(episodes))
		for _, ep := range episodes {
			rewards, err := c.StepRewards(ctx, StepRewardsRequest{RunID: runID, EpisodeID: ep.EpisodeID})
			if err != nil {
				return "", err
			}
			series = append(series, stats.Series{Name: ep.EpisodeID, Values: rewards})
		}
		err = stats.WriteCumulativeRewardCurves(out, runID, series)
	default:
		return "", fmt.Errorf("unsupported plot kind: %s", req.Kind)
	}
	if err != nil {
		return "", err
	}
	return filepath.Clean(out), nil
}

func (c *Client) Policies() []PolicyItem {
	names := reward.Names()
	out := make([]PolicyItem, 0, len(names))
	for _, name := range names {
		policy, err := reward.Resolve(name)
		if err != nil {
			continue
		}
		out = append(out, PolicyItem{Name: policy.Name, Classes: policy.Classes})
	}
	return out
}

// Policy resolves a registered policy, or loads path when it is set.
func (c *Client) Policy(name, path string) (reward.Policy, error) {
	return resolvePolicy(name, path)
}

func (c *Client) Morphologies() ([]MorphologyItem, error) {
	profiles := morphology.AvailableMorphologyProfiles(scape.GraspScapeName)
	out := make([]MorphologyItem, 0, len(profiles))
	for _, profile := range profiles {
		m, err := morphology.ConstructMorphology(scape.GraspScapeName, profile)
		if err != nil {
			return nil, err
		}
		out = append(out, MorphologyItem{
			Profile:  profile,
			Name:     m.Name(),
			Segments: m.Segments(),
			Sensors:  m.Sensors(),
		})
	}
	return out, nil
}

func (c *Client) resolveRunID(runID string, latest bool, op string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", fmt.Errorf("%s requires run id or latest", op)
	}
	return runID, nil
}

func resolvePolicy(name, path string) (reward.Policy, error) {
	if path != "" {
		return reward.LoadFile(path)
	}
	if name == "" {
		name = reward.BaselinePolicyName
	}
	return reward.Resolve(name)
}

func resolveMorphology(name, path string) (morphology.Morphology, error) {
	if path != "" {
		return morphology.LoadFile(path)
	}
	if name == "" {
		return morphology.ConstructMorphology(scape.GraspScapeName, "default")
	}
	return morphology.Resolve(name)
}

func episodeResult(ep model.EpisodeSummary) EpisodeResult {
	return EpisodeResult{
		EpisodeID: ep.EpisodeID,
		Steps:     ep.Steps,
		SimTime:   ep.SimTime,
		Return:    ep.Return,
		Touches:   ep.Touches,
		Releases:  ep.Releases,
		Dropped:   ep.Dropped,

		Observation:  ep.Observation,
		ContactFlags: ep.ContactFlags,
	}
}
