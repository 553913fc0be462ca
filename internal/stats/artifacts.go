package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"grasprl/internal/model"
)

const runIndexFile = "run_index.json"

type RunConfig struct {
	RunID             string   `json:"run_id"`
	Source            string   `json:"source"`
	Mode              string   `json:"mode"`
	Policy            string   `json:"policy"`
	PolicyFile        string   `json:"policy_file,omitempty"`
	Morphology        string   `json:"morphology"`
	MorphologyFile    string   `json:"morphology_file,omitempty"`
	TargetTag         string   `json:"target_tag"`
	MaxSteps          int      `json:"max_steps,omitempty"`
	StoreKind         string   `json:"store_kind,omitempty"`
	ObservationLayout []string `json:"observation_layout,omitempty"`
}

type RunArtifacts struct {
	Config      RunConfig              `json:"config"`
	Episodes    []model.EpisodeSummary `json:"episodes"`
	StepRewards map[string][]float64   `json:"step_rewards,omitempty"`
	Summary     ReturnSummary          `json:"summary"`
}

type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Source       string  `json:"source"`
	Mode         string  `json:"mode"`
	Policy       string  `json:"policy"`
	Morphology   string  `json:"morphology"`
	Episodes     int     `json:"episodes"`
	MeanReturn   float64 `json:"mean_return"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// WriteRunArtifacts writes config.json, episodes.json, summary.json and one
// step-reward CSV per episode under baseDir/<run id>.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "episodes.json"), artifacts.Episodes); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), artifacts.Summary); err != nil {
		return "", err
	}
	if len(artifacts.StepRewards) > 0 {
		rewardsDir := filepath.Join(runDir, "step_rewards")
		if err := os.MkdirAll(rewardsDir, 0o755); err != nil {
			return "", err
		}
		for episodeID, rewards := range artifacts.StepRewards {
			if err := WriteStepRewardsCSV(filepath.Join(rewardsDir, episodeFileName(episodeID)), rewards); err != nil {
				return "", err
			}
		}
	}
	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns indexed runs newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run directory to outDir/<run id>.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	err := filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
	if err != nil {
		return "", err
	}
	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, "config.json"), &cfg)
	return cfg, ok, err
}

func ReadEpisodes(baseDir, runID string) ([]model.EpisodeSummary, bool, error) {
	var episodes []model.EpisodeSummary
	ok, err := readJSON(filepath.Join(baseDir, runID, "episodes.json"), &episodes)
	return episodes, ok, err
}

func ReadSummary(baseDir, runID string) (ReturnSummary, bool, error) {
	var summary ReturnSummary
	ok, err := readJSON(filepath.Join(baseDir, runID, "summary.json"), &summary)
	return summary, ok, err
}

func ReadStepRewards(baseDir, runID, episodeID string) ([]float64, bool, error) {
	return ReadStepRewardsCSV(filepath.Join(baseDir, runID, "step_rewards", episodeFileName(episodeID)))
}

// WriteStepRewardsCSV writes one row per physics step with the step reward
// and the running return.
func WriteStepRewardsCSV(path string, rewards []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"step", "reward", "return"}); err != nil {
		return err
	}
	for i, ret := range CumulativeReturns(rewards) {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(rewards[i], 'f', -1, 64),
			strconv.FormatFloat(ret, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadStepRewardsCSV(path string) ([]float64, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("step reward header must have at least 2 columns")
	}

	rewards := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 2 {
			return nil, false, fmt.Errorf("step reward row must have at least 2 columns")
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		rewards = append(rewards, value)
	}
	return rewards, true, nil
}

func episodeFileName(episodeID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, episodeID)
	return "episode_" + safe + ".csv"
}

func readJSON(path string, value any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
