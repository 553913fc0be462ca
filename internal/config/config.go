// Package config loads grasprl run settings from YAML files and environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"grasprl/internal/logging"
	"grasprl/internal/storage"
)

// DefaultFile is read by Load when no explicit path is given and it exists.
const DefaultFile = "grasprl.yaml"

type Config struct {
	Replay  ReplayConfig  `json:"replay" yaml:"replay"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

type ReplayConfig struct {
	// Policy names a registered reward policy. PolicyFile, when set, takes
	// precedence and is loaded as a YAML policy table.
	Policy     string `json:"policy" yaml:"policy"`
	PolicyFile string `json:"policy_file,omitempty" yaml:"policy_file,omitempty"`

	// Morphology names a built-in hand. MorphologyFile, when set, takes
	// precedence and is loaded as a YAML segment topology.
	Morphology     string `json:"morphology" yaml:"morphology"`
	MorphologyFile string `json:"morphology_file,omitempty" yaml:"morphology_file,omitempty"`

	// TargetTag is the body contacts must touch to count. "*" accepts any.
	TargetTag string `json:"target_tag" yaml:"target_tag"`

	// Mode is one of gt, validation, test, benchmark.
	Mode string `json:"mode" yaml:"mode"`

	// MaxSteps overrides the per-mode step cap when positive.
	MaxSteps int `json:"max_steps,omitempty" yaml:"max_steps,omitempty"`
}

type StorageConfig struct {
	Kind         string `json:"kind" yaml:"kind"`
	DBPath       string `json:"db_path" yaml:"db_path"`
	ArtifactsDir string `json:"artifacts_dir" yaml:"artifacts_dir"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

func Default() *Config {
	return &Config{
		Replay: ReplayConfig{
			Policy:     "grasp-baseline-v1",
			Morphology: "six-segment-hand-v1",
			TargetTag:  "Cylinder",
			Mode:       "gt",
		},
		Storage: StorageConfig{
			Kind:         storage.DefaultStoreKind(),
			DBPath:       "grasprl.db",
			ArtifactsDir: "runs",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load applies defaults, then the YAML file at path (or DefaultFile when path
// is empty and the file exists), then environment overrides. The result is
// not validated so callers can layer flags on top before calling Validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.Storage.DBPath = os.ExpandEnv(cfg.Storage.DBPath)
	cfg.Storage.ArtifactsDir = os.ExpandEnv(cfg.Storage.ArtifactsDir)
	cfg.Replay.PolicyFile = os.ExpandEnv(cfg.Replay.PolicyFile)
	cfg.Replay.MorphologyFile = os.ExpandEnv(cfg.Replay.MorphologyFile)
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Replay.Policy) == "" && strings.TrimSpace(c.Replay.PolicyFile) == "" {
		return fmt.Errorf("replay.policy or replay.policy_file is required")
	}
	if strings.TrimSpace(c.Replay.Morphology) == "" && strings.TrimSpace(c.Replay.MorphologyFile) == "" {
		return fmt.Errorf("replay.morphology or replay.morphology_file is required")
	}
	if c.Replay.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative, got %d", c.Replay.MaxSteps)
	}
	switch strings.ToLower(strings.TrimSpace(c.Replay.Mode)) {
	case "", "gt", "validation", "test", "benchmark":
	default:
		return fmt.Errorf("invalid mode: %s (valid: gt, validation, test, benchmark)", c.Replay.Mode)
	}
	switch c.Storage.Kind {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("invalid store kind: %s (valid: memory, sqlite)", c.Storage.Kind)
	}
	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: trace, debug, info, warn, error)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GRASPRL_POLICY"); v != "" {
		cfg.Replay.Policy = v
	}
	if v := os.Getenv("GRASPRL_POLICY_FILE"); v != "" {
		cfg.Replay.PolicyFile = v
	}
	if v := os.Getenv("GRASPRL_MORPHOLOGY"); v != "" {
		cfg.Replay.Morphology = v
	}
	if v := os.Getenv("GRASPRL_MORPHOLOGY_FILE"); v != "" {
		cfg.Replay.MorphologyFile = v
	}
	if v := os.Getenv("GRASPRL_TARGET_TAG"); v != "" {
		cfg.Replay.TargetTag = v
	}
	if v := os.Getenv("GRASPRL_MODE"); v != "" {
		cfg.Replay.Mode = v
	}
	if v := os.Getenv("GRASPRL_MAX_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GRASPRL_MAX_STEPS: %w", err)
		}
		cfg.Replay.MaxSteps = n
	}
	if v := os.Getenv("GRASPRL_STORE"); v != "" {
		cfg.Storage.Kind = v
	}
	if v := os.Getenv("GRASPRL_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("GRASPRL_ARTIFACTS_DIR"); v != "" {
		cfg.Storage.ArtifactsDir = v
	}
	if v := os.Getenv("GRASPRL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("GRASPRL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}
