package reward

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"grasprl/internal/model"
)

var ErrInvalidPolicyFile = errors.New("invalid reward policy file")

// policyFile is the on-disk YAML layout:
//
//	name: my-table
//	window_seconds: 5
//	release_penalty: -0.02
//	classes:
//	  palm: {immediate: 0.25, continuous_per_window: 0.003}
//	  end-joint: {immediate: 0.05, continuous_rate: 0.0002, release_penalty: -0.05}
type policyFile struct {
	Name           string                       `yaml:"name"`
	WindowSeconds  float64                      `yaml:"window_seconds"`
	ReleasePenalty *float64                     `yaml:"release_penalty"`
	Extends        string                       `yaml:"extends"`
	Classes        map[model.SegmentClass]entry `yaml:"classes"`
}

type entry struct {
	Immediate           *float64 `yaml:"immediate"`
	ContinuousRate      *float64 `yaml:"continuous_rate"`
	ContinuousPerWindow *float64 `yaml:"continuous_per_window"`
	ReleasePenalty      *float64 `yaml:"release_penalty"`
}

// LoadFile reads a YAML policy table from path.
func LoadFile(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, err
	}
	policy, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Policy{}, fmt.Errorf("load policy %s: %w", path, err)
	}
	return policy, nil
}

// Decode parses a YAML policy table. When extends names a registered policy,
// classes and fields not present in the document are inherited from it. A
// top-level release_penalty applies to every class that does not set its own.
func Decode(r io.Reader) (Policy, error) {
	var raw policyFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return Policy{}, fmt.Errorf("%w: %v", ErrInvalidPolicyFile, err)
	}
	if raw.Name == "" {
		return Policy{}, fmt.Errorf("%w: name is required", ErrInvalidPolicyFile)
	}
	window := raw.WindowSeconds
	if window < 0 {
		return Policy{}, fmt.Errorf("%w: window_seconds must be positive", ErrInvalidPolicyFile)
	}
	if window == 0 {
		window = 1
	}

	policy := Policy{Name: raw.Name, Classes: make(map[model.SegmentClass]Params, len(raw.Classes))}
	if raw.Extends != "" {
		base, err := Resolve(raw.Extends)
		if err != nil {
			return Policy{}, err
		}
		policy.Classes = base.Clone().Classes
	}

	for class, e := range raw.Classes {
		params := policy.Classes[class]
		if e.Immediate != nil {
			params.Immediate = *e.Immediate
		}
		switch {
		case e.ContinuousRate != nil && e.ContinuousPerWindow != nil:
			return Policy{}, fmt.Errorf("%w: class %s sets both continuous_rate and continuous_per_window", ErrInvalidPolicyFile, class)
		case e.ContinuousRate != nil:
			params.ContinuousRate = *e.ContinuousRate
		case e.ContinuousPerWindow != nil:
			params.ContinuousRate = *e.ContinuousPerWindow / window
		}
		if e.ReleasePenalty != nil {
			params.ReleasePenalty = *e.ReleasePenalty
		}
		policy.Classes[class] = params
	}
	if len(policy.Classes) == 0 {
		return Policy{}, fmt.Errorf("%w: no classes defined", ErrInvalidPolicyFile)
	}
	if raw.ReleasePenalty != nil {
		for class, params := range policy.Classes {
			if e, ok := raw.Classes[class]; ok && e.ReleasePenalty != nil {
				continue
			}
			params.ReleasePenalty = *raw.ReleasePenalty
			policy.Classes[class] = params
		}
	}
	return policy, nil
}

// Encode writes policy as YAML using per-second rates.
func Encode(w io.Writer, policy Policy) error {
	raw := struct {
		Name    string                        `yaml:"name"`
		Classes map[model.SegmentClass]Params `yaml:"classes"`
	}{Name: policy.Name, Classes: policy.Classes}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(raw); err != nil {
		return err
	}
	return enc.Close()
}
