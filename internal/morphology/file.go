package morphology

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"grasprl/internal/model"
)

// morphologyFile is the on-disk YAML layout:
//
//	name: pinch-gripper
//	segments:
//	  - {name: LeftTip, class: end-joint}
//	  - {name: RightTip, class: thumb}
//	sensors: [grasp_contact_vector]
type morphologyFile struct {
	Name     string          `yaml:"name"`
	Segments []model.Segment `yaml:"segments"`
	Sensors  []string        `yaml:"sensors"`
}

// LoadFile reads a YAML segment topology from path.
func LoadFile(path string) (CustomMorphology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CustomMorphology{}, err
	}
	m, err := Decode(bytes.NewReader(data))
	if err != nil {
		return CustomMorphology{}, fmt.Errorf("load morphology %s: %w", path, err)
	}
	return m, nil
}

// Decode parses a YAML segment topology. Segment order is the observation
// order; sensors default to the contact vector alone.
func Decode(r io.Reader) (CustomMorphology, error) {
	var raw morphologyFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return CustomMorphology{}, fmt.Errorf("%w: %v", ErrInvalidMorphology, err)
	}
	if raw.Name == "" {
		return CustomMorphology{}, fmt.Errorf("%w: name is required", ErrInvalidMorphology)
	}
	return NewCustomMorphology(raw.Name, raw.Segments, raw.Sensors)
}
