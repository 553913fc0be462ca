package morphology

import (
	"errors"
	"fmt"

	protoio "grasprl/internal/io"
	"grasprl/internal/model"
	"grasprl/internal/nameid"
	"grasprl/internal/reward"
)

var ErrInvalidMorphology = errors.New("invalid morphology")

// Morphology defines the contactable segments of a manipulator and the
// observation sensors it exposes for a scape.
type Morphology interface {
	Name() string
	Segments() []model.Segment
	Sensors() []string
	Compatible(scape string) bool
}

// Classes returns the distinct segment classes used by m, in segment order.
func Classes(m Morphology) []model.SegmentClass {
	seen := make(map[model.SegmentClass]bool)
	var classes []model.SegmentClass
	for _, segment := range m.Segments() {
		if seen[segment.Class] {
			continue
		}
		seen[segment.Class] = true
		classes = append(classes, segment.Class)
	}
	return classes
}

// Validate checks that segment names are present and unique and that every
// class is known.
func Validate(m Morphology) error {
	segments := m.Segments()
	if len(segments) == 0 {
		return fmt.Errorf("%w: %s has no segments", ErrInvalidMorphology, m.Name())
	}
	names := make(map[string]bool, len(segments))
	for i, segment := range segments {
		if segment.Name == "" {
			return fmt.Errorf("%w: %s segment %d has no name", ErrInvalidMorphology, m.Name(), i)
		}
		if !segment.Class.Valid() {
			return fmt.Errorf("%w: %s segment %s has unknown class", ErrInvalidMorphology, m.Name(), segment.Name)
		}
		if names[segment.Name] {
			return fmt.Errorf("%w: %s repeats segment %s", ErrInvalidMorphology, m.Name(), segment.Name)
		}
		names[segment.Name] = true
	}
	return nil
}

func ValidateRegisteredComponents(scapeName string, m Morphology) error {
	_, err := ResolveSensors(scapeName, m)
	return err
}

// ResolveSensors builds one sensor per name in m.Sensors(), in order. Vector
// sensors are sized to one value per segment.
func ResolveSensors(scapeName string, m Morphology) ([]protoio.Sensor, error) {
	scapeName = nameid.Scape(scapeName)
	if !m.Compatible(scapeName) {
		return nil, fmt.Errorf("morphology %s incompatible with scape %s", m.Name(), scapeName)
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	names := m.Sensors()
	sensors := make([]protoio.Sensor, 0, len(names))
	for _, sensorName := range names {
		sensor, err := protoio.ResolveSensor(sensorName, scapeName, len(m.Segments()))
		if err != nil {
			return nil, fmt.Errorf("resolve sensor %s: %w", sensorName, err)
		}
		sensors = append(sensors, sensor)
	}
	return sensors, nil
}

// EnsurePolicyCompatibility fails when policy has no parameters for one of
// the segment classes m uses.
func EnsurePolicyCompatibility(m Morphology, policy reward.Policy) error {
	if err := policy.Covers(Classes(m)); err != nil {
		return fmt.Errorf("morphology %s: %w", m.Name(), err)
	}
	return nil
}
