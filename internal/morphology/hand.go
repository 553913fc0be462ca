package morphology

import (
	protoio "grasprl/internal/io"
	"grasprl/internal/model"
)

// SixSegmentHandMorphology is a single finger, a two-joint thumb and a palm.
// Segment names match the collider tags used by the scene.
type SixSegmentHandMorphology struct{}

func (SixSegmentHandMorphology) Name() string {
	return "six-segment-hand-v1"
}

func (SixSegmentHandMorphology) Segments() []model.Segment {
	return []model.Segment{
		{Name: "FingerBase", Class: model.ClassBaseJoint},
		{Name: "FingerMiddle", Class: model.ClassMidJoint},
		{Name: "FingerEnd", Class: model.ClassEndJoint},
		{Name: "ThumbBase", Class: model.ClassThumbJoint},
		{Name: "ThumbEnd", Class: model.ClassThumbJoint},
		{Name: "Palm", Class: model.ClassPalm},
	}
}

func (SixSegmentHandMorphology) Sensors() []string {
	return []string{protoio.ContactVectorSensorName}
}

func (SixSegmentHandMorphology) Compatible(scape string) bool {
	return scape == "grasp"
}

// ThreeFingerHandMorphology adds two more three-joint fingers and exposes the
// kinematics sensors next to the contact flags.
type ThreeFingerHandMorphology struct{}

func (ThreeFingerHandMorphology) Name() string {
	return "three-finger-hand-v1"
}

func (ThreeFingerHandMorphology) Segments() []model.Segment {
	segments := make([]model.Segment, 0, 12)
	for _, finger := range []string{"Index", "Middle", "Ring"} {
		segments = append(segments,
			model.Segment{Name: finger + "Base", Class: model.ClassBaseJoint},
			model.Segment{Name: finger + "Middle", Class: model.ClassMidJoint},
			model.Segment{Name: finger + "End", Class: model.ClassEndJoint},
		)
	}
	return append(segments,
		model.Segment{Name: "ThumbBase", Class: model.ClassThumbJoint},
		model.Segment{Name: "ThumbEnd", Class: model.ClassThumbJoint},
		model.Segment{Name: "Palm", Class: model.ClassPalm},
	)
}

func (ThreeFingerHandMorphology) Sensors() []string {
	return []string{
		protoio.ContactVectorSensorName,
		protoio.JointAngleSensorName,
		protoio.TargetDistanceSensorName,
	}
}

func (ThreeFingerHandMorphology) Compatible(scape string) bool {
	return scape == "grasp"
}

// CustomMorphology carries a segment list supplied by configuration.
type CustomMorphology struct {
	name     string
	segments []model.Segment
	sensors  []string
}

func NewCustomMorphology(name string, segments []model.Segment, sensors []string) (CustomMorphology, error) {
	if len(sensors) == 0 {
		sensors = []string{protoio.ContactVectorSensorName}
	}
	m := CustomMorphology{
		name:     name,
		segments: append([]model.Segment(nil), segments...),
		sensors:  append([]string(nil), sensors...),
	}
	if err := Validate(m); err != nil {
		return CustomMorphology{}, err
	}
	return m, nil
}

func (m CustomMorphology) Name() string {
	return m.name
}

func (m CustomMorphology) Segments() []model.Segment {
	return append([]model.Segment(nil), m.segments...)
}

func (m CustomMorphology) Sensors() []string {
	return append([]string(nil), m.sensors...)
}

func (m CustomMorphology) Compatible(scape string) bool {
	return scape == "grasp"
}
