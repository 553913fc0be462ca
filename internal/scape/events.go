package scape

import (
	"fmt"
	"strings"
)

// ContactKind is the lifecycle phase of one collider pair in a physics step.
type ContactKind uint8

const (
	ContactBegin ContactKind = iota + 1
	ContactStay
	ContactExit
)

func (k ContactKind) String() string {
	switch k {
	case ContactBegin:
		return "begin"
	case ContactStay:
		return "stay"
	case ContactExit:
		return "exit"
	default:
		return fmt.Sprintf("contact-kind(%d)", uint8(k))
	}
}

// Touching reports whether the event keeps the segment in contact.
func (k ContactKind) Touching() bool {
	return k == ContactBegin || k == ContactStay
}

func ParseContactKind(raw string) (ContactKind, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "begin", "enter":
		return ContactBegin, nil
	case "stay", "continue":
		return ContactStay, nil
	case "exit", "end":
		return ContactExit, nil
	default:
		return 0, fmt.Errorf("unknown contact kind: %s", raw)
	}
}

func (k ContactKind) MarshalText() ([]byte, error) {
	switch k {
	case ContactBegin, ContactStay, ContactExit:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("invalid contact kind %d", uint8(k))
	}
}

func (k *ContactKind) UnmarshalText(text []byte) error {
	parsed, err := ParseContactKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ContactEvent reports that the collider tagged Segment touched (or stopped
// touching) the body tagged Other during one physics step.
type ContactEvent struct {
	Segment string      `json:"segment"`
	Other   string      `json:"other,omitempty"`
	Kind    ContactKind `json:"kind"`
}

// StepReport is everything the physics layer delivers for one step.
type StepReport struct {
	DT     float64        `json:"dt"`
	Events []ContactEvent `json:"events,omitempty"`

	// JointAngles and TargetDistance are kinematics computed outside the
	// contact core. When present they are published to the matching sensors.
	JointAngles    []float64 `json:"joint_angles,omitempty"`
	TargetDistance *float64  `json:"target_distance,omitempty"`
}
