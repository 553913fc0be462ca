package model

import (
	"fmt"
	"strings"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// SegmentClass selects which reward parameters apply to a segment.
type SegmentClass uint8

const (
	ClassBaseJoint SegmentClass = iota + 1
	ClassMidJoint
	ClassEndJoint
	ClassThumbJoint
	ClassPalm
)

var segmentClassNames = map[SegmentClass]string{
	ClassBaseJoint:  "base-joint",
	ClassMidJoint:   "mid-joint",
	ClassEndJoint:   "end-joint",
	ClassThumbJoint: "thumb-joint",
	ClassPalm:       "palm",
}

// SegmentClasses lists every class in declaration order.
func SegmentClasses() []SegmentClass {
	return []SegmentClass{ClassBaseJoint, ClassMidJoint, ClassEndJoint, ClassThumbJoint, ClassPalm}
}

func (c SegmentClass) String() string {
	if name, ok := segmentClassNames[c]; ok {
		return name
	}
	return fmt.Sprintf("segment-class(%d)", uint8(c))
}

func (c SegmentClass) Valid() bool {
	_, ok := segmentClassNames[c]
	return ok
}

// ParseSegmentClass accepts the canonical names plus underscore/space variants.
func ParseSegmentClass(name string) (SegmentClass, error) {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	switch normalized {
	case "base-joint", "base":
		return ClassBaseJoint, nil
	case "mid-joint", "mid", "middle":
		return ClassMidJoint, nil
	case "end-joint", "end", "tip":
		return ClassEndJoint, nil
	case "thumb-joint", "thumb":
		return ClassThumbJoint, nil
	case "palm":
		return ClassPalm, nil
	default:
		return 0, fmt.Errorf("unknown segment class: %s", name)
	}
}

func (c SegmentClass) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid segment class %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *SegmentClass) UnmarshalText(text []byte) error {
	parsed, err := ParseSegmentClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Segment is one contactable rigid body of the manipulator. Name doubles as
// the collider tag reported by the physics layer.
type Segment struct {
	Name  string       `json:"name" yaml:"name"`
	Class SegmentClass `json:"class" yaml:"class"`
}

type RunRecord struct {
	VersionedRecord
	ID           string  `json:"id"`
	Source       string  `json:"source"`
	Mode         string  `json:"mode"`
	Policy       string  `json:"policy"`
	Morphology   string  `json:"morphology"`
	TargetTag    string  `json:"target_tag"`
	Episodes     int     `json:"episodes"`
	MeanReturn   float64 `json:"mean_return"`
	CreatedAtUTC string  `json:"created_at_utc"`
	// ObservationLayout names the sensors whose readings make up each
	// episode's Observation, in order.
	ObservationLayout []string `json:"observation_layout,omitempty"`
}

type EpisodeSummary struct {
	VersionedRecord
	RunID          string         `json:"run_id"`
	EpisodeID      string         `json:"episode_id"`
	Index          int            `json:"index"`
	Mode           string         `json:"mode"`
	Steps          int            `json:"steps"`
	SimTime        float64        `json:"sim_time"`
	Return         float64        `json:"return"`
	Touches        int            `json:"touches"`
	Releases       int            `json:"releases"`
	Dropped        int            `json:"dropped"`
	SegmentTouches map[string]int `json:"segment_touches,omitempty"`
	// Observation is the final sensor reading of the episode. ContactFlags
	// is its per-segment contact part, in morphology segment order.
	Observation  []float64 `json:"observation,omitempty"`
	ContactFlags []float64 `json:"contact_flags,omitempty"`
}
