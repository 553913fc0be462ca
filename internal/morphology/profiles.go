package morphology

import (
	"fmt"
	"sort"
	"strings"

	"grasprl/internal/nameid"
)

func ConstructMorphology(scapeName, profile string) (Morphology, error) {
	scapeName = nameid.Scape(scapeName)
	profile = normalizeMorphologyProfile(profile)
	switch scapeName {
	case "grasp":
		switch profile {
		case "", "default", "hand", "six_segment", "six_segment_hand", "six_segment_hand_v1":
			return SixSegmentHandMorphology{}, nil
		case "three_finger", "three_finger_hand", "three_finger_hand_v1", "full":
			return ThreeFingerHandMorphology{}, nil
		default:
			return nil, fmt.Errorf("unsupported grasp morphology profile: %s", profile)
		}
	default:
		return nil, fmt.Errorf("unsupported scape morphology: %s", scapeName)
	}
}

// Resolve looks a built-in morphology up by name or alias.
func Resolve(name string) (Morphology, error) {
	switch nameid.Morphology(name) {
	case "", SixSegmentHandMorphology{}.Name():
		return SixSegmentHandMorphology{}, nil
	case ThreeFingerHandMorphology{}.Name():
		return ThreeFingerHandMorphology{}, nil
	default:
		return nil, fmt.Errorf("unknown morphology: %s", name)
	}
}

func AvailableMorphologyProfiles(scapeName string) []string {
	var profiles []string
	switch nameid.Scape(scapeName) {
	case "grasp":
		profiles = []string{"default", "three_finger"}
	}
	sort.Strings(profiles)
	return profiles
}

func normalizeMorphologyProfile(raw string) string {
	profile := strings.TrimSpace(strings.ToLower(raw))
	profile = strings.ReplaceAll(profile, "-", "_")
	return profile
}
