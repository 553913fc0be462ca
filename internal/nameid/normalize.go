// Package nameid canonicalizes user-facing identifiers for scapes, reward
// policies and morphologies.
package nameid

import "strings"

// Normalize lowercases name and folds underscores and spaces into dashes.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	return strings.Trim(normalized, "-")
}

// Scape resolves scape aliases such as "scape_grasp_sim" to "grasp".
func Scape(name string) string {
	normalized := Normalize(name)
	if normalized == "" {
		return ""
	}
	for _, candidate := range aliasCandidates(normalized, "scape") {
		switch strings.ReplaceAll(candidate, "-", "") {
		case "grasp", "armgrasp", "handgrasp":
			return "grasp"
		}
	}
	return normalized
}

// Policy resolves reward policy aliases to their registered names.
func Policy(name string) string {
	normalized := Normalize(name)
	if normalized == "" {
		return ""
	}
	for _, candidate := range aliasCandidates(normalized, "policy") {
		switch strings.ReplaceAll(candidate, "-", "") {
		case "baseline", "graspbaseline", "graspbaselinev1", "v1":
			return "grasp-baseline-v1"
		case "scaled", "graspscaled", "graspscaledv2", "v2":
			return "grasp-scaled-v2"
		}
	}
	return normalized
}

// Morphology resolves morphology aliases to their registered names.
func Morphology(name string) string {
	normalized := Normalize(name)
	if normalized == "" {
		return ""
	}
	for _, candidate := range aliasCandidates(normalized, "morphology") {
		switch strings.ReplaceAll(candidate, "-", "") {
		case "hand", "sixsegment", "sixsegmenthand", "sixsegmenthandv1":
			return "six-segment-hand-v1"
		case "threefinger", "threefingerhand", "threefingerhandv1":
			return "three-finger-hand-v1"
		}
	}
	return normalized
}

func aliasCandidates(normalized, prefix string) []string {
	candidate := strings.TrimPrefix(normalized, prefix+"-")
	candidate = strings.Trim(candidate, "-")

	candidates := []string{normalized}
	if candidate != "" && candidate != normalized {
		candidates = append(candidates, candidate)
	}

	trimmedCandidate := trimSimSuffix(candidate)
	if trimmedCandidate != "" && trimmedCandidate != candidate {
		candidates = append(candidates, trimmedCandidate)
	}
	return candidates
}

func trimSimSuffix(value string) string {
	switch {
	case strings.HasSuffix(value, "-sim"):
		return strings.TrimSuffix(value, "-sim")
	case strings.HasSuffix(value, "sim") && !strings.Contains(value, "-"):
		return strings.TrimSuffix(value, "sim")
	default:
		return value
	}
}
