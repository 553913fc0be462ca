package nameid

import "testing"

func TestScape(t *testing.T) {
	cases := map[string]string{
		"grasp":           "grasp",
		"GRASP":           "grasp",
		"grasp_sim":       "grasp",
		"scape_grasp_sim": "grasp",
		"arm_grasp":       "grasp",
		"hand grasp":      "grasp",
		"cart_pole":       "cart-pole",
		"":                "",
	}
	for input, want := range cases {
		if got := Scape(input); got != want {
			t.Fatalf("Scape(%q)=%q want %q", input, got, want)
		}
	}
}

func TestPolicy(t *testing.T) {
	cases := map[string]string{
		"baseline":          "grasp-baseline-v1",
		"grasp_baseline_v1": "grasp-baseline-v1",
		"policy-scaled":     "grasp-scaled-v2",
		"V2":                "grasp-scaled-v2",
		"custom_table":      "custom-table",
	}
	for input, want := range cases {
		if got := Policy(input); got != want {
			t.Fatalf("Policy(%q)=%q want %q", input, got, want)
		}
	}
}

func TestMorphology(t *testing.T) {
	cases := map[string]string{
		"hand":                   "six-segment-hand-v1",
		"Six Segment Hand":       "six-segment-hand-v1",
		"three_finger":           "three-finger-hand-v1",
		"morphology-threefinger": "three-finger-hand-v1",
		"gripper":                "gripper",
	}
	for input, want := range cases {
		if got := Morphology(input); got != want {
			t.Fatalf("Morphology(%q)=%q want %q", input, got, want)
		}
	}
}
