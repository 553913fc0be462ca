// Package contact holds the per-segment contact state machine that turns
// physics-step collision events into shaped reward deltas.
//
// A Tracker moves between three observable states:
//
//	Idle     (in=false, had=false) --OnContact--> Touching   immediate + continuous
//	Touching (in=true,  had=true)  --OnContact--> Touching   continuous, once per step
//	Touching                       --OnRelease--> Released   release penalty
//	Released (in=false, had=true)  --OnContact--> Touching   immediate + continuous
//
// Reset returns any state to Idle. Trackers are not safe for concurrent use;
// the step loop that owns them is single-threaded.
package contact

// ContactState is the bookkeeping for one segment.
type ContactState struct {
	InContact        bool
	HadContact       bool
	RewardedThisStep bool
}

// Tracker owns the ContactState of exactly one segment. The zero value is an
// Idle tracker.
type Tracker struct {
	state ContactState
}

// Reset clears contact history at episode start.
func (t *Tracker) Reset() {
	t.state.InContact = false
	t.state.HadContact = false
}

// BeginStep re-arms the continuous reward. Call exactly once per physics step
// before that step's contact events.
func (t *Tracker) BeginStep() {
	t.state.RewardedThisStep = false
}

// OnContact is called once per contact point resolved to this segment and
// returns the reward earned by that call. The immediate bonus fires on each
// not-touching to touching edge; the continuous reward fires at most once per
// step.
func (t *Tracker) OnContact(immediate, continuous float64) float64 {
	reward := 0.0
	if !t.state.InContact {
		t.state.InContact = true
		t.state.HadContact = true
		reward += immediate
	}
	if !t.state.RewardedThisStep {
		reward += continuous
		t.state.RewardedThisStep = true
	}
	return reward
}

// OnRelease is called when the segment stops touching the target. It returns
// penalty only for a segment that was touching; a stray exit for a segment
// that never touched earns nothing.
func (t *Tracker) OnRelease(penalty float64) float64 {
	reward := 0.0
	if t.state.InContact && t.state.HadContact {
		reward = penalty
	}
	t.state.InContact = false
	return reward
}

func (t *Tracker) InContact() bool {
	return t.state.InContact
}

func (t *Tracker) State() ContactState {
	return t.state
}
