// Package reward defines the swappable reward-shaping tables consulted by the
// contact trackers. Policies are plain data; nothing here holds episode state.
package reward

import (
	"errors"
	"fmt"
	"sort"

	"grasprl/internal/model"
)

var ErrClassMissing = errors.New("policy has no parameters for segment class")

// Params are the three tunables for one segment class. ContinuousRate is per
// second of simulated time; ReleasePenalty is normally negative but its sign
// is not checked.
type Params struct {
	Immediate      float64 `json:"immediate" yaml:"immediate"`
	ContinuousRate float64 `json:"continuous_rate" yaml:"continuous_rate"`
	ReleasePenalty float64 `json:"release_penalty" yaml:"release_penalty"`
}

// Continuous is the per-step continuous reward for a step lasting dt seconds.
func (p Params) Continuous(dt float64) float64 {
	return p.ContinuousRate * dt
}

type Policy struct {
	Name    string
	Classes map[model.SegmentClass]Params
}

func (p Policy) Params(class model.SegmentClass) (Params, bool) {
	params, ok := p.Classes[class]
	return params, ok
}

// Covers reports the first class in classes that the policy cannot price.
func (p Policy) Covers(classes []model.SegmentClass) error {
	for _, class := range classes {
		if _, ok := p.Classes[class]; !ok {
			return fmt.Errorf("%w: policy=%s class=%s", ErrClassMissing, p.Name, class)
		}
	}
	return nil
}

// Clone returns a copy whose class table can be modified independently.
func (p Policy) Clone() Policy {
	classes := make(map[model.SegmentClass]Params, len(p.Classes))
	for class, params := range p.Classes {
		classes[class] = params
	}
	return Policy{Name: p.Name, Classes: classes}
}

// SortedClasses returns the priced classes in declaration order.
func (p Policy) SortedClasses() []model.SegmentClass {
	classes := make([]model.SegmentClass, 0, len(p.Classes))
	for class := range p.Classes {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}
