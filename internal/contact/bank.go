package contact

import (
	"errors"
	"fmt"

	"grasprl/internal/model"
)

var (
	ErrDuplicateSegment = errors.New("duplicate segment")
	ErrInvalidSegment   = errors.New("invalid segment")
)

// SegmentID is a dense index into a Bank.
type SegmentID int

// Bank stores one Tracker per segment in a flat slice. Names are resolved to
// ids once, at construction.
type Bank struct {
	segments []model.Segment
	trackers []Tracker
	index    map[string]SegmentID
}

func NewBank(segments []model.Segment) (*Bank, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: at least one segment is required", ErrInvalidSegment)
	}
	b := &Bank{
		segments: append([]model.Segment(nil), segments...),
		trackers: make([]Tracker, len(segments)),
		index:    make(map[string]SegmentID, len(segments)),
	}
	for i, segment := range segments {
		if segment.Name == "" {
			return nil, fmt.Errorf("%w: segment %d has no name", ErrInvalidSegment, i)
		}
		if !segment.Class.Valid() {
			return nil, fmt.Errorf("%w: segment %s has class %s", ErrInvalidSegment, segment.Name, segment.Class)
		}
		if _, exists := b.index[segment.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSegment, segment.Name)
		}
		b.index[segment.Name] = SegmentID(i)
	}
	return b, nil
}

func (b *Bank) Len() int {
	return len(b.trackers)
}

// Resolve maps a collider tag to its segment id.
func (b *Bank) Resolve(name string) (SegmentID, bool) {
	id, ok := b.index[name]
	return id, ok
}

func (b *Bank) Segment(id SegmentID) model.Segment {
	return b.segments[id]
}

func (b *Bank) Segments() []model.Segment {
	return append([]model.Segment(nil), b.segments...)
}

func (b *Bank) ResetAll() {
	for i := range b.trackers {
		b.trackers[i].Reset()
	}
}

func (b *Bank) BeginStepAll() {
	for i := range b.trackers {
		b.trackers[i].BeginStep()
	}
}

func (b *Bank) Contact(id SegmentID, immediate, continuous float64) float64 {
	return b.trackers[id].OnContact(immediate, continuous)
}

func (b *Bank) Release(id SegmentID, penalty float64) float64 {
	return b.trackers[id].OnRelease(penalty)
}

func (b *Bank) InContact(id SegmentID) bool {
	return b.trackers[id].InContact()
}

func (b *Bank) State(id SegmentID) ContactState {
	return b.trackers[id].State()
}

// Observation writes the contact flags as 0/1 in segment order. dst is reused
// when it has enough capacity.
func (b *Bank) Observation(dst []float64) []float64 {
	if cap(dst) < len(b.trackers) {
		dst = make([]float64, len(b.trackers))
	}
	dst = dst[:len(b.trackers)]
	for i := range b.trackers {
		if b.trackers[i].InContact() {
			dst[i] = 1
		} else {
			dst[i] = 0
		}
	}
	return dst
}
