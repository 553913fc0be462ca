// Package replay reads recorded contact streams and feeds them to the grasp
// scape one physics step at a time.
//
// A recording is JSON lines, one physics step per line:
//
//	{"episode":"e1","dt":0.02,"events":[{"segment":"Palm","other":"Cylinder","kind":"begin"}]}
//
// joint_angles and target_distance may be added to a line to feed the
// kinematics sensors of morphologies that expose them.
//
// Lines are grouped into episodes by the episode field, in first-seen order.
// Lines without an episode field belong to DefaultEpisodeID.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"grasprl/internal/scape"
)

const DefaultEpisodeID = "0"

const maxLineBytes = 4 << 20

var ErrInvalidRecording = errors.New("invalid contact recording")

type Episode struct {
	ID    string
	Steps []scape.StepReport
}

// SimTime is the total simulated duration of the episode in seconds.
func (e Episode) SimTime() float64 {
	total := 0.0
	for _, step := range e.Steps {
		total += step.DT
	}
	return total
}

type line struct {
	Episode        episodeKey           `json:"episode,omitempty"`
	DT             float64              `json:"dt"`
	Events         []scape.ContactEvent `json:"events,omitempty"`
	JointAngles    []float64            `json:"joint_angles,omitempty"`
	TargetDistance *float64             `json:"target_distance,omitempty"`
}

// episodeKey accepts both string and numeric episode identifiers.
type episodeKey string

func (k *episodeKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = episodeKey(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("episode must be a string or number: %s", data)
	}
	*k = episodeKey(n.String())
	return nil
}

func ReadFile(path string) ([]Episode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	episodes, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read recording %s: %w", path, err)
	}
	return episodes, nil
}

func Read(r io.Reader) ([]Episode, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var episodes []Episode
	index := make(map[string]int)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidRecording, lineNo, err)
		}
		if l.DT < 0 {
			return nil, fmt.Errorf("%w: line %d: negative dt %g", ErrInvalidRecording, lineNo, l.DT)
		}
		for i, ev := range l.Events {
			if ev.Kind == 0 {
				return nil, fmt.Errorf("%w: line %d: event %d has no kind", ErrInvalidRecording, lineNo, i)
			}
		}

		id := string(l.Episode)
		if id == "" {
			id = DefaultEpisodeID
		}
		pos, ok := index[id]
		if !ok {
			pos = len(episodes)
			index[id] = pos
			episodes = append(episodes, Episode{ID: id})
		}
		episodes[pos].Steps = append(episodes[pos].Steps, scape.StepReport{
			DT:             l.DT,
			Events:         l.Events,
			JointAngles:    l.JointAngles,
			TargetDistance: l.TargetDistance,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return episodes, nil
}

// Write encodes episodes in the same line format Read accepts.
func Write(w io.Writer, episodes []Episode) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, ep := range episodes {
		for _, step := range ep.Steps {
			if err := enc.Encode(line{
				Episode:        episodeKey(ep.ID),
				DT:             step.DT,
				Events:         step.Events,
				JointAngles:    step.JointAngles,
				TargetDistance: step.TargetDistance,
			}); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Source replays one recorded episode as a scape.ContactSource.
type Source struct {
	id    string
	steps []scape.StepReport
	next  int
}

func NewSource(ep Episode) *Source {
	return &Source{id: "replay-" + ep.ID, steps: ep.Steps}
}

func (s *Source) ID() string {
	return s.id
}

func (s *Source) NextStep(ctx context.Context) (scape.StepReport, bool, error) {
	if err := ctx.Err(); err != nil {
		return scape.StepReport{}, false, err
	}
	if s.next >= len(s.steps) {
		return scape.StepReport{}, false, nil
	}
	report := s.steps[s.next]
	s.next++
	return report, true, nil
}

// Remaining reports how many steps have not been delivered yet.
func (s *Source) Remaining() int {
	return len(s.steps) - s.next
}
