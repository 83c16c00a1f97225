package zone

import "github.com/wayfarer-travel/service-companion/internal/domain/geo"

// TransitionKind describes how zone membership changed between two evaluations.
type TransitionKind string

const (
	TransitionNone  TransitionKind = "none"
	TransitionEnter TransitionKind = "enter"
	TransitionExit  TransitionKind = "exit"
)

// Transition is the result of a membership evaluation.
type Transition struct {
	Kind TransitionKind
	// Zone is the zone entered (enter) or left (exit).
	Zone *Zone
	// Previous is the zone held before an enter that switched zones directly.
	Previous *Zone
}

// Changed reports whether the evaluation produced an event.
func (t Transition) Changed() bool {
	return t.Kind != TransitionNone
}

// MembershipTracker remembers which zone, if any, currently contains the
// traveler. It is owned by a single session and is not safe for concurrent use.
type MembershipTracker struct {
	current *Zone
}

// NewMembershipTracker creates a tracker in the OUTSIDE state.
func NewMembershipTracker() *MembershipTracker {
	return &MembershipTracker{}
}

// Current returns the zone currently containing the traveler.
func (t *MembershipTracker) Current() (Zone, bool) {
	if t.current == nil {
		return Zone{}, false
	}
	return *t.current, true
}

// CurrentID returns the current zone ID, or "" when outside every zone.
func (t *MembershipTracker) CurrentID() string {
	if t.current == nil {
		return ""
	}
	return t.current.ID
}

// Evaluate re-derives membership from scratch for position against zones and
// returns the resulting transition. Staying inside the same zone ID, however
// many times it is evaluated, yields TransitionNone.
func (t *MembershipTracker) Evaluate(position geo.Coordinate, zones []Zone) Transition {
	next, inside := Containing(position, zones)

	switch {
	case inside && t.current != nil && t.current.ID == next.ID:
		// Refresh the snapshot in case the zone set was replaced with new details.
		t.current = &next
		return Transition{Kind: TransitionNone}

	case inside:
		prev := t.current
		t.current = &next
		entered := next
		return Transition{Kind: TransitionEnter, Zone: &entered, Previous: prev}

	case t.current != nil:
		left := *t.current
		t.current = nil
		return Transition{Kind: TransitionExit, Zone: &left}

	default:
		return Transition{Kind: TransitionNone}
	}
}

// Reset returns the tracker to OUTSIDE without emitting a transition.
func (t *MembershipTracker) Reset() {
	t.current = nil
}

// Containing picks the zone that contains position. When several zones
// overlap the most severe one wins; equal levels resolve to the earliest zone
// in the slice.
func Containing(position geo.Coordinate, zones []Zone) (Zone, bool) {
	var best *Zone
	for i := range zones {
		z := &zones[i]
		if !z.Contains(position) {
			continue
		}
		if best == nil || z.Level.MoreSevereThan(best.Level) {
			best = z
		}
	}
	if best == nil {
		return Zone{}, false
	}
	return *best, true
}
