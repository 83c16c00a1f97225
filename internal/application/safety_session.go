package application

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarer-travel/service-companion/internal/domain/alert"
	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
)

// SafetyView is the response representation of a traveler's safety session.
type SafetyView struct {
	TravelerID   uuid.UUID         `json:"traveler_id"`
	Position     geo.Coordinate    `json:"position"`
	UsedFallback bool              `json:"used_fallback"`
	Status       zone.SafetyStatus `json:"status"`
	CurrentZone  *zone.Zone        `json:"current_zone,omitempty"`
	Alert        *alert.ZoneAlert  `json:"alert,omitempty"`
	ZoneCount    int               `json:"zone_count"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// safetyInput is one change to a session: a new position, a new zone set, or both.
type safetyInput struct {
	position     *geo.Coordinate
	usedFallback bool
	zones        []zone.Zone
	replaceZones bool
	anchor       geo.Coordinate
}

// safetyOutcome is what a single recomputation produced.
type safetyOutcome struct {
	view          SafetyView
	transition    zone.Transition
	raised        *alert.ZoneAlert
	previous      zone.SafetyStatus
	statusChanged bool
}

// safetySession owns all per-traveler zone tracking state. Every input runs
// tracker, aggregator and dispatcher to completion under mu, so two updates
// never interleave.
type safetySession struct {
	travelerID uuid.UUID
	tracker    *zone.MembershipTracker
	aggregator *zone.SafetyAggregator
	dispatcher *alert.Dispatcher

	// publishMu orders each recomputation with its events. Take it before mu.
	publishMu sync.Mutex

	mu           sync.Mutex
	zones        []zone.Zone
	anchor       geo.Coordinate
	position     geo.Coordinate
	usedFallback bool
	status       zone.SafetyStatus
	updatedAt    time.Time
	closed       bool
}

func newSafetySession(travelerID uuid.UUID, aggregator *zone.SafetyAggregator, dispatcher *alert.Dispatcher, zones []zone.Zone, anchor geo.Coordinate) *safetySession {
	return &safetySession{
		travelerID: travelerID,
		tracker:    zone.NewMembershipTracker(),
		aggregator: aggregator,
		dispatcher: dispatcher,
		zones:      zones,
		anchor:     anchor,
		position:   anchor,
	}
}

// apply folds in and recomputes the whole pipeline. It reports false if the
// session was closed concurrently.
func (s *safetySession) apply(in safetyInput, now time.Time) (safetyOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return safetyOutcome{}, false
	}
	if in.position != nil {
		s.position = *in.position
		s.usedFallback = in.usedFallback
	}
	if in.replaceZones {
		s.zones = in.zones
		s.anchor = in.anchor
	}

	tr := s.tracker.Evaluate(s.position, s.zones)
	previous := s.status
	s.status = s.aggregator.Aggregate(s.position, s.zones)
	raised, _ := s.dispatcher.Handle(tr)
	s.updatedAt = now

	return safetyOutcome{
		view:          s.viewLocked(),
		transition:    tr,
		raised:        raised,
		previous:      previous,
		statusChanged: previous.Level != s.status.Level || previous.ActiveAlertCount != s.status.ActiveAlertCount,
	}, true
}

func (s *safetySession) view() SafetyView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *safetySession) viewLocked() SafetyView {
	v := SafetyView{
		TravelerID:   s.travelerID,
		Position:     s.position,
		UsedFallback: s.usedFallback,
		Status:       s.status,
		ZoneCount:    len(s.zones),
		UpdatedAt:    s.updatedAt,
	}
	if z, ok := s.tracker.Current(); ok {
		v.CurrentZone = &z
	}
	if a, ok := s.dispatcher.Active(); ok {
		v.Alert = &a
	}
	return v
}

func (s *safetySession) currentPosition() geo.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// distanceFromAnchor is how far position is from where the zone set was fetched.
func (s *safetySession) distanceFromAnchor(position geo.Coordinate) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return geo.Distance(s.anchor, position)
}

func (s *safetySession) nearby(maxDistance float64) []zone.NearbyZone {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregator.Nearby(s.position, s.zones, maxDistance)
}

func (s *safetySession) dismiss(alertID uuid.UUID) (SafetyView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dismissed := s.dispatcher.Dismiss(alertID)
	return s.viewLocked(), dismissed
}

func (s *safetySession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.dispatcher.Close()
	s.tracker.Reset()
}
