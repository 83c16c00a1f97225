package application

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wayfarer-travel/service-companion/internal/clock"
	"github.com/wayfarer-travel/service-companion/internal/contract"
	"github.com/wayfarer-travel/service-companion/internal/domain"
	"github.com/wayfarer-travel/service-companion/internal/domain/alert"
	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
	"github.com/wayfarer-travel/service-companion/internal/observability"
)

const pipelineSafety = "safety"

// SafetyConfig holds the tunables of the safety pipeline.
type SafetyConfig struct {
	HaloMultiplier float64
	AlertTTL       time.Duration
	// RefreshDistance is how far a traveler may move from where the zone set
	// was fetched before it is fetched again. Zero disables automatic refresh.
	RefreshDistance float64
	Topic           string
	Fallback        geo.Coordinate
}

// PositionUpdate is a location sample as reported by a device. A sample
// without coordinates, or flagged unavailable, stands for a failed fix.
type PositionUpdate struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Unavailable bool     `json:"unavailable"`
}

// NewPositionUpdate builds an available sample from a coordinate.
func NewPositionUpdate(c geo.Coordinate) PositionUpdate {
	lat, lng := c.Latitude, c.Longitude
	return PositionUpdate{Latitude: &lat, Longitude: &lng}
}

// SafetyService is the application service running the zone safety
// pipeline, one session per traveler.
type SafetyService struct {
	provider  zone.Provider
	clock     clock.Clock
	cfg       SafetyConfig
	publisher EventPublisher
	metrics   *observability.EngineCollector
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*safetySession
}

// NewSafetyService creates a new SafetyService. publisher and metrics may be nil.
func NewSafetyService(
	provider zone.Provider,
	c clock.Clock,
	cfg SafetyConfig,
	publisher EventPublisher,
	metrics *observability.EngineCollector,
	logger *zap.Logger,
) *SafetyService {
	if cfg.Topic == "" {
		cfg.Topic = contract.TopicSafetyEvents
	}
	return &SafetyService{
		provider:  provider,
		clock:     c,
		cfg:       cfg,
		publisher: publisherOrDiscard(publisher),
		metrics:   metrics,
		logger:    logger,
		sessions:  make(map[uuid.UUID]*safetySession),
	}
}

// ResolvePosition turns a device sample into an engine coordinate,
// substituting the configured fallback when the fix failed. The boolean
// reports whether the fallback was used.
func (s *SafetyService) ResolvePosition(u PositionUpdate) (geo.Coordinate, bool, error) {
	if u.Unavailable || u.Latitude == nil || u.Longitude == nil {
		return s.cfg.Fallback, true, nil
	}
	c := geo.Coordinate{Latitude: *u.Latitude, Longitude: *u.Longitude}
	if !c.Valid() {
		return geo.Coordinate{}, false, domain.NewValidationError(fmt.Sprintf("invalid coordinate %s", c))
	}
	return c, false, nil
}

// UpdatePosition feeds a position sample into the traveler's session,
// creating the session and loading its zone set on first use.
func (s *SafetyService) UpdatePosition(ctx context.Context, travelerID uuid.UUID, update PositionUpdate) (*SafetyView, error) {
	position, usedFallback, err := s.ResolvePosition(update)
	if err != nil {
		return nil, err
	}

	sess, created, err := s.getOrCreate(ctx, travelerID, position)
	if err != nil {
		return nil, err
	}

	in := safetyInput{position: &position, usedFallback: usedFallback}
	if !created && s.cfg.RefreshDistance > 0 && sess.distanceFromAnchor(position) > s.cfg.RefreshDistance {
		zones, err := s.fetchZones(ctx, position)
		if err != nil {
			s.logger.Warn("zone refresh failed, keeping previous zone set",
				zap.String("traveler_id", travelerID.String()),
				zap.Error(err),
			)
		} else {
			in.zones, in.replaceZones, in.anchor = zones, true, position
		}
	}

	return s.applyAndPublish(ctx, sess, in)
}

// RefreshZones refetches the zone set at the traveler's last position and
// recomputes the session against it.
func (s *SafetyService) RefreshZones(ctx context.Context, travelerID uuid.UUID) (*SafetyView, error) {
	sess, err := s.lookup(travelerID)
	if err != nil {
		return nil, err
	}

	position := sess.currentPosition()
	zones, err := s.fetchZones(ctx, position)
	if err != nil {
		return nil, err
	}

	return s.applyAndPublish(ctx, sess, safetyInput{zones: zones, replaceZones: true, anchor: position})
}

// GetStatus returns the traveler's current safety view.
func (s *SafetyService) GetStatus(_ context.Context, travelerID uuid.UUID) (*SafetyView, error) {
	sess, err := s.lookup(travelerID)
	if err != nil {
		return nil, err
	}
	v := sess.view()
	return &v, nil
}

// NearbyZones lists the session's zones within maxDistance meters, nearest
// first. A maxDistance of zero lists every zone.
func (s *SafetyService) NearbyZones(_ context.Context, travelerID uuid.UUID, maxDistance float64) ([]zone.NearbyZone, error) {
	if maxDistance < 0 || math.IsNaN(maxDistance) {
		return nil, domain.NewValidationError("max distance must not be negative")
	}
	sess, err := s.lookup(travelerID)
	if err != nil {
		return nil, err
	}
	return sess.nearby(maxDistance), nil
}

// DismissAlert hides the visible alert if alertID still identifies it.
// Dismissing an alert that already went away is not an error.
func (s *SafetyService) DismissAlert(_ context.Context, travelerID, alertID uuid.UUID) (*SafetyView, error) {
	sess, err := s.lookup(travelerID)
	if err != nil {
		return nil, err
	}
	v, dismissed := sess.dismiss(alertID)
	if !dismissed {
		s.logger.Debug("dismiss ignored for stale alert",
			zap.String("traveler_id", travelerID.String()),
			zap.String("alert_id", alertID.String()),
		)
	}
	return &v, nil
}

// EndSession tears down the traveler's session and all of its timers.
func (s *SafetyService) EndSession(_ context.Context, travelerID uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[travelerID]
	delete(s.sessions, travelerID)
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return domain.NewNotFoundError("safety session", travelerID.String())
	}
	sess.close()
	s.metrics.SetActiveSessions(pipelineSafety, n)
	s.logger.Info("safety session ended", zap.String("traveler_id", travelerID.String()))
	return nil
}

// ActiveSessions returns the number of open sessions.
func (s *SafetyService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close ends every session.
func (s *SafetyService) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[uuid.UUID]*safetySession)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
	s.metrics.SetActiveSessions(pipelineSafety, 0)
}

func (s *SafetyService) lookup(travelerID uuid.UUID) (*safetySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[travelerID]
	if !ok {
		return nil, domain.NewNotFoundError("safety session", travelerID.String())
	}
	return sess, nil
}

func (s *SafetyService) getOrCreate(ctx context.Context, travelerID uuid.UUID, position geo.Coordinate) (*safetySession, bool, error) {
	if sess, err := s.lookup(travelerID); err == nil {
		return sess, false, nil
	}

	// The provider may do I/O, so fetch before taking the registry lock.
	zones, err := s.fetchZones(ctx, position)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	if sess, ok := s.sessions[travelerID]; ok {
		s.mu.Unlock()
		return sess, false, nil
	}
	sess := newSafetySession(
		travelerID,
		zone.NewSafetyAggregator(s.cfg.HaloMultiplier),
		alert.NewDispatcher(s.clock, s.cfg.AlertTTL, s.onAlertCleared(travelerID)),
		zones,
		position,
	)
	s.sessions[travelerID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(pipelineSafety, n)
	s.logger.Info("safety session started",
		zap.String("traveler_id", travelerID.String()),
		zap.Int("zones", len(zones)),
	)
	return sess, true, nil
}

// fetchZones loads and sanitizes the zone set around position. Malformed
// records are dropped here so they never reach a distance computation.
func (s *SafetyService) fetchZones(ctx context.Context, position geo.Coordinate) ([]zone.Zone, error) {
	raw, err := s.provider.FetchZones(ctx, position)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch zones: %w", err)
	}

	zones, rejected := zone.Sanitize(raw)
	for _, r := range rejected {
		s.logger.Warn("dropping malformed zone",
			zap.String("zone_id", r.Zone.ID),
			zap.Error(r.Err),
		)
	}
	s.metrics.AddMalformedZones(len(rejected))
	return zones, nil
}

// applyAndPublish holds the session's publish lock across the recomputation
// and its events so they leave in the order the state changed.
func (s *SafetyService) applyAndPublish(ctx context.Context, sess *safetySession, in safetyInput) (*SafetyView, error) {
	sess.publishMu.Lock()
	defer sess.publishMu.Unlock()

	out, ok := sess.apply(in, s.clock.Now())
	if !ok {
		return nil, domain.NewNotFoundError("safety session", sess.travelerID.String())
	}

	s.recordTransition(ctx, sess.travelerID, out)
	if out.statusChanged {
		publishEvent(ctx, s.publisher, s.logger, s.cfg.Topic, contract.SafetyStatusChanged, sess.travelerID.String(),
			contract.SafetyStatusChangedEvent{
				TravelerID:       sess.travelerID,
				Level:            string(out.view.Status.Level),
				PreviousLevel:    string(out.previous.Level),
				NearestDistance:  out.view.Status.NearestDistance,
				ActiveAlertCount: out.view.Status.ActiveAlertCount,
				Message:          out.view.Status.Message,
				OccurredAt:       out.view.UpdatedAt,
			})
	}

	v := out.view
	return &v, nil
}

func (s *SafetyService) recordTransition(ctx context.Context, travelerID uuid.UUID, out safetyOutcome) {
	tr := out.transition
	if !tr.Changed() || tr.Zone == nil {
		return
	}
	s.metrics.ObserveTransition(string(tr.Kind))

	evt := contract.ZoneTransitionEvent{
		TravelerID: travelerID,
		ZoneID:     tr.Zone.ID,
		ZoneTitle:  tr.Zone.Title,
		Level:      string(tr.Zone.Level),
		Latitude:   out.view.Position.Latitude,
		Longitude:  out.view.Position.Longitude,
		OccurredAt: out.view.UpdatedAt,
	}
	if out.raised != nil {
		id := out.raised.ID
		evt.AlertID = &id
		s.metrics.ObserveAlertRaised(string(out.raised.Kind), string(out.raised.Level))
	}

	eventType := contract.ZoneEntered
	if tr.Kind == zone.TransitionExit {
		eventType = contract.ZoneExited
	}
	s.logger.Info("zone transition",
		zap.String("traveler_id", travelerID.String()),
		zap.String("kind", string(tr.Kind)),
		zap.String("zone_id", tr.Zone.ID),
		zap.String("level", string(tr.Zone.Level)),
	)
	publishEvent(ctx, s.publisher, s.logger, s.cfg.Topic, eventType, travelerID.String(), evt)
}

func (s *SafetyService) onAlertCleared(travelerID uuid.UUID) alert.ClearFunc {
	return func(a alert.ZoneAlert, reason alert.ClearReason) {
		s.metrics.ObserveAlertCleared(string(reason))
		s.logger.Debug("alert cleared",
			zap.String("traveler_id", travelerID.String()),
			zap.String("alert_id", a.ID.String()),
			zap.String("reason", string(reason)),
		)
	}
}
