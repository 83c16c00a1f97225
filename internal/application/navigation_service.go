package application

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wayfarer-travel/service-companion/internal/clock"
	"github.com/wayfarer-travel/service-companion/internal/contract"
	"github.com/wayfarer-travel/service-companion/internal/domain"
	"github.com/wayfarer-travel/service-companion/internal/domain/navigation"
	"github.com/wayfarer-travel/service-companion/internal/observability"
)

const pipelineNavigation = "navigation"

// StartNavigationRequest holds the data needed to start guidance. A blank
// destination starts the default route.
type StartNavigationRequest struct {
	Destination string `json:"destination"`
}

// NavigationView is the response representation of a navigation session.
type NavigationView struct {
	TravelerID uuid.UUID                `json:"traveler_id"`
	Progress   navigation.ProgressState `json:"progress"`
	Route      *navigation.Route        `json:"route,omitempty"`
}

// NavigationService is the application service driving simulated route
// guidance, one simulator per traveler.
type NavigationService struct {
	resolver  navigation.RouteResolver
	clock     clock.Clock
	simCfg    navigation.SimulatorConfig
	topic     string
	publisher EventPublisher
	metrics   *observability.EngineCollector
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*navigation.Simulator
}

// NewNavigationService creates a new NavigationService. publisher and metrics may be nil.
func NewNavigationService(
	resolver navigation.RouteResolver,
	c clock.Clock,
	simCfg navigation.SimulatorConfig,
	topic string,
	publisher EventPublisher,
	metrics *observability.EngineCollector,
	logger *zap.Logger,
) *NavigationService {
	if topic == "" {
		topic = contract.TopicNavigationEvents
	}
	return &NavigationService{
		resolver:  resolver,
		clock:     c,
		simCfg:    simCfg,
		topic:     topic,
		publisher: publisherOrDiscard(publisher),
		metrics:   metrics,
		logger:    logger,
		sessions:  make(map[uuid.UUID]*navigation.Simulator),
	}
}

// ResolveRoute previews the route a destination query would start. Blank
// and unknown queries both resolve to the default route.
func (s *NavigationService) ResolveRoute(ctx context.Context, query string) (*navigation.Route, error) {
	route, err := s.resolver.Resolve(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// StartNavigation resolves the destination and starts guidance. Starting
// while a session is running replaces it.
func (s *NavigationService) StartNavigation(ctx context.Context, travelerID uuid.UUID, req StartNavigationRequest) (*NavigationView, error) {
	route, err := s.ResolveRoute(ctx, req.Destination)
	if err != nil {
		return nil, err
	}

	state, err := s.startSimulator(travelerID, *route)
	if err != nil {
		return nil, err
	}

	s.logger.Info("navigation started",
		zap.String("traveler_id", travelerID.String()),
		zap.String("query", req.Destination),
		zap.String("destination", route.Destination),
		zap.Int("steps", route.StepCount()),
	)
	publishEvent(ctx, s.publisher, s.logger, s.topic, contract.NavigationStarted, travelerID.String(),
		navigationEvent(travelerID, state, s.clock))

	return &NavigationView{TravelerID: travelerID, Progress: state, Route: route}, nil
}

// GetNavigation returns the traveler's current progress.
func (s *NavigationService) GetNavigation(_ context.Context, travelerID uuid.UUID) (*NavigationView, error) {
	sim, err := s.lookup(travelerID)
	if err != nil {
		return nil, err
	}
	return viewOf(travelerID, sim), nil
}

// StopNavigation stops guidance and releases the session.
func (s *NavigationService) StopNavigation(_ context.Context, travelerID uuid.UUID) (*NavigationView, error) {
	s.mu.Lock()
	sim, ok := s.sessions[travelerID]
	delete(s.sessions, travelerID)
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return nil, domain.NewNotFoundError("navigation session", travelerID.String())
	}
	sim.Stop()
	s.metrics.SetActiveSessions(pipelineNavigation, n)
	s.logger.Info("navigation stopped", zap.String("traveler_id", travelerID.String()))
	return viewOf(travelerID, sim), nil
}

// ActiveSessions returns the number of travelers with a simulator.
func (s *NavigationService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops every simulator.
func (s *NavigationService) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[uuid.UUID]*navigation.Simulator)
	s.mu.Unlock()

	for _, sim := range sessions {
		sim.Stop()
	}
	s.metrics.SetActiveSessions(pipelineNavigation, 0)
}

func (s *NavigationService) lookup(travelerID uuid.UUID) (*navigation.Simulator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim, ok := s.sessions[travelerID]
	if !ok {
		return nil, domain.NewNotFoundError("navigation session", travelerID.String())
	}
	return sim, nil
}

// startSimulator starts route on the traveler's simulator while holding the
// registry lock, so a concurrent StopNavigation either sees the running
// simulator or runs before it exists. A simulator is only registered once it
// started.
func (s *NavigationService) startSimulator(travelerID uuid.UUID, route navigation.Route) (navigation.ProgressState, error) {
	s.mu.Lock()
	sim, ok := s.sessions[travelerID]
	if !ok {
		sim = navigation.NewSimulator(s.clock, s.simCfg, s.hooksFor(travelerID))
	}
	state, err := sim.Start(route)
	if err != nil {
		s.mu.Unlock()
		return navigation.ProgressState{}, err
	}
	s.sessions[travelerID] = sim
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(pipelineNavigation, n)
	return state, nil
}

// hooksFor wires simulator events to metrics and Kafka. Hooks run on timer
// goroutines, so they publish with their own bounded context.
func (s *NavigationService) hooksFor(travelerID uuid.UUID) navigation.Hooks {
	key := travelerID.String()
	publish := func(eventType string, state navigation.ProgressState) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		publishEvent(ctx, s.publisher, s.logger, s.topic, eventType, key, navigationEvent(travelerID, state, s.clock))
	}

	return navigation.Hooks{
		Progress: func(navigation.ProgressState) {
			s.metrics.IncNavigationUpdates()
		},
		FloorChanged: func(state navigation.ProgressState) {
			s.logger.Debug("floor changed",
				zap.String("traveler_id", key),
				zap.Int("floor", state.CurrentFloor),
			)
			publish(contract.NavigationFloorChanged, state)
		},
		Completed: func(state navigation.ProgressState) {
			s.metrics.IncNavigationCompleted()
			s.logger.Info("navigation completed",
				zap.String("traveler_id", key),
				zap.String("destination", state.Destination),
			)
			publish(contract.NavigationCompleted, state)
		},
	}
}

func viewOf(travelerID uuid.UUID, sim *navigation.Simulator) *NavigationView {
	v := &NavigationView{TravelerID: travelerID, Progress: sim.Snapshot()}
	if route, ok := sim.Route(); ok {
		v.Route = &route
	}
	return v
}

func navigationEvent(travelerID uuid.UUID, state navigation.ProgressState, c clock.Clock) contract.NavigationEvent {
	return contract.NavigationEvent{
		TravelerID:        travelerID,
		Destination:       state.Destination,
		Percent:           state.Percent,
		CurrentStepIndex:  state.CurrentStepIndex,
		StepCount:         state.StepCount,
		CurrentFloor:      state.CurrentFloor,
		RemainingDistance: state.RemainingDistance,
		OccurredAt:        c.Now(),
	}
}
