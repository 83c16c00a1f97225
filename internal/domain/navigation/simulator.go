package navigation

import (
	"math"
	"sync"
	"time"

	"github.com/wayfarer-travel/service-companion/internal/clock"
	"github.com/wayfarer-travel/service-companion/internal/domain"
)

// Defaults for the progress simulation.
const (
	DefaultTickPeriod        = 500 * time.Millisecond
	DefaultProgressIncrement = 2.0
	DefaultFloorPulse        = 3 * time.Second
	startFloor               = 1
)

// SimulatorConfig holds the tunables of a Simulator.
type SimulatorConfig struct {
	TickPeriod        time.Duration
	ProgressIncrement float64
	FloorPulse        time.Duration
}

// DefaultSimulatorConfig returns the reference timing: +2% every 500 ms with
// a 3 s floor-change pulse.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		TickPeriod:        DefaultTickPeriod,
		ProgressIncrement: DefaultProgressIncrement,
		FloorPulse:        DefaultFloorPulse,
	}
}

func (c SimulatorConfig) withDefaults() SimulatorConfig {
	if c.TickPeriod <= 0 {
		c.TickPeriod = DefaultTickPeriod
	}
	if !(c.ProgressIncrement > 0) {
		c.ProgressIncrement = DefaultProgressIncrement
	}
	if c.FloorPulse <= 0 {
		c.FloorPulse = DefaultFloorPulse
	}
	return c
}

// Hooks receive simulator events. Every hook is called without the simulator
// lock held, after the state change it reports.
type Hooks struct {
	Progress     func(ProgressState)
	FloorChanged func(ProgressState)
	Completed    func(ProgressState)
}

// Simulator advances a traveler along a supplied route on a fixed tick.
// It owns exactly one tick source and one floor-pulse timer; starting again
// replaces both.
type Simulator struct {
	clock clock.Clock
	cfg   SimulatorConfig
	hooks Hooks

	ticker     *clock.Slot
	floorPulse *clock.Slot

	mu             sync.Mutex
	session        uint64
	status         Status
	route          Route
	state          ProgressState
	floorTarget    int
	floorPulsed    bool
	completionSent bool
}

// NewSimulator creates an idle Simulator.
func NewSimulator(c clock.Clock, cfg SimulatorConfig, hooks Hooks) *Simulator {
	return &Simulator{
		clock:      c,
		cfg:        cfg.withDefaults(),
		hooks:      hooks,
		ticker:     clock.NewSlot(c),
		floorPulse: clock.NewSlot(c),
		status:     StatusIdle,
		state:      ProgressState{Status: StatusIdle},
	}
}

// Config returns the effective configuration.
func (s *Simulator) Config() SimulatorConfig {
	return s.cfg
}

// Start begins a new session on route. Any running session is stopped first,
// so calling Start repeatedly never leaves more than one tick source.
func (s *Simulator) Start(route Route) (ProgressState, error) {
	if err := route.Validate(); err != nil {
		return ProgressState{}, domain.NewValidationError(err.Error())
	}

	s.mu.Lock()
	if !s.status.CanTransitionTo(StatusRunning) {
		from := s.status
		s.mu.Unlock()
		return ProgressState{}, domain.NewInvalidStateError(string(from), string(StatusRunning))
	}
	s.ticker.Cancel()
	s.floorPulse.Cancel()

	s.session++
	s.status = StatusRunning
	s.route = route.clone()
	s.floorTarget = route.StepCount() / 2
	s.floorPulsed = false
	s.completionSent = false
	s.state = ProgressState{
		Status:            StatusRunning,
		Destination:       route.Destination,
		Percent:           0,
		CurrentStepIndex:  0,
		StepCount:         route.StepCount(),
		RemainingDistance: route.TotalDistance,
		CurrentFloor:      startFloor,
	}
	s.state.CurrentStep = s.stepAt(0)

	session := s.session
	s.ticker.Arm(s.cfg.TickPeriod, func() { s.tick(session) })
	snapshot := s.copyState()
	s.mu.Unlock()

	s.emit(s.hooks.Progress, snapshot)
	return snapshot, nil
}

// Stop cancels the tick source and the floor-pulse timer and returns to idle.
// It is safe to call at any time, any number of times.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticker.Cancel()
	s.floorPulse.Cancel()
	if s.status == StatusIdle {
		return
	}
	s.session++
	s.status = StatusIdle
	s.route = Route{}
	s.state = ProgressState{Status: StatusIdle}
}

// Snapshot returns the current progress.
func (s *Simulator) Snapshot() ProgressState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyState()
}

// Route returns the route of the active session.
func (s *Simulator) Route() (Route, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.status.IsActive() {
		return Route{}, false
	}
	return s.route.clone(), true
}

// Status returns the lifecycle state.
func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Simulator) tick(session uint64) {
	s.mu.Lock()
	if session != s.session || s.status != StatusRunning {
		s.mu.Unlock()
		return
	}

	n := s.route.StepCount()
	s.state.Percent = math.Min(100, s.state.Percent+s.cfg.ProgressIncrement)

	idx := int(math.Floor(s.state.Percent * float64(n) / 100))
	if idx > n-1 {
		idx = n - 1
	}
	if idx > s.state.CurrentStepIndex {
		s.state.CurrentStepIndex = idx
		s.state.CurrentStep = s.stepAt(idx)
	}

	remaining := math.Round(s.route.TotalDistance * (1 - s.state.Percent/100))
	if remaining < 0 {
		remaining = 0
	}
	if remaining < s.state.RemainingDistance {
		s.state.RemainingDistance = remaining
	}

	floorChanged := false
	if !s.floorPulsed && s.state.CurrentStepIndex >= s.floorTarget {
		s.floorPulsed = true
		floorChanged = true
		s.state.FloorChanged = true
		s.state.CurrentFloor = s.nextFloor()
		s.floorPulse.Arm(s.cfg.FloorPulse, func() { s.clearFloorPulse(session) })
	}

	completed := false
	if s.state.Percent >= 100 {
		s.status = StatusComplete
		s.state.Status = StatusComplete
		s.state.Completed = true
		s.state.RemainingDistance = 0
		if !s.completionSent {
			s.completionSent = true
			completed = true
		}
	} else {
		s.ticker.Arm(s.cfg.TickPeriod, func() { s.tick(session) })
	}
	snapshot := s.copyState()
	s.mu.Unlock()

	s.emit(s.hooks.Progress, snapshot)
	if floorChanged {
		s.emit(s.hooks.FloorChanged, snapshot)
	}
	if completed {
		s.emit(s.hooks.Completed, snapshot)
	}
}

func (s *Simulator) clearFloorPulse(session uint64) {
	s.mu.Lock()
	if session != s.session || !s.state.FloorChanged {
		s.mu.Unlock()
		return
	}
	s.state.FloorChanged = false
	snapshot := s.copyState()
	s.mu.Unlock()

	s.emit(s.hooks.Progress, snapshot)
}

// nextFloor uses the floor annotated on the pulse step, or goes up one level.
func (s *Simulator) nextFloor() int {
	if step := s.route.Steps[s.state.CurrentStepIndex]; step.Floor > 0 && step.Floor != s.state.CurrentFloor {
		return step.Floor
	}
	return s.state.CurrentFloor + 1
}

func (s *Simulator) stepAt(i int) *Step {
	if i < 0 || i >= len(s.route.Steps) {
		return nil
	}
	step := s.route.Steps[i]
	return &step
}

func (s *Simulator) copyState() ProgressState {
	out := s.state
	if out.CurrentStep != nil {
		step := *out.CurrentStep
		out.CurrentStep = &step
	}
	return out
}

func (s *Simulator) emit(fn func(ProgressState), state ProgressState) {
	if fn != nil {
		fn(state)
	}
}
