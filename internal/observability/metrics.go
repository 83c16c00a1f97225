// Package observability exposes the engine's Prometheus metrics.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineCollector counts what the zone and progress engine does.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	ZoneTransitions    *prometheus.CounterVec
	AlertsRaised       *prometheus.CounterVec
	AlertsCleared      *prometheus.CounterVec
	ActiveSessions     *prometheus.GaugeVec
	NavigationUpdates  prometheus.Counter
	NavigationComplete prometheus.Counter
	MalformedZones     prometheus.Counter
}

// NewEngineCollector registers engine metrics against reg. Collectors that
// are already registered are reused, so several services may share one
// registry.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	transitions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "companion_zone_transitions_total",
		Help: "Zone membership transitions by kind.",
	}, []string{"kind"}), "companion_zone_transitions_total")
	if err != nil {
		return nil, err
	}

	raised, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "companion_alerts_raised_total",
		Help: "Zone alerts raised by kind and level.",
	}, []string{"kind", "level"}), "companion_alerts_raised_total")
	if err != nil {
		return nil, err
	}

	cleared, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "companion_alerts_cleared_total",
		Help: "Zone alerts cleared by reason.",
	}, []string{"reason"}), "companion_alerts_cleared_total")
	if err != nil {
		return nil, err
	}

	sessions, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "companion_active_sessions",
		Help: "Sessions currently held in memory by pipeline.",
	}, []string{"pipeline"}), "companion_active_sessions")
	if err != nil {
		return nil, err
	}

	updates, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "companion_navigation_progress_updates_total",
		Help: "Progress snapshots emitted across all navigation sessions.",
	}), "companion_navigation_progress_updates_total")
	if err != nil {
		return nil, err
	}

	completed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "companion_navigation_completed_total",
		Help: "Navigation sessions that reached their destination.",
	}), "companion_navigation_completed_total")
	if err != nil {
		return nil, err
	}

	malformed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "companion_malformed_zones_total",
		Help: "Zone records dropped at load time.",
	}), "companion_malformed_zones_total")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:           gatherer,
		ZoneTransitions:    transitions,
		AlertsRaised:       raised,
		AlertsCleared:      cleared,
		ActiveSessions:     sessions,
		NavigationUpdates:  updates,
		NavigationComplete: completed,
		MalformedZones:     malformed,
	}, nil
}

// Gatherer returns the gatherer backing the registry the collector was built on.
func (c *EngineCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveTransition counts a zone enter or exit.
func (c *EngineCollector) ObserveTransition(kind string) {
	if c == nil {
		return
	}
	c.ZoneTransitions.WithLabelValues(kind).Inc()
}

// ObserveAlertRaised counts a new visible alert.
func (c *EngineCollector) ObserveAlertRaised(kind, level string) {
	if c == nil {
		return
	}
	c.AlertsRaised.WithLabelValues(kind, level).Inc()
}

// ObserveAlertCleared counts an alert leaving the screen.
func (c *EngineCollector) ObserveAlertCleared(reason string) {
	if c == nil {
		return
	}
	c.AlertsCleared.WithLabelValues(reason).Inc()
}

// SetActiveSessions records the session count for pipeline.
func (c *EngineCollector) SetActiveSessions(pipeline string, n int) {
	if c == nil {
		return
	}
	c.ActiveSessions.WithLabelValues(pipeline).Set(float64(n))
}

// IncNavigationUpdates counts an emitted progress snapshot.
func (c *EngineCollector) IncNavigationUpdates() {
	if c == nil {
		return
	}
	c.NavigationUpdates.Inc()
}

// IncNavigationCompleted counts an arrival.
func (c *EngineCollector) IncNavigationCompleted() {
	if c == nil {
		return
	}
	c.NavigationComplete.Inc()
}

// AddMalformedZones counts zone records rejected by sanitization.
func (c *EngineCollector) AddMalformedZones(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.MalformedZones.Add(float64(n))
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
