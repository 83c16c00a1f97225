package zone

import (
	"sort"

	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
)

// DefaultHaloMultiplier widens every zone radius so approaching zones count
// toward the safety status before the traveler is inside them.
const DefaultHaloMultiplier = 1.5

// SafetyStatus is a snapshot of the traveler's surroundings. It is always
// rebuilt from scratch and never patched.
type SafetyStatus struct {
	Level            Level    `json:"level"`
	NearestDistance  *float64 `json:"nearest_distance"`
	ActiveAlertCount int      `json:"active_alert_count"`
	Message          string   `json:"message"`
}

// Equal reports whether two snapshots carry the same values.
func (s SafetyStatus) Equal(other SafetyStatus) bool {
	if s.Level != other.Level || s.ActiveAlertCount != other.ActiveAlertCount || s.Message != other.Message {
		return false
	}
	if (s.NearestDistance == nil) != (other.NearestDistance == nil) {
		return false
	}
	return s.NearestDistance == nil || *s.NearestDistance == *other.NearestDistance
}

// NearbyZone is a zone with its distance from the traveler.
type NearbyZone struct {
	Zone     Zone    `json:"zone"`
	Distance float64 `json:"distance"`
	Inside   bool    `json:"inside"`
}

// SafetyAggregator folds the zones around a position into one SafetyStatus.
type SafetyAggregator struct {
	haloMultiplier float64
}

// NewSafetyAggregator creates an aggregator. A multiplier below 1 falls back
// to DefaultHaloMultiplier.
func NewSafetyAggregator(haloMultiplier float64) *SafetyAggregator {
	if !(haloMultiplier >= 1) {
		haloMultiplier = DefaultHaloMultiplier
	}
	return &SafetyAggregator{haloMultiplier: haloMultiplier}
}

// HaloMultiplier returns the configured radius multiplier.
func (a *SafetyAggregator) HaloMultiplier() float64 {
	return a.haloMultiplier
}

// Aggregate computes the status for position over every zone whose halo
// (radius x multiplier) contains it.
func (a *SafetyAggregator) Aggregate(position geo.Coordinate, zones []Zone) SafetyStatus {
	status := SafetyStatus{Level: LevelLow}

	for _, z := range zones {
		d := z.DistanceFrom(position)
		if d >= z.RadiusMeters*a.haloMultiplier {
			continue
		}
		status.ActiveAlertCount++
		if status.NearestDistance == nil || d < *status.NearestDistance {
			nearest := d
			status.NearestDistance = &nearest
		}
		if z.Level.MoreSevereThan(status.Level) {
			status.Level = z.Level
		}
	}

	status.Message = status.Level.Message()
	return status
}

// Nearby lists zones within maxDistance of position (0 means no limit),
// closest first.
func (a *SafetyAggregator) Nearby(position geo.Coordinate, zones []Zone, maxDistance float64) []NearbyZone {
	nearby := make([]NearbyZone, 0, len(zones))
	for _, z := range zones {
		d := z.DistanceFrom(position)
		if maxDistance > 0 && d > maxDistance {
			continue
		}
		nearby = append(nearby, NearbyZone{Zone: z, Distance: d, Inside: d < z.RadiusMeters})
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].Distance < nearby[j].Distance
	})
	return nearby
}
