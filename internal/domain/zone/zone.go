package zone

import (
	"fmt"

	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
)

// Type classifies what kind of danger a zone reports.
type Type string

const (
	TypeTheft      Type = "theft"
	TypeScam       Type = "scam"
	TypeCrowd      Type = "crowd"
	TypeProtest    Type = "protest"
	TypeRestricted Type = "restricted"
	TypeHazard     Type = "hazard"
)

// Zone is a circular danger area. Zones are loaded once per session from a
// Provider and are never mutated afterwards.
type Zone struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Center       geo.Coordinate `json:"center"`
	RadiusMeters float64        `json:"radius_meters"`
	Level        Level          `json:"level"`
	Type         Type           `json:"type"`
	ReportCount  int            `json:"report_count"`
}

// Validate checks the zone invariants required before any distance is computed.
func (z Zone) Validate() error {
	if z.ID == "" {
		return fmt.Errorf("zone ID is required")
	}
	if !z.Center.Valid() {
		return fmt.Errorf("zone %s: invalid center %s", z.ID, z.Center)
	}
	if !(z.RadiusMeters > 0) {
		return fmt.Errorf("zone %s: radius must be positive, got %v", z.ID, z.RadiusMeters)
	}
	if !z.Level.IsValid() {
		return fmt.Errorf("zone %s: invalid level %q", z.ID, z.Level)
	}
	if z.ReportCount < 0 {
		return fmt.Errorf("zone %s: report count cannot be negative", z.ID)
	}
	return nil
}

// DistanceFrom returns the distance in meters from position to the zone center.
func (z Zone) DistanceFrom(position geo.Coordinate) float64 {
	return geo.Distance(position, z.Center)
}

// Reaches reports whether the zone's halo (radius x haloMultiplier) comes
// within searchRadius meters of position. A searchRadius of 0 means no limit;
// a multiplier below 1 falls back to DefaultHaloMultiplier.
func (z Zone) Reaches(position geo.Coordinate, searchRadius, haloMultiplier float64) bool {
	if searchRadius <= 0 {
		return true
	}
	if !(haloMultiplier >= 1) {
		haloMultiplier = DefaultHaloMultiplier
	}
	return z.DistanceFrom(position)-z.RadiusMeters*haloMultiplier <= searchRadius
}

// Contains reports whether position lies strictly inside the zone radius.
func (z Zone) Contains(position geo.Coordinate) bool {
	return z.DistanceFrom(position) < z.RadiusMeters
}

// Rejected pairs a zone that failed validation with the reason.
type Rejected struct {
	Zone Zone
	Err  error
}

// Sanitize splits zones into the ones safe to track and the ones rejected by
// Validate. The order of accepted zones is preserved.
func Sanitize(zones []Zone) ([]Zone, []Rejected) {
	accepted := make([]Zone, 0, len(zones))
	var rejected []Rejected
	for _, z := range zones {
		if err := z.Validate(); err != nil {
			rejected = append(rejected, Rejected{Zone: z, Err: err})
			continue
		}
		accepted = append(accepted, z)
	}
	return accepted, rejected
}
