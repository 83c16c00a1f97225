package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
)

// Kind tells whether an alert reports entering or leaving a zone.
type Kind string

const (
	KindEntering Kind = "entering"
	KindExiting  Kind = "exiting"
)

// Fixed copy for the alert raised after leaving every zone.
const (
	SafeZoneTitle   = "You're in a safe zone"
	SafeZoneMessage = "You have left the danger zone. Stay aware of your surroundings."
)

// ZoneAlert is the single user-facing alert produced by a zone transition.
type ZoneAlert struct {
	ID           uuid.UUID  `json:"id"`
	Kind         Kind       `json:"kind"`
	ZoneID       string     `json:"zone_id"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Description  string     `json:"description,omitempty"`
	RadiusMeters float64    `json:"radius_meters,omitempty"`
	Level        zone.Level `json:"level"`
	RaisedAt     time.Time  `json:"raised_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

// newEnteringAlert builds the alert shown when the traveler enters z.
func newEnteringAlert(z zone.Zone, now time.Time, ttl time.Duration) ZoneAlert {
	return ZoneAlert{
		ID:           uuid.New(),
		Kind:         KindEntering,
		ZoneID:       z.ID,
		Title:        z.Title,
		Message:      fmt.Sprintf("You are entering %s (%s risk, %.0f m radius)", z.Title, z.Level, z.RadiusMeters),
		Description:  z.Description,
		RadiusMeters: z.RadiusMeters,
		Level:        z.Level,
		RaisedAt:     now,
		ExpiresAt:    now.Add(ttl),
	}
}

// newExitingAlert builds the fixed safe-zone alert shown after leaving z.
func newExitingAlert(z zone.Zone, now time.Time, ttl time.Duration) ZoneAlert {
	return ZoneAlert{
		ID:        uuid.New(),
		Kind:      KindExiting,
		ZoneID:    z.ID,
		Title:     SafeZoneTitle,
		Message:   SafeZoneMessage,
		Level:     zone.LevelLow,
		RaisedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}
