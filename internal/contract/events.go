// Package contract defines the topics, event types and payloads exchanged
// with other services over Kafka.
package contract

import (
	"time"

	"github.com/google/uuid"
)

// Default topic names. Deployments may override them in configuration.
const (
	TopicTravelerPositions = "traveler.positions"
	TopicSafetyEvents      = "safety.events"
	TopicNavigationEvents  = "navigation.events"
)

// Event types.
const (
	PositionReported = "traveler.position_reported"

	ZoneEntered         = "zone.entered"
	ZoneExited          = "zone.exited"
	SafetyStatusChanged = "safety.status_changed"

	NavigationStarted      = "navigation.started"
	NavigationFloorChanged = "navigation.floor_changed"
	NavigationCompleted    = "navigation.completed"
)

// Source is the CloudEvents source of everything this service publishes.
const Source = "service-companion"

// PositionReportedEvent is a device location sample. Latitude and Longitude
// are absent, or Unavailable is set, when the device could not get a fix.
type PositionReportedEvent struct {
	TravelerID  uuid.UUID `json:"traveler_id"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Unavailable bool      `json:"unavailable,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// ZoneTransitionEvent is published when a traveler enters or leaves a zone.
type ZoneTransitionEvent struct {
	TravelerID uuid.UUID  `json:"traveler_id"`
	ZoneID     string     `json:"zone_id"`
	ZoneTitle  string     `json:"zone_title"`
	Level      string     `json:"level"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	AlertID    *uuid.UUID `json:"alert_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// SafetyStatusChangedEvent is published when the safety level or the number
// of nearby zones changes.
type SafetyStatusChangedEvent struct {
	TravelerID       uuid.UUID `json:"traveler_id"`
	Level            string    `json:"level"`
	PreviousLevel    string    `json:"previous_level"`
	NearestDistance  *float64  `json:"nearest_distance,omitempty"`
	ActiveAlertCount int       `json:"active_alert_count"`
	Message          string    `json:"message"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// NavigationEvent is published on navigation lifecycle milestones.
type NavigationEvent struct {
	TravelerID        uuid.UUID `json:"traveler_id"`
	Destination       string    `json:"destination"`
	Percent           float64   `json:"percent"`
	CurrentStepIndex  int       `json:"current_step_index"`
	StepCount         int       `json:"step_count"`
	CurrentFloor      int       `json:"current_floor"`
	RemainingDistance float64   `json:"remaining_distance"`
	OccurredAt        time.Time `json:"occurred_at"`
}
