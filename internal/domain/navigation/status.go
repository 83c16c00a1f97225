package navigation

import "fmt"

// Status is the lifecycle state of a navigation session.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
)

// validTransitions defines the state machine for a navigation session.
// Running -> Running is a restart with a new route.
var validTransitions = map[Status][]Status{
	StatusIdle:     {StatusRunning},
	StatusRunning:  {StatusRunning, StatusComplete, StatusIdle},
	StatusComplete: {StatusRunning, StatusIdle},
}

// IsValid returns true if the status is a recognized navigation status.
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsActive returns true while a route is loaded.
func (s Status) IsActive() bool {
	return s == StatusRunning || s == StatusComplete
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid navigation status: %s", s)
	}
	return status, nil
}
