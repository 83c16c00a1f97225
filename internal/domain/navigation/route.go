package navigation

import (
	"fmt"
	"math"
)

// Direction is the maneuver a step asks the traveler to make.
type Direction string

const (
	DirectionStraight Direction = "straight"
	DirectionLeft     Direction = "left"
	DirectionRight    Direction = "right"
	DirectionUp       Direction = "up"
	DirectionDown     Direction = "down"
	DirectionArrive   Direction = "arrive"
)

// Step is one instruction of a route. Steps are traversed in slice order.
type Step struct {
	Instruction    string    `json:"instruction"`
	DistanceMeters float64   `json:"distance_meters"`
	Direction      Direction `json:"direction"`
	// Floor is the level the step takes place on; 0 means unspecified.
	Floor int `json:"floor,omitempty"`
}

// Route is an immutable walking route to a destination.
type Route struct {
	Destination      string  `json:"destination"`
	Steps            []Step  `json:"steps"`
	TotalDistance    float64 `json:"total_distance"`
	TotalTimeMinutes float64 `json:"total_time_minutes"`
}

// NewRoute builds a route whose total distance is the sum of its steps.
func NewRoute(destination string, minutes float64, steps ...Step) Route {
	total := 0.0
	for _, s := range steps {
		total += s.DistanceMeters
	}
	return Route{
		Destination:      destination,
		Steps:            steps,
		TotalDistance:    total,
		TotalTimeMinutes: minutes,
	}
}

// StepCount returns the number of steps.
func (r Route) StepCount() int {
	return len(r.Steps)
}

// Validate checks that the route can drive a progress session.
func (r Route) Validate() error {
	if len(r.Steps) == 0 {
		return fmt.Errorf("route to %q has no steps", r.Destination)
	}
	if !(r.TotalDistance > 0) || math.IsInf(r.TotalDistance, 0) {
		return fmt.Errorf("route to %q: total distance must be positive", r.Destination)
	}
	if !(r.TotalTimeMinutes > 0) {
		return fmt.Errorf("route to %q: total time must be positive", r.Destination)
	}
	for i, s := range r.Steps {
		if s.DistanceMeters < 0 || math.IsNaN(s.DistanceMeters) {
			return fmt.Errorf("route to %q: step %d has negative distance", r.Destination, i)
		}
	}
	return nil
}

// clone returns a deep copy so callers cannot mutate a running session's route.
func (r Route) clone() Route {
	steps := make([]Step, len(r.Steps))
	copy(steps, r.Steps)
	r.Steps = steps
	return r
}
