package navigation

// ProgressState is the snapshot rendered by navigation banners and cards.
type ProgressState struct {
	Status            Status  `json:"status"`
	Destination       string  `json:"destination"`
	Percent           float64 `json:"percent"`
	CurrentStepIndex  int     `json:"current_step_index"`
	StepCount         int     `json:"step_count"`
	CurrentStep       *Step   `json:"current_step,omitempty"`
	RemainingDistance float64 `json:"remaining_distance"`
	CurrentFloor      int     `json:"current_floor"`
	FloorChanged      bool    `json:"floor_changed"`
	Completed         bool    `json:"completed"`
}
