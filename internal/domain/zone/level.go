package zone

import "fmt"

// Level is the severity of a danger zone.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// levelRank defines the total order low < medium < high < critical.
var levelRank = map[Level]int{
	LevelLow:      0,
	LevelMedium:   1,
	LevelHigh:     2,
	LevelCritical: 3,
}

// levelMessages is the fixed copy shown for each safety level.
var levelMessages = map[Level]string{
	LevelLow:      "You are in a safe area",
	LevelMedium:   "Stay alert: minor incidents reported nearby",
	LevelHigh:     "Caution: high-risk area nearby, keep your belongings secure",
	LevelCritical: "Danger: leave this area immediately",
}

// IsValid returns true if the level is a recognized severity.
func (l Level) IsValid() bool {
	_, ok := levelRank[l]
	return ok
}

// Rank returns the position of the level in the severity order.
// Unknown levels rank below low.
func (l Level) Rank() int {
	rank, ok := levelRank[l]
	if !ok {
		return -1
	}
	return rank
}

// MoreSevereThan reports whether l ranks strictly above other.
func (l Level) MoreSevereThan(other Level) bool {
	return l.Rank() > other.Rank()
}

// Message returns the status copy for the level.
func (l Level) Message() string {
	if msg, ok := levelMessages[l]; ok {
		return msg
	}
	return levelMessages[LevelLow]
}

// String returns the string representation of the level.
func (l Level) String() string {
	return string(l)
}

// ParseLevel converts a string to a Level, returning an error if invalid.
func ParseLevel(s string) (Level, error) {
	level := Level(s)
	if !level.IsValid() {
		return "", fmt.Errorf("invalid zone level: %s", s)
	}
	return level, nil
}
