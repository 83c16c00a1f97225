package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateNoZonesIsSafe(t *testing.T) {
	status := NewSafetyAggregator(DefaultHaloMultiplier).Aggregate(origin, nil)

	assert.Equal(t, LevelLow, status.Level)
	assert.Nil(t, status.NearestDistance)
	assert.Zero(t, status.ActiveAlertCount)
	assert.Equal(t, LevelLow.Message(), status.Message)
}

func TestAggregateCountsHalo(t *testing.T) {
	// 250 m from the center of a 200 m zone: outside, but inside the 300 m halo.
	position := origin.Offset(250, 0)
	zones := []Zone{testZone("A", origin, 200, LevelHigh)}

	status := NewSafetyAggregator(DefaultHaloMultiplier).Aggregate(position, zones)
	assert.Equal(t, LevelHigh, status.Level)
	assert.Equal(t, 1, status.ActiveAlertCount)
	require.NotNil(t, status.NearestDistance)
	assert.InDelta(t, 250, *status.NearestDistance, 0.5)
	assert.Equal(t, LevelHigh.Message(), status.Message)

	// With no halo the same position is clear.
	status = NewSafetyAggregator(1).Aggregate(position, zones)
	assert.Equal(t, LevelLow, status.Level)
	assert.Zero(t, status.ActiveAlertCount)
}

func TestAggregateTakesMaxLevelAndMinDistance(t *testing.T) {
	zones := []Zone{
		testZone("near-low", origin.Offset(100, 0), 300, LevelLow),
		testZone("far-critical", origin.Offset(0, 700), 500, LevelCritical),
		testZone("mid-medium", origin.Offset(-300, 0), 250, LevelMedium),
		testZone("out-of-range", origin.Offset(5000, 0), 100, LevelCritical),
	}

	status := NewSafetyAggregator(DefaultHaloMultiplier).Aggregate(origin, zones)
	assert.Equal(t, LevelCritical, status.Level)
	assert.Equal(t, 3, status.ActiveAlertCount)
	require.NotNil(t, status.NearestDistance)
	assert.InDelta(t, 100, *status.NearestDistance, 0.5)
	assert.Equal(t, "Danger: leave this area immediately", status.Message)
}

func TestAggregateLevelIsMaxOfMatches(t *testing.T) {
	levels := []Level{LevelLow, LevelMedium, LevelHigh, LevelCritical}
	for _, top := range levels {
		var zones []Zone
		for _, l := range levels {
			if l.MoreSevereThan(top) {
				// Beyond the halo: must not influence the level.
				zones = append(zones, testZone(string(l), origin.Offset(10000, 0), 100, l))
				continue
			}
			zones = append(zones, testZone(string(l), origin.Offset(50, 0), 100, l))
		}
		status := NewSafetyAggregator(DefaultHaloMultiplier).Aggregate(origin, zones)
		assert.Equal(t, top, status.Level)
	}
}

func TestNewSafetyAggregatorFallsBackOnBadMultiplier(t *testing.T) {
	assert.Equal(t, DefaultHaloMultiplier, NewSafetyAggregator(0).HaloMultiplier())
	assert.Equal(t, DefaultHaloMultiplier, NewSafetyAggregator(0.5).HaloMultiplier())
	assert.Equal(t, 2.0, NewSafetyAggregator(2).HaloMultiplier())
}

func TestNearbySortsByDistance(t *testing.T) {
	zones := []Zone{
		testZone("far", origin.Offset(900, 0), 100, LevelLow),
		testZone("here", origin, 100, LevelHigh),
		testZone("mid", origin.Offset(0, 400), 100, LevelMedium),
		testZone("beyond", origin.Offset(5000, 0), 100, LevelMedium),
	}

	nearby := NewSafetyAggregator(DefaultHaloMultiplier).Nearby(origin, zones, 1000)
	require.Len(t, nearby, 3)
	assert.Equal(t, "here", nearby[0].Zone.ID)
	assert.True(t, nearby[0].Inside)
	assert.Equal(t, "mid", nearby[1].Zone.ID)
	assert.False(t, nearby[1].Inside)
	assert.Equal(t, "far", nearby[2].Zone.ID)

	all := NewSafetyAggregator(DefaultHaloMultiplier).Nearby(origin, zones, 0)
	assert.Len(t, all, 4)
}

func TestSafetyStatusEqual(t *testing.T) {
	d1, d2 := 10.0, 10.0
	a := SafetyStatus{Level: LevelHigh, NearestDistance: &d1, ActiveAlertCount: 1, Message: "x"}
	b := SafetyStatus{Level: LevelHigh, NearestDistance: &d2, ActiveAlertCount: 1, Message: "x"}
	assert.True(t, a.Equal(b))

	b.NearestDistance = nil
	assert.False(t, a.Equal(b))
	assert.True(t, SafetyStatus{Level: LevelLow}.Equal(SafetyStatus{Level: LevelLow}))
}
