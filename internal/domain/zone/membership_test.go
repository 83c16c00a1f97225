package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
)

var (
	origin  = geo.Coordinate{Latitude: 0, Longitude: 0}
	faraway = geo.Coordinate{Latitude: 0.01, Longitude: 0.01}
)

func TestEvaluateEnterAndExit(t *testing.T) {
	zones := []Zone{testZone("A", origin, 200, LevelHigh)}
	tracker := NewMembershipTracker()

	tr := tracker.Evaluate(faraway, zones)
	assert.Equal(t, TransitionNone, tr.Kind)
	assert.Empty(t, tracker.CurrentID())

	tr = tracker.Evaluate(origin, zones)
	require.Equal(t, TransitionEnter, tr.Kind)
	assert.Equal(t, "A", tr.Zone.ID)
	assert.Nil(t, tr.Previous)
	assert.Equal(t, "A", tracker.CurrentID())

	tr = tracker.Evaluate(faraway, zones)
	require.Equal(t, TransitionExit, tr.Kind)
	assert.Equal(t, "A", tr.Zone.ID)
	_, inside := tracker.Current()
	assert.False(t, inside)
}

func TestEvaluateIsIdempotentInsideSameZone(t *testing.T) {
	zones := []Zone{testZone("A", origin, 200, LevelHigh)}
	tracker := NewMembershipTracker()

	require.Equal(t, TransitionEnter, tracker.Evaluate(origin, zones).Kind)
	for i := 0; i < 5; i++ {
		assert.Equal(t, TransitionNone, tracker.Evaluate(origin, zones).Kind)
	}
	// Moving within the zone is not a transition either.
	assert.Equal(t, TransitionNone, tracker.Evaluate(origin.Offset(50, 50), zones).Kind)
}

func TestEvaluateBoundaryIsOutside(t *testing.T) {
	edge := origin.Offset(200, 0)
	radius := geo.Distance(origin, edge)
	zones := []Zone{testZone("A", origin, radius, LevelHigh)}

	tr := NewMembershipTracker().Evaluate(edge, zones)
	assert.Equal(t, TransitionNone, tr.Kind, "a position exactly on the radius is outside")
}

func TestEvaluateSwitchBetweenZonesEmitsEnterOnly(t *testing.T) {
	a := testZone("A", origin, 200, LevelMedium)
	b := testZone("B", origin.Offset(0, 1000), 200, LevelMedium)
	zones := []Zone{a, b}
	tracker := NewMembershipTracker()

	require.Equal(t, TransitionEnter, tracker.Evaluate(origin, zones).Kind)

	tr := tracker.Evaluate(b.Center, zones)
	require.Equal(t, TransitionEnter, tr.Kind)
	assert.Equal(t, "B", tr.Zone.ID)
	require.NotNil(t, tr.Previous)
	assert.Equal(t, "A", tr.Previous.ID)
}

func TestEvaluateOverlapPrefersMostSevere(t *testing.T) {
	low := testZone("low", origin, 500, LevelLow)
	critical := testZone("critical", origin.Offset(100, 0), 500, LevelCritical)
	high := testZone("high", origin.Offset(0, 100), 500, LevelHigh)

	for _, zones := range [][]Zone{{low, critical, high}, {high, low, critical}, {critical, high, low}} {
		z, ok := Containing(origin, zones)
		require.True(t, ok)
		assert.Equal(t, "critical", z.ID)
	}
}

func TestEvaluateOverlapEqualLevelsUsesListOrder(t *testing.T) {
	first := testZone("first", origin, 500, LevelHigh)
	second := testZone("second", origin.Offset(10, 0), 500, LevelHigh)

	z, ok := Containing(origin, []Zone{first, second})
	require.True(t, ok)
	assert.Equal(t, "first", z.ID)

	z, ok = Containing(origin, []Zone{second, first})
	require.True(t, ok)
	assert.Equal(t, "second", z.ID)
}

func TestEvaluateZoneSetReplacement(t *testing.T) {
	tracker := NewMembershipTracker()
	require.Equal(t, TransitionEnter, tracker.Evaluate(origin, []Zone{testZone("A", origin, 200, LevelHigh)}).Kind)

	// Same ID with refreshed details: still inside, no event.
	refreshed := testZone("A", origin, 300, LevelCritical)
	assert.Equal(t, TransitionNone, tracker.Evaluate(origin, []Zone{refreshed}).Kind)
	current, ok := tracker.Current()
	require.True(t, ok)
	assert.Equal(t, LevelCritical, current.Level)

	// Zone removed from the set: exit.
	tr := tracker.Evaluate(origin, nil)
	require.Equal(t, TransitionExit, tr.Kind)
	assert.Equal(t, "A", tr.Zone.ID)
}

func TestMembershipInsideExactlyOneZone(t *testing.T) {
	zones := []Zone{
		testZone("A", origin, 200, LevelHigh),
		testZone("B", origin.Offset(2000, 0), 300, LevelLow),
	}
	positions := map[string]geo.Coordinate{
		"A": origin.Offset(50, -50),
		"B": origin.Offset(2100, 100),
		"":  origin.Offset(1000, 1000),
	}
	for want, pos := range positions {
		tracker := NewMembershipTracker()
		tracker.Evaluate(pos, zones)
		assert.Equal(t, want, tracker.CurrentID(), "position %s", pos)
	}
}

func TestReset(t *testing.T) {
	zones := []Zone{testZone("A", origin, 200, LevelHigh)}
	tracker := NewMembershipTracker()
	tracker.Evaluate(origin, zones)
	tracker.Reset()

	assert.Empty(t, tracker.CurrentID())
	assert.Equal(t, TransitionEnter, tracker.Evaluate(origin, zones).Kind)
}
