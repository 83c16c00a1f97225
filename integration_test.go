//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-travel/service-companion/internal/contract"
	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
)

var klcc = geo.Coordinate{Latitude: 3.1579, Longitude: 101.7116}

// TestPositionReported_EntersZone verifies that a position event published to
// traveler.positions inside a stored zone produces a zone.entered event on
// safety.events.
func TestPositionReported_EntersZone(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSafetyStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	require.NoError(t, stack.Repo.Save(context.Background(), zone.Zone{
		ID: "klcc-park", Title: "KLCC Park", Center: klcc,
		RadiusMeters: 200, Level: zone.LevelHigh, Type: zone.TypeTheft, ReportCount: 9,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	travelerID := uuid.New()
	lat, lng := klcc.Latitude, klcc.Longitude
	publishTestEvent(t, infra.KafkaBrokers, contract.TopicTravelerPositions,
		"service-tracking", contract.PositionReported, travelerID.String(),
		contract.PositionReportedEvent{
			TravelerID: travelerID,
			Latitude:   &lat,
			Longitude:  &lng,
			RecordedAt: time.Now().UTC(),
		})

	ce := consumeOneEvent(t, infra.KafkaBrokers, contract.TopicSafetyEvents,
		contract.ZoneEntered, 20*time.Second)

	var entered contract.ZoneTransitionEvent
	require.NoError(t, ce.ParseData(&entered))
	assert.Equal(t, travelerID, entered.TravelerID)
	assert.Equal(t, "klcc-park", entered.ZoneID)
	assert.Equal(t, string(zone.LevelHigh), entered.Level)
	assert.NotNil(t, entered.AlertID)

	view, err := stack.Service.GetStatus(context.Background(), travelerID)
	require.NoError(t, err)
	assert.Equal(t, zone.LevelHigh, view.Status.Level)
}

// TestGormZoneRepository_Catalogue exercises the zone catalogue against PostgreSQL.
func TestGormZoneRepository_Catalogue(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSafetyStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx := context.Background()
	near := zone.Zone{ID: "near", Title: "Near", Center: klcc.Offset(300, 0), RadiusMeters: 100, Level: zone.LevelMedium, Type: zone.TypeScam}
	far := zone.Zone{ID: "far", Title: "Far", Center: klcc.Offset(20000, 0), RadiusMeters: 100, Level: zone.LevelLow, Type: zone.TypeCrowd}
	require.NoError(t, stack.Repo.Save(ctx, near))
	require.NoError(t, stack.Repo.Save(ctx, far))

	near.Level = zone.LevelCritical
	require.NoError(t, stack.Repo.Save(ctx, near))

	zones, err := stack.Repo.FetchZones(ctx, klcc)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "near", zones[0].ID)
	assert.Equal(t, zone.LevelCritical, zones[0].Level)

	items, total, err := stack.Repo.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "far", items[0].ID)

	require.NoError(t, stack.Repo.Delete(ctx, "far"))
	_, err = stack.Repo.FindByID(ctx, "far")
	assert.Error(t, err)
}

func TestGormZoneRepository_FetchByHaloAndAcrossAntimeridian(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSafetyStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx := context.Background()
	large := zone.Zone{ID: "large", Title: "Large", Center: klcc.Offset(6000, 0), RadiusMeters: 1000, Level: zone.LevelHigh, Type: zone.TypeProtest}
	fiji := geo.Coordinate{Latitude: -17.0, Longitude: 179.995}
	west := zone.Zone{ID: "west", Title: "West", Center: geo.Coordinate{Latitude: -17.0, Longitude: -179.995}, RadiusMeters: 200, Level: zone.LevelMedium, Type: zone.TypeTheft}
	require.NoError(t, stack.Repo.Save(ctx, large))
	require.NoError(t, stack.Repo.Save(ctx, west))

	zones, err := stack.Repo.FetchZones(ctx, klcc)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "large", zones[0].ID)

	zones, err = stack.Repo.FetchZones(ctx, fiji)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "west", zones[0].ID)
}
