package repository

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-travel/service-companion/internal/domain"
	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
)

const catalogue = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "id": "bukit-bintang",
      "geometry": {"type": "Point", "coordinates": [101.7113, 3.1466]},
      "properties": {"title": "Bukit Bintang", "radius_meters": 250, "level": "high", "type": "theft", "report_count": 14}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Polygon", "coordinates": [[[101.69, 3.14], [101.70, 3.14], [101.70, 3.15], [101.69, 3.15], [101.69, 3.14]]]},
      "properties": {"id": "merdeka-square", "title": "Merdeka Square", "level": "critical", "type": "protest"}
    },
    {
      "type": "Feature",
      "id": "no-radius",
      "geometry": {"type": "Point", "coordinates": [101.70, 3.15]},
      "properties": {"level": "low"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[101.70, 3.15], [101.71, 3.16]]},
      "properties": {"level": "low"}
    }
  ]
}`

func TestGeoJSONZoneSourceFetchZones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.geojson")
	require.NoError(t, os.WriteFile(path, []byte(catalogue), 0o600))

	src, rejected, err := LoadGeoJSONZoneSource(path, 200, zone.DefaultHaloMultiplier)
	require.NoError(t, err)
	assert.Len(t, rejected, 2)

	near, err := src.FetchZones(context.Background(), geo.Coordinate{Latitude: 3.1466, Longitude: 101.7113})
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, "bukit-bintang", near[0].ID)

	far, err := src.FetchZones(context.Background(), geo.Coordinate{Latitude: 1.3, Longitude: 103.8})
	require.NoError(t, err)
	assert.Empty(t, far)

	src.Replace(nil)
	near, err = src.FetchZones(context.Background(), geo.Coordinate{Latitude: 3.1466, Longitude: 101.7113})
	require.NoError(t, err)
	assert.Empty(t, near)
}

func TestLoadGeoJSONZoneSourceMissingFile(t *testing.T) {
	_, _, err := LoadGeoJSONZoneSource(filepath.Join(t.TempDir(), "missing.geojson"), 200, zone.DefaultHaloMultiplier)
	assert.Error(t, err)
}

func TestZoneModelConversion(t *testing.T) {
	z := zone.Zone{
		ID: "z9", Title: "Station", Center: geo.Coordinate{Latitude: 51.5, Longitude: -0.12},
		RadiusMeters: 80, Level: zone.LevelCritical, Type: zone.TypeHazard, ReportCount: 7,
	}
	m := toZoneModel(z)
	assert.Equal(t, "critical", m.Level)
	assert.Equal(t, "hazard", m.ZoneType)
	assert.Equal(t, z, toZoneDomain(m))
}

func TestGeoJSONZoneSourceCatalogue(t *testing.T) {
	ctx := context.Background()
	center := geo.Coordinate{Latitude: 3.1466, Longitude: 101.7113}
	mk := func(id string) zone.Zone {
		return zone.Zone{ID: id, Center: center, RadiusMeters: 50, Level: zone.LevelMedium, Type: zone.TypeCrowd}
	}
	src := NewGeoJSONZoneSource([]zone.Zone{mk("c"), mk("a")}, 0, zone.DefaultHaloMultiplier)

	require.NoError(t, src.Save(ctx, mk("b")))
	updated := mk("a")
	updated.Title = "renamed"
	require.NoError(t, src.Save(ctx, updated))

	var vErr *domain.ValidationError
	assert.ErrorAs(t, src.Save(ctx, zone.Zone{ID: "bad"}), &vErr)

	items, total, err := src.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "renamed", items[0].Title)
	assert.Equal(t, "b", items[1].ID)

	items, _, err = src.List(ctx, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, items)

	got, err := src.FindByID(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "c", got.ID)

	require.NoError(t, src.Delete(ctx, "b"))
	var nf *domain.NotFoundError
	assert.ErrorAs(t, src.Delete(ctx, "b"), &nf)
	_, err = src.FindByID(ctx, "b")
	assert.ErrorAs(t, err, &nf)
}

func TestGeoJSONZoneSourceIncludesZonesByHalo(t *testing.T) {
	origin := geo.Coordinate{Latitude: 3.1579, Longitude: 101.7116}
	large := zone.Zone{ID: "large", Center: origin.Offset(0, 6000), RadiusMeters: 1000, Level: zone.LevelCritical, Type: zone.TypeProtest}
	small := zone.Zone{ID: "small", Center: origin.Offset(0, 6000), RadiusMeters: 100, Level: zone.LevelLow, Type: zone.TypeCrowd}
	src := NewGeoJSONZoneSource([]zone.Zone{large, small}, 5000, zone.DefaultHaloMultiplier)

	got, err := src.FetchZones(context.Background(), origin)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "large", got[0].ID)
}

func TestGeoJSONZoneSourceAcrossAntimeridian(t *testing.T) {
	west := zone.Zone{ID: "west", Center: geo.Coordinate{Latitude: -17.0, Longitude: -179.995}, RadiusMeters: 200, Level: zone.LevelHigh, Type: zone.TypeTheft}
	src := NewGeoJSONZoneSource([]zone.Zone{west}, 5000, zone.DefaultHaloMultiplier)

	got, err := src.FetchZones(context.Background(), geo.Coordinate{Latitude: -17.0, Longitude: 179.995})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "west", got[0].ID)
}

func TestLongitudePredicate(t *testing.T) {
	sql, args := longitudePredicate(geo.BoundingBox(geo.Coordinate{Latitude: 3.1579, Longitude: 101.7116}, 1000))
	assert.Equal(t, "(longitude BETWEEN ? AND ?)", sql)
	require.Len(t, args, 2)
	assert.Less(t, args[0].(float64), 101.7116)
	assert.Greater(t, args[1].(float64), 101.7116)

	sql, args = longitudePredicate(geo.BoundingBox(geo.Coordinate{Latitude: -17.0, Longitude: 179.995}, 5000))
	assert.Equal(t, "(longitude BETWEEN ? AND ? OR longitude BETWEEN ? AND ?)", sql)
	require.Len(t, args, 4)
	assert.Equal(t, 180.0, args[1])
	assert.Equal(t, -180.0, args[2])
	for _, a := range args {
		assert.LessOrEqual(t, math.Abs(a.(float64)), 180.0)
	}
}
