package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wayfarer-travel/service-companion/internal/catalog"
	"github.com/wayfarer-travel/service-companion/internal/domain"
	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
	"github.com/wayfarer-travel/service-companion/internal/repository"
)

func newMemoryZoneRepository() *repository.GeoJSONZoneSource {
	return repository.NewGeoJSONZoneSource(nil, 0, zone.DefaultHaloMultiplier)
}

func TestZoneCatalogService_UpsertValidates(t *testing.T) {
	svc := NewZoneCatalogService(newMemoryZoneRepository(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.UpsertZone(ctx, testZone("bad", klcc, -5, zone.LevelHigh))
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)

	saved, err := svc.UpsertZone(ctx, testZone("good", klcc, 50, zone.LevelHigh))
	require.NoError(t, err)
	assert.Equal(t, "good", saved.ID)

	got, err := svc.GetZone(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, *saved, *got)

	require.NoError(t, svc.DeleteZone(ctx, "good"))
	var nf *domain.NotFoundError
	assert.ErrorAs(t, svc.DeleteZone(ctx, "good"), &nf)
}

func TestZoneCatalogService_ImportExport(t *testing.T) {
	repo := newMemoryZoneRepository()
	svc := NewZoneCatalogService(repo, zap.NewNop())
	ctx := context.Background()

	data, err := catalog.ToGeoJSON([]zone.Zone{
		testZone("a", klcc, 100, zone.LevelLow),
		testZone("b", klcc.Offset(200, 0), 100, zone.LevelHigh),
		testZone("c", klcc, 0, zone.LevelHigh),
	})
	require.NoError(t, err)

	result, err := svc.ImportGeoJSON(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "c", result.Rejected[0].ZoneID)

	page, err := svc.ListZones(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a", page.Items[0].ID)

	exported, err := svc.ExportGeoJSON(ctx)
	require.NoError(t, err)
	zones, rejected, err := catalog.FromGeoJSON(exported)
	require.NoError(t, err)
	assert.Empty(t, rejected)
	assert.Len(t, zones, 2)

	_, err = svc.ImportGeoJSON(ctx, []byte("nope"))
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestZoneCatalogService_SeedOnlyWhenEmpty(t *testing.T) {
	repo := newMemoryZoneRepository()
	svc := NewZoneCatalogService(repo, zap.NewNop())
	ctx := context.Background()

	data, err := catalog.ToGeoJSON([]zone.Zone{testZone("a", klcc, 100, zone.LevelLow)})
	require.NoError(t, err)

	result, err := svc.Seed(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	other, err := catalog.ToGeoJSON([]zone.Zone{testZone("z", klcc, 100, zone.LevelLow)})
	require.NoError(t, err)
	result, err = svc.Seed(ctx, other)
	require.NoError(t, err)
	assert.Zero(t, result.Imported)
	_, err = svc.GetZone(ctx, "z")
	assert.Error(t, err)
}
