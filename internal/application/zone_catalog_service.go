package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/wayfarer-travel/service-companion/internal/catalog"
	"github.com/wayfarer-travel/service-companion/internal/domain"
	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
)

// ImportResult summarizes a catalogue import.
type ImportResult struct {
	Imported int              `json:"imported"`
	Rejected []RejectedRecord `json:"rejected,omitempty"`
}

// RejectedRecord is a catalogue entry that was not stored.
type RejectedRecord struct {
	ZoneID string `json:"zone_id"`
	Reason string `json:"reason"`
}

// ZoneListResult is a page of the catalogue.
type ZoneListResult struct {
	Items []zone.Zone
	Total int64
	Page  int
	Limit int
}

// ZoneCatalogService is the application service for administering the
// persistent zone catalogue.
type ZoneCatalogService struct {
	repo   zone.Repository
	logger *zap.Logger
}

// NewZoneCatalogService creates a new ZoneCatalogService.
func NewZoneCatalogService(repo zone.Repository, logger *zap.Logger) *ZoneCatalogService {
	return &ZoneCatalogService{repo: repo, logger: logger}
}

// ListZones returns one page of the catalogue.
func (s *ZoneCatalogService) ListZones(ctx context.Context, page, limit int) (*ZoneListResult, error) {
	items, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	return &ZoneListResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// GetZone returns a single zone.
func (s *ZoneCatalogService) GetZone(ctx context.Context, id string) (*zone.Zone, error) {
	return s.repo.FindByID(ctx, id)
}

// UpsertZone validates and stores z.
func (s *ZoneCatalogService) UpsertZone(ctx context.Context, z zone.Zone) (*zone.Zone, error) {
	if err := z.Validate(); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if err := s.repo.Save(ctx, z); err != nil {
		return nil, err
	}
	s.logger.Info("zone saved",
		zap.String("zone_id", z.ID),
		zap.String("level", string(z.Level)),
	)
	return &z, nil
}

// DeleteZone removes a zone from the catalogue.
func (s *ZoneCatalogService) DeleteZone(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("zone deleted", zap.String("zone_id", id))
	return nil
}

// ImportGeoJSON stores every valid zone of a FeatureCollection. Invalid
// features are reported back and skipped.
func (s *ZoneCatalogService) ImportGeoJSON(ctx context.Context, data []byte) (*ImportResult, error) {
	zones, rejected, err := catalog.FromGeoJSON(data)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	result := &ImportResult{}
	for _, r := range rejected {
		result.Rejected = append(result.Rejected, RejectedRecord{ZoneID: r.Zone.ID, Reason: r.Err.Error()})
	}
	for _, z := range zones {
		if err := s.repo.Save(ctx, z); err != nil {
			return nil, err
		}
		result.Imported++
	}

	s.logger.Info("zone catalogue imported",
		zap.Int("imported", result.Imported),
		zap.Int("rejected", len(result.Rejected)),
	)
	return result, nil
}

// ExportGeoJSON renders the whole catalogue as a FeatureCollection.
func (s *ZoneCatalogService) ExportGeoJSON(ctx context.Context) ([]byte, error) {
	const pageSize = 500

	var all []zone.Zone
	for page := 1; ; page++ {
		items, total, err := s.repo.List(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) < pageSize || int64(len(all)) >= total {
			break
		}
	}
	return catalog.ToGeoJSON(all)
}

// Seed imports a catalogue file's contents when the catalogue is empty.
func (s *ZoneCatalogService) Seed(ctx context.Context, data []byte) (*ImportResult, error) {
	_, total, err := s.repo.List(ctx, 1, 1)
	if err != nil {
		return nil, err
	}
	if total > 0 {
		s.logger.Info("zone catalogue already populated, skipping seed", zap.Int64("zones", total))
		return &ImportResult{}, nil
	}
	return s.ImportGeoJSON(ctx, data)
}
