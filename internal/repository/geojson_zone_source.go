package repository

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/wayfarer-travel/service-companion/internal/catalog"
	"github.com/wayfarer-travel/service-companion/internal/domain"
	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
)

// GeoJSONZoneSource is an in-memory zone catalogue, usually loaded from a
// GeoJSON FeatureCollection. It implements zone.Repository so the admin
// catalogue works without a database; changes are lost on restart.
type GeoJSONZoneSource struct {
	searchRadius   float64
	haloMultiplier float64

	mu    sync.RWMutex
	zones []zone.Zone // sorted by ID
}

// NewGeoJSONZoneSource creates a source over zones, returning those whose
// halo comes within searchRadius meters of the queried position.
func NewGeoJSONZoneSource(zones []zone.Zone, searchRadius, haloMultiplier float64) *GeoJSONZoneSource {
	s := &GeoJSONZoneSource{searchRadius: searchRadius, haloMultiplier: haloMultiplier}
	s.Replace(zones)
	return s
}

// LoadGeoJSONZoneSource reads a catalogue file. Features that cannot be
// turned into zones are returned alongside the source rather than failing it.
func LoadGeoJSONZoneSource(path string, searchRadius, haloMultiplier float64) (*GeoJSONZoneSource, []zone.Rejected, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read zone catalogue: %w", err)
	}
	zones, rejected, err := catalog.FromGeoJSON(data)
	if err != nil {
		return nil, nil, err
	}
	return NewGeoJSONZoneSource(zones, searchRadius, haloMultiplier), rejected, nil
}

// FetchZones returns the catalogue zones around position.
func (s *GeoJSONZoneSource) FetchZones(_ context.Context, position geo.Coordinate) ([]zone.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]zone.Zone, 0, len(s.zones))
	for _, z := range s.zones {
		if z.Reaches(position, s.searchRadius, s.haloMultiplier) {
			out = append(out, z)
		}
	}
	return out, nil
}

// FindByID retrieves a zone by its identifier.
func (s *GeoJSONZoneSource) FindByID(_ context.Context, id string) (*zone.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.indexOf(id)
	if !ok {
		return nil, domain.NewNotFoundError("Zone", id)
	}
	z := s.zones[i]
	return &z, nil
}

// Save inserts or replaces a zone.
func (s *GeoJSONZoneSource) Save(_ context.Context, z zone.Zone) error {
	if err := z.Validate(); err != nil {
		return domain.NewValidationError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexOf(z.ID)
	if ok {
		s.zones[i] = z
		return nil
	}
	s.zones = append(s.zones, zone.Zone{})
	copy(s.zones[i+1:], s.zones[i:])
	s.zones[i] = z
	return nil
}

// Delete removes a zone from the catalogue.
func (s *GeoJSONZoneSource) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexOf(id)
	if !ok {
		return domain.NewNotFoundError("Zone", id)
	}
	s.zones = append(s.zones[:i], s.zones[i+1:]...)
	return nil
}

// List returns a page of the catalogue ordered by ID.
func (s *GeoJSONZoneSource) List(_ context.Context, page, limit int) ([]zone.Zone, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.zones)
	start := (page - 1) * limit
	if start < 0 || start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	out := make([]zone.Zone, end-start)
	copy(out, s.zones[start:end])
	return out, int64(total), nil
}

// Replace swaps the whole catalogue. Later duplicates of an ID win.
func (s *GeoJSONZoneSource) Replace(zones []zone.Zone) {
	byID := make(map[string]zone.Zone, len(zones))
	for _, z := range zones {
		byID[z.ID] = z
	}
	sorted := make([]zone.Zone, 0, len(byID))
	for _, z := range byID {
		sorted = append(sorted, z)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones = sorted
}

// indexOf returns the position of id, or where it would be inserted.
func (s *GeoJSONZoneSource) indexOf(id string) (int, bool) {
	i := sort.Search(len(s.zones), func(i int) bool { return s.zones[i].ID >= id })
	return i, i < len(s.zones) && s.zones[i].ID == id
}
