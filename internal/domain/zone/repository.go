package zone

import (
	"context"

	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
)

// Provider supplies the zone set around a position. Implementations may be
// degraded, but must return an empty set rather than fail when they have no data.
type Provider interface {
	// FetchZones returns the zones relevant to the given position.
	FetchZones(ctx context.Context, position geo.Coordinate) ([]Zone, error)
}

// Repository is the persistence contract for the zone catalogue.
type Repository interface {
	Provider

	// FindByID retrieves a zone by its identifier.
	FindByID(ctx context.Context, id string) (*Zone, error)

	// Save inserts or replaces a zone.
	Save(ctx context.Context, z Zone) error

	// Delete removes a zone from the catalogue.
	Delete(ctx context.Context, id string) error

	// List returns a page of the catalogue ordered by ID, with the total count.
	List(ctx context.Context, page, limit int) ([]Zone, int64, error)
}
