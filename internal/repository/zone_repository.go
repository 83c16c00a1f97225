package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wayfarer-travel/service-companion/internal/domain"
	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
)

// ZoneModel is the GORM model for the danger_zones table.
type ZoneModel struct {
	ID           string    `gorm:"type:varchar(64);primaryKey"`
	Title        string    `gorm:"type:varchar(200);not null"`
	Description  string    `gorm:"type:text"`
	Latitude     float64   `gorm:"type:double precision;not null;index:idx_danger_zones_lat_lng"`
	Longitude    float64   `gorm:"type:double precision;not null;index:idx_danger_zones_lat_lng"`
	RadiusMeters float64   `gorm:"type:double precision;not null"`
	Level        string    `gorm:"type:varchar(20);not null"`
	ZoneType     string    `gorm:"type:varchar(20);not null"`
	ReportCount  int       `gorm:"type:int;not null;default:0"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (ZoneModel) TableName() string { return "danger_zones" }

// GormZoneRepository implements zone.Repository using GORM.
type GormZoneRepository struct {
	db             *gorm.DB
	searchRadius   float64
	haloMultiplier float64
}

// NewGormZoneRepository creates a repository whose FetchZones returns every
// zone whose halo comes within searchRadius meters of the position.
func NewGormZoneRepository(db *gorm.DB, searchRadius, haloMultiplier float64) *GormZoneRepository {
	return &GormZoneRepository{db: db, searchRadius: searchRadius, haloMultiplier: haloMultiplier}
}

// FetchZones narrows by bounding box in SQL and by great-circle distance in Go.
// The box is widened by the largest halo in the catalogue so a big zone
// centred outside the search radius is still found.
func (r *GormZoneRepository) FetchZones(ctx context.Context, position geo.Coordinate) ([]zone.Zone, error) {
	query := r.db.WithContext(ctx).Order("id")

	if r.searchRadius > 0 {
		var maxRadius float64
		if err := r.db.WithContext(ctx).
			Model(&ZoneModel{}).
			Select("COALESCE(MAX(radius_meters), 0)").
			Scan(&maxRadius).Error; err != nil {
			return nil, err
		}

		box := geo.BoundingBox(position, r.searchRadius+maxRadius*r.halo())
		lonSQL, lonArgs := longitudePredicate(box)
		query = query.
			Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
			Where(lonSQL, lonArgs...)
	}

	var models []ZoneModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	zones := make([]zone.Zone, 0, len(models))
	for i := range models {
		z := toZoneDomain(&models[i])
		if z.Reaches(position, r.searchRadius, r.halo()) {
			zones = append(zones, z)
		}
	}
	return zones, nil
}

func (r *GormZoneRepository) halo() float64 {
	if !(r.haloMultiplier >= 1) {
		return zone.DefaultHaloMultiplier
	}
	return r.haloMultiplier
}

// longitudePredicate renders the box's longitude ranges as one parenthesised
// condition. A box crossing the antimeridian yields two ranges joined by OR.
func longitudePredicate(box geo.Box) (string, []interface{}) {
	parts := make([]string, 0, len(box.Longitudes))
	args := make([]interface{}, 0, 2*len(box.Longitudes))
	for _, lr := range box.Longitudes {
		parts = append(parts, "longitude BETWEEN ? AND ?")
		args = append(args, lr.Min, lr.Max)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

func (r *GormZoneRepository) FindByID(ctx context.Context, id string) (*zone.Zone, error) {
	var model ZoneModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Zone", id)
		}
		return nil, err
	}
	z := toZoneDomain(&model)
	return &z, nil
}

// Save inserts z, or overwrites every column of an existing zone with the same ID.
func (r *GormZoneRepository) Save(ctx context.Context, z zone.Zone) error {
	if err := z.Validate(); err != nil {
		return domain.NewValidationError(err.Error())
	}
	model := toZoneModel(z)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "latitude", "longitude", "radius_meters", "level", "zone_type", "report_count", "updated_at"}),
		}).
		Create(model).Error
}

func (r *GormZoneRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ZoneModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Zone", id)
	}
	return nil
}

func (r *GormZoneRepository) List(ctx context.Context, page, limit int) ([]zone.Zone, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ZoneModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []ZoneModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	zones := make([]zone.Zone, len(models))
	for i := range models {
		zones[i] = toZoneDomain(&models[i])
	}
	return zones, total, nil
}

// --- Conversions ---

func toZoneModel(z zone.Zone) *ZoneModel {
	return &ZoneModel{
		ID:           z.ID,
		Title:        z.Title,
		Description:  z.Description,
		Latitude:     z.Center.Latitude,
		Longitude:    z.Center.Longitude,
		RadiusMeters: z.RadiusMeters,
		Level:        string(z.Level),
		ZoneType:     string(z.Type),
		ReportCount:  z.ReportCount,
		UpdatedAt:    time.Now().UTC(),
	}
}

func toZoneDomain(m *ZoneModel) zone.Zone {
	return zone.Zone{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Center:       geo.Coordinate{Latitude: m.Latitude, Longitude: m.Longitude},
		RadiusMeters: m.RadiusMeters,
		Level:        zone.Level(m.Level),
		Type:         zone.Type(m.ZoneType),
		ReportCount:  m.ReportCount,
	}
}
