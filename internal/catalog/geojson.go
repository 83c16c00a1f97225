// Package catalog converts zone catalogues to and from GeoJSON.
package catalog

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
)

// Feature property keys understood in zone catalogues.
const (
	propID          = "id"
	propTitle       = "title"
	propDescription = "description"
	propRadius      = "radius_meters"
	propLevel       = "level"
	propType        = "type"
	propReportCount = "report_count"
)

// FromGeoJSON converts a FeatureCollection into zones. Point features
// use the radius_meters property; Polygon features become the circle around
// their centroid that covers every vertex of the outer ring.
func FromGeoJSON(data []byte) ([]zone.Zone, []zone.Rejected, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse zone catalogue: %w", err)
	}

	var (
		zones    []zone.Zone
		rejected []zone.Rejected
	)
	for i, f := range fc.Features {
		z, err := featureToZone(f)
		if err != nil {
			if z.ID == "" {
				z.ID = "feature-" + strconv.Itoa(i)
			}
			rejected = append(rejected, zone.Rejected{Zone: z, Err: err})
			continue
		}
		zones = append(zones, z)
	}
	return zones, rejected, nil
}

// ToGeoJSON renders zones as Point features.
func ToGeoJSON(zones []zone.Zone) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, z := range zones {
		f := geojson.NewFeature(orb.Point{z.Center.Longitude, z.Center.Latitude})
		f.ID = z.ID
		f.Properties[propID] = z.ID
		f.Properties[propTitle] = z.Title
		f.Properties[propDescription] = z.Description
		f.Properties[propRadius] = z.RadiusMeters
		f.Properties[propLevel] = string(z.Level)
		f.Properties[propType] = string(z.Type)
		f.Properties[propReportCount] = z.ReportCount
		fc.Append(f)
	}
	return fc.MarshalJSON()
}

func featureToZone(f *geojson.Feature) (zone.Zone, error) {
	z := zone.Zone{
		ID:          featureID(f),
		Title:       stringProp(f.Properties, propTitle),
		Description: stringProp(f.Properties, propDescription),
		Level:       zone.Level(stringProp(f.Properties, propLevel)),
		Type:        zone.Type(stringProp(f.Properties, propType)),
		ReportCount: int(numberProp(f.Properties, propReportCount)),
	}

	switch g := f.Geometry.(type) {
	case orb.Point:
		z.Center = pointToCoordinate(g)
		z.RadiusMeters = numberProp(f.Properties, propRadius)
	case orb.Polygon:
		if len(g) == 0 || len(g[0]) == 0 {
			return z, fmt.Errorf("zone %s: empty polygon", z.ID)
		}
		centroid, _ := planar.CentroidArea(g)
		z.Center = pointToCoordinate(centroid)
		for _, p := range g[0] {
			if d := geo.Distance(z.Center, pointToCoordinate(p)); d > z.RadiusMeters {
				z.RadiusMeters = d
			}
		}
	default:
		return z, fmt.Errorf("zone %s: unsupported geometry %T", z.ID, f.Geometry)
	}

	if z.Title == "" {
		z.Title = z.ID
	}
	if err := z.Validate(); err != nil {
		return z, err
	}
	return z, nil
}

func featureID(f *geojson.Feature) string {
	switch id := f.ID.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return stringProp(f.Properties, propID)
}

func pointToCoordinate(p orb.Point) geo.Coordinate {
	return geo.Coordinate{Latitude: p.Lat(), Longitude: p.Lon()}
}

func stringProp(p geojson.Properties, key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

func numberProp(p geojson.Properties, key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return 0
}
