package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both components are finite and inside the WGS84 range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// String formats the coordinate as "lat,lon".
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// Offset returns the coordinate shifted by the given number of meters north
// and east. The longitude is wrapped into [-180, 180) and the latitude is
// clamped to the poles.
func (c Coordinate) Offset(northMeters, eastMeters float64) Coordinate {
	dLat := northMeters / EarthRadiusMeters
	dLon := eastMeters / (EarthRadiusMeters * math.Cos(degreesToRadians(c.Latitude)))
	return Coordinate{
		Latitude:  math.Max(-90, math.Min(90, c.Latitude+radiansToDegrees(dLat))),
		Longitude: NormalizeLongitude(c.Longitude + radiansToDegrees(dLon)),
	}
}

// NormalizeLongitude wraps lon into [-180, 180).
func NormalizeLongitude(lon float64) float64 {
	if lon >= -180 && lon < 180 {
		return lon
	}
	return math.Mod(math.Mod(lon+180, 360)+360, 360) - 180
}

// Distance returns the great-circle distance between a and b in meters
// using the haversine formula. Callers are responsible for passing valid
// coordinates.
func Distance(a, b Coordinate) float64 {
	lat1 := degreesToRadians(a.Latitude)
	lat2 := degreesToRadians(b.Latitude)
	dLat := degreesToRadians(b.Latitude - a.Latitude)
	dLon := degreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// LongitudeRange is a closed interval of longitudes with Min <= Max.
type LongitudeRange struct {
	Min, Max float64
}

// Contains reports whether lon lies in the range.
func (r LongitudeRange) Contains(lon float64) bool {
	return lon >= r.Min && lon <= r.Max
}

// Box is an area that contains every point within some distance of a
// center. A box that crosses the antimeridian has two longitude ranges.
type Box struct {
	MinLat, MaxLat float64
	Longitudes     []LongitudeRange
}

// Contains reports whether c lies inside the box.
func (b Box) Contains(c Coordinate) bool {
	if c.Latitude < b.MinLat || c.Latitude > b.MaxLat {
		return false
	}
	for _, r := range b.Longitudes {
		if r.Contains(c.Longitude) {
			return true
		}
	}
	return false
}

// BoundingBox returns a box containing every point within radiusMeters of
// center. Near a pole, or when the radius spans the globe, the box covers
// every longitude.
func BoundingBox(center Coordinate, radiusMeters float64) Box {
	dLat := radiansToDegrees(radiusMeters / EarthRadiusMeters)
	box := Box{
		MinLat: math.Max(-90, center.Latitude-dLat),
		MaxLat: math.Min(90, center.Latitude+dLat),
	}

	cosLat := math.Min(
		math.Cos(degreesToRadians(box.MinLat)),
		math.Cos(degreesToRadians(box.MaxLat)),
	)
	if box.MinLat <= -90 || box.MaxLat >= 90 || cosLat <= 0 {
		box.Longitudes = []LongitudeRange{{Min: -180, Max: 180}}
		return box
	}
	dLon := radiansToDegrees(radiusMeters / (EarthRadiusMeters * cosLat))
	if dLon >= 180 {
		box.Longitudes = []LongitudeRange{{Min: -180, Max: 180}}
		return box
	}

	lon := NormalizeLongitude(center.Longitude)
	minLon, maxLon := lon-dLon, lon+dLon
	switch {
	case minLon < -180:
		box.Longitudes = []LongitudeRange{{Min: minLon + 360, Max: 180}, {Min: -180, Max: maxLon}}
	case maxLon > 180:
		box.Longitudes = []LongitudeRange{{Min: minLon, Max: 180}, {Min: -180, Max: maxLon - 360}}
	default:
		box.Longitudes = []LongitudeRange{{Min: minLon, Max: maxLon}}
	}
	return box
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func radiansToDegrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
