// Package geo provides great-circle distance math for proximity unlocks.
package geo

import (
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// Coord is a pair of signed decimal degrees.
type Coord struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether the coordinate lies inside the WGS84 bounds.
func (c *Coord) Valid() bool {
	if c == nil {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Distance returns the haversine distance between two points in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// IsWithin reports whether two coordinates are within radius meters of each
// other. Missing or invalid coordinates and non-positive radii fail closed.
func IsWithin(a, b *Coord, radius float64) bool {
	if !a.Valid() || !b.Valid() || radius <= 0 {
		return false
	}
	return Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude) <= radius
}
