// Package geo holds the distance and interpolation helpers shared by the simulators.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/ukydev/geo-payloads/internal/models"
)

// EarthRadiusKm is the mean earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between a and b in kilometers.
func DistanceKm(a, b models.Location) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return EarthRadiusKm * c
}

// DistanceMeters returns the great-circle distance between a and b in meters.
func DistanceMeters(a, b models.Location) float64 {
	return DistanceKm(a, b) * 1000
}

// Lerp linearly interpolates between a and b; t is clamped to [0, 1].
func Lerp(a, b models.Location, t float64) models.Location {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return models.Location{Lat: a.Lat + (b.Lat-a.Lat)*t, Lon: a.Lon + (b.Lon-a.Lon)*t}
}

// Bearing returns the initial bearing from a to b in degrees.
func Bearing(a, b models.Location) float64 {
	return orbgeo.Bearing(ToPoint(a), ToPoint(b))
}

// Step walks meters along the geodesic from a towards b. Negative distances walk away from b.
func Step(a, b models.Location, meters float64) models.Location {
	if a == b {
		return a
	}
	return FromPoint(orbgeo.PointAtBearingAndDistance(ToPoint(a), Bearing(a, b), meters))
}

// ToPoint converts a location into an orb point (lon, lat order).
func ToPoint(l models.Location) orb.Point {
	return orb.Point{l.Lon, l.Lat}
}

// FromPoint converts an orb point into a location.
func FromPoint(p orb.Point) models.Location {
	return models.Location{Lat: p.Lat(), Lon: p.Lon()}
}
