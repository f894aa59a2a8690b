// Package geo provides great-circle distance math for donor matching.
package geo

import (
	"math"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between two coordinates in
// kilometers. It is symmetric and zero iff the coordinates are equal.
func DistanceKm(a, b domain.Coordinates) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// BoundingBox is a latitude/longitude rectangle used for approximate
// pool queries. Hits outside the true radius are discarded later by
// the exact distance check.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// BoundsAround returns a box that fully contains the circle of the
// given radius around center. Longitude degrees shrink with latitude;
// near the poles the box widens to the full longitude range.
func BoundsAround(center domain.Coordinates, radiusKm float64) BoundingBox {
	latDelta := radiusKm / 111.0

	lonScale := math.Cos(radians(center.Latitude))
	lonDelta := 180.0
	if lonScale > 1e-6 {
		lonDelta = radiusKm / (111.0 * lonScale)
	}

	return BoundingBox{
		MinLat: center.Latitude - latDelta,
		MaxLat: center.Latitude + latDelta,
		MinLon: center.Longitude - lonDelta,
		MaxLon: center.Longitude + lonDelta,
	}
}
