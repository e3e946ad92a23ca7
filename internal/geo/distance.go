package geo

import (
	"math"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Haversine returns the great-circle distance in kilometres between two
// points. Callers are responsible for validity; see DistanceKm for the
// nil-tolerant wrapper used by scoring.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceKm computes the distance between two optional points. The second
// return value is false when either point is missing or has a non-finite
// component; scoring must treat that as "unknown", never as near or far.
func DistanceKm(a, b *Point) (float64, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if !finite(a.Lat) || !finite(a.Lng) || !finite(b.Lat) || !finite(b.Lng) {
		return 0, false
	}
	return Haversine(*a, *b), true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
