package domain

import "math"

// Locator finds the candidate event closest to a reference point.
type Locator interface {
	// Nearest returns the closest event, its distance in kilometers, and
	// false only when candidates is empty. Ties break to the first
	// candidate in input order (strict < comparison).
	Nearest(ref Coordinates, candidates []EventFeature) (EventFeature, float64, bool)
}

// GreatCircleLocator implements Locator with the haversine great-circle
// distance on a spherical Earth.
type GreatCircleLocator struct{}

func (GreatCircleLocator) Nearest(ref Coordinates, candidates []EventFeature) (EventFeature, float64, bool) {
	if len(candidates) == 0 {
		return EventFeature{}, 0, false
	}
	nearest := candidates[0]
	best := HaversineKm(ref, candidates[0].Coordinates)
	for _, c := range candidates[1:] {
		if d := HaversineKm(ref, c.Coordinates); d < best {
			best = d
			nearest = c
		}
	}
	return nearest, best, true
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
