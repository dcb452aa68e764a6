// Package geo implements great-circle distance and the proximity filters used
// to find nearby and duplicate furniture records.
package geo

import "math"

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p has finite, in-range coordinates.
// Distance and the filters never call it; callers validate input first.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Locatable is anything with a position.
type Locatable interface {
	Position() Point
}

// Typed is a locatable record with a furniture type label.
type Typed interface {
	Locatable
	TypeLabel() string
}

// Distance returns the Haversine great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dPhi := radians(b.Lat - a.Lat)
	dLambda := radians(b.Lng - a.Lng)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadius * c
}

// FindNearby returns the items within radius meters of at, in input order.
func FindNearby[T Locatable](items []T, at Point, radius float64) []T {
	out := make([]T, 0)
	for _, it := range items {
		if Distance(it.Position(), at) <= radius {
			out = append(out, it)
		}
	}
	return out
}

// FindPotentialDuplicates returns the items of exactly typeLabel within radius
// meters of at, in input order. The type comparison is case-sensitive.
func FindPotentialDuplicates[T Typed](items []T, at Point, typeLabel string, radius float64) []T {
	out := make([]T, 0)
	for _, it := range items {
		if it.TypeLabel() != typeLabel {
			continue
		}
		if Distance(it.Position(), at) <= radius {
			out = append(out, it)
		}
	}
	return out
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
