package geo

import (
	"math"

	"github.com/mmcloughlin/geohash"
)

// HashPrecision is the geohash length stored alongside each record.
const HashPrecision = 12

// Beyond this latitude geohash cells get too narrow for a 3x3 cover to be exact.
const maxCoverLat = 80.0

// Hash returns the full-precision geohash of p.
func Hash(p Point) string {
	return geohash.EncodeWithPrecision(p.Lat, p.Lng, HashPrecision)
}

// Cover returns the geohash cell containing at plus its eight neighbours, at
// the finest precision whose cells are at least radius meters wide and tall.
// Any point within radius of at lies inside one of the returned cells.
// It returns nil when no precision is coarse enough or at is near a pole;
// callers should then consider every record.
func Cover(at Point, radius float64) []string {
	if !at.Valid() || math.Abs(at.Lat) > maxCoverLat || radius < 0 {
		return nil
	}
	for chars := uint(HashPrecision); chars >= 1; chars-- {
		hash := geohash.EncodeWithPrecision(at.Lat, at.Lng, chars)
		width, height := cellSize(hash)
		if width >= radius && height >= radius {
			return append([]string{hash}, geohash.Neighbors(hash)...)
		}
	}
	return nil
}

// cellSize returns the narrowest width and the height of a cell in meters.
func cellSize(hash string) (width, height float64) {
	box := geohash.BoundingBox(hash)
	// Cells narrow towards the poles, so measure on the poleward edge.
	edge := box.MaxLat
	if math.Abs(box.MinLat) > math.Abs(box.MaxLat) {
		edge = box.MinLat
	}
	width = Distance(Point{Lat: edge, Lng: box.MinLng}, Point{Lat: edge, Lng: box.MaxLng})
	height = Distance(Point{Lat: box.MinLat, Lng: box.MinLng}, Point{Lat: box.MaxLat, Lng: box.MinLng})
	return width, height
}
