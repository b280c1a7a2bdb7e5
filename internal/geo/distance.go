package geo

import (
	"math"

	"github.com/mmcloughlin/geohash"
)

// earthRadiusKm per the WGS-84 mean radius used by the marketplace UI.
const earthRadiusKm = 6371.0

// CellPrecision is the geohash length used to index spaces. Five
// characters cover roughly a 5 km cell, matching the default search
// radius.
const CellPrecision = 5

// DistanceKm returns the great-circle distance between two points in
// kilometers using the haversine formula. Inputs are degrees; callers
// are responsible for range validation.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLon := deg2rad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Cell encodes a coordinate to the geohash prefix used for space
// indexing and candidate lookup.
func Cell(lat, lon float64) string {
	return geohash.EncodeWithPrecision(lat, lon, CellPrecision)
}

// SearchCells returns the cell containing the point plus its eight
// neighbors, at a precision coarse enough that the 3x3 block covers
// radiusKm in every direction. A radius search fetches candidates from
// these cells (by prefix, since spaces are indexed at CellPrecision)
// and refines with DistanceKm; a point near a cell border is still
// found.
func SearchCells(lat, lon, radiusKm float64) []string {
	center := geohash.EncodeWithPrecision(lat, lon, precisionForRadius(radiusKm))
	return append([]string{center}, geohash.Neighbors(center)...)
}

// precisionForRadius picks the longest geohash prefix whose minimum
// cell side still covers the radius. The sides shrink toward the
// poles, so the thresholds sit below the equatorial cell sizes.
func precisionForRadius(radiusKm float64) uint {
	switch {
	case radiusKm <= 4.8:
		return 5
	case radiusKm <= 19:
		return 4
	case radiusKm <= 150:
		return 3
	case radiusKm <= 600:
		return 2
	default:
		return 1
	}
}
