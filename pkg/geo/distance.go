package geo

import (
	"math"

	"github.com/arnavshah/carematch-api/pkg/models"
)

const (
	earthRadiusMeters = 6371008.8
	metersPerMile     = 1609.344
)

// HaversineMeters returns the great-circle distance between two points
func HaversineMeters(a, b models.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// HaversineMiles is HaversineMeters in statute miles
func HaversineMiles(a, b models.Coordinates) float64 {
	return HaversineMeters(a, b) / metersPerMile
}
