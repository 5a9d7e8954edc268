package geo

import (
	"math"

	"p2000-receiver/internal/models"

	"github.com/tidwall/geodesic"
)

// DistanceKm returns the WGS84 geodesic distance between a and b in
// kilometres, rounded to two decimals.
func DistanceKm(a, b models.Coordinates) float64 {
	var metres float64
	geodesic.WGS84.Inverse(a.Latitude, a.Longitude, b.Latitude, b.Longitude, &metres, nil, nil)
	return math.Round(metres/10) / 100
}
