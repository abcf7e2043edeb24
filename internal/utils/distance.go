package utils

import (
	"math"
)

const EarthRadiusKM = 6371.0

// HaversineKM is the straight-line fallback used when the routing
// service is unreachable. Symmetric in its arguments, zero iff the
// points coincide.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKM * c
}

func IsWithinRadiusKM(centerLat, centerLon, pointLat, pointLon, radiusKM float64) bool {
	return HaversineKM(centerLat, centerLon, pointLat, pointLon) <= radiusKM
}

// EstimateDurationSec assumes a fixed average city speed when no routed
// duration is available.
func EstimateDurationSec(distanceKM, averageSpeedKMH float64) int {
	if averageSpeedKMH <= 0 {
		averageSpeedKMH = AverageCitySpeedKMH
	}
	return int(math.Ceil(distanceKM / averageSpeedKMH * 3600))
}

func EstimateETAMinutes(distanceKM float64) int {
	return int(math.Ceil(float64(EstimateDurationSec(distanceKM, AverageCitySpeedKMH)) / 60))
}
