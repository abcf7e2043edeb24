package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKM(t *testing.T) {
	t.Run("coincident points", func(t *testing.T) {
		assert.Equal(t, 0.0, HaversineKM(12.9716, 77.5946, 12.9716, 77.5946))
	})

	t.Run("one degree along the equator", func(t *testing.T) {
		// 1 degree of longitude at the equator is ~111.19 km
		assert.InDelta(t, 111.19, HaversineKM(0, 0, 0, 1), 0.01)
	})

	t.Run("symmetric", func(t *testing.T) {
		forward := HaversineKM(12.9716, 77.5946, 13.0827, 80.2707)
		backward := HaversineKM(13.0827, 80.2707, 12.9716, 77.5946)
		assert.Equal(t, forward, backward)
	})
}

func TestIsWithinRadiusKM(t *testing.T) {
	// ~1.11 km apart
	assert.True(t, IsWithinRadiusKM(0, 0, 0, 0.01, 2.0))
	assert.False(t, IsWithinRadiusKM(0, 0, 0, 0.01, 1.0))
}

func TestEstimateDurationSec(t *testing.T) {
	// 30 km at 30 km/h is an hour
	assert.Equal(t, 3600, EstimateDurationSec(30, 30))
	// zero or negative speed falls back to the city average
	assert.Equal(t, 3600, EstimateDurationSec(30, 0))
	assert.Equal(t, 1200, EstimateDurationSec(10, AverageCitySpeedKMH))
}

func TestEstimateETAMinutes(t *testing.T) {
	assert.Equal(t, 20, EstimateETAMinutes(10))
	assert.Equal(t, 60, EstimateETAMinutes(30))
}
