package mongodb

import (
	"encoding/json"
	"testing"

	"pathgo/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The redis cache stores values as JSON, and the ride model keeps the
// OTP out of JSON so API responses never carry it. The cache entry must
// re-attach it or a cache hit would hand back a ride that can no longer
// verify pickup.
func TestRideCacheEntryKeepsOTP(t *testing.T) {
	ride := &models.Ride{
		ID:         primitive.NewObjectID(),
		RideNumber: "PG-20260828-K4T9XQ",
		RiderID:    primitive.NewObjectID(),
		Status:     models.RideStatusAccepted,
		OTP:        "4821",
		Version:    2,
	}

	entry := cachedRide{Ride: ride, OTP: ride.OTP}
	data, err := json.Marshal(&entry)
	require.NoError(t, err)

	restored := cachedRide{Ride: &models.Ride{}}
	require.NoError(t, json.Unmarshal(data, &restored))
	restored.Ride.OTP = restored.OTP

	assert.Equal(t, "4821", restored.Ride.OTP)
	assert.Equal(t, ride.RideNumber, restored.Ride.RideNumber)
	assert.Equal(t, ride.Status, restored.Ride.Status)
	assert.Equal(t, ride.Version, restored.Ride.Version)
}

func TestRideJSONNeverExposesOTP(t *testing.T) {
	ride := &models.Ride{
		ID:     primitive.NewObjectID(),
		Status: models.RideStatusArrived,
		OTP:    "4821",
	}

	data, err := json.Marshal(ride)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "4821")
	assert.NotContains(t, string(data), `"otp"`)
}
