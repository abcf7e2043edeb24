package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSRMGetDirections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/route/v1/driving/")
		assert.Equal(t, "full", r.URL.Query().Get("overview"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"code": "Ok",
			"routes": [{"distance": 5200.0, "duration": 780.0, "geometry": "abc123"}]
		}`))
	}))
	defer server.Close()

	provider := NewOSRMProvider(server.URL)
	resp, err := provider.GetDirections(context.Background(), &DirectionsRequest{
		Origin:      Location{Latitude: 12.9716, Longitude: 77.5946},
		Destination: Location{Latitude: 12.9352, Longitude: 77.6245},
	})
	require.NoError(t, err)
	require.Len(t, resp.Routes, 1)

	assert.Equal(t, 5.2, resp.Routes[0].DistanceKM)
	assert.Equal(t, 780, resp.Routes[0].DurationSec)
	assert.Equal(t, "abc123", resp.Routes[0].Polyline)
}

func TestOSRMGetDirectionsNoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	}))
	defer server.Close()

	provider := NewOSRMProvider(server.URL)
	_, err := provider.GetDirections(context.Background(), &DirectionsRequest{})
	assert.Error(t, err)
}

func TestOSRMGetDirectionsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`rate limited`))
	}))
	defer server.Close()

	provider := NewOSRMProvider(server.URL)
	_, err := provider.GetDirections(context.Background(), &DirectionsRequest{})
	assert.Error(t, err)
}

func TestOSRMGeocodeUnsupported(t *testing.T) {
	provider := NewOSRMProvider("")
	_, err := provider.Geocode(context.Background(), "MG Road, Bengaluru")
	assert.Error(t, err)
	_, err = provider.ReverseGeocode(context.Background(), 12.97, 77.59)
	assert.Error(t, err)
}
