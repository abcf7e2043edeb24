package services

import (
	"context"
	"errors"
	"testing"

	"pathgo/internal/models"
	"pathgo/internal/utils"
	"pathgo/pkg/logger"
	"pathgo/pkg/maps"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDirections struct {
	resp  *maps.DirectionsResponse
	err   error
	calls int
}

func (s *stubDirections) GetDirections(ctx context.Context, req *maps.DirectionsRequest) (*maps.DirectionsResponse, error) {
	s.calls++
	return s.resp, s.err
}

func (s *stubDirections) Geocode(ctx context.Context, address string) (*maps.GeocodeResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *stubDirections) ReverseGeocode(ctx context.Context, lat, lng float64) (*maps.GeocodeResponse, error) {
	return nil, errors.New("not implemented")
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	require.NoError(t, err)
	return log
}

func TestRouteEstimateUsesFirstHealthyProvider(t *testing.T) {
	down := &stubDirections{err: errors.New("connection refused")}
	up := &stubDirections{resp: &maps.DirectionsResponse{
		Routes: []maps.Route{{DistanceKM: 5.0, DurationSec: 600, Polyline: "poly"}},
	}}

	svc := NewRouteService(testLogger(t), down, up)
	estimate, err := svc.Estimate(context.Background(), models.NewPoint(12.97, 77.59), models.NewPoint(12.93, 77.62))
	require.NoError(t, err)

	assert.Equal(t, 1, down.calls)
	assert.Equal(t, 1, up.calls)
	assert.Equal(t, 5.0, estimate.DistanceKM)
	assert.Equal(t, 600, estimate.DurationSec)
	assert.Equal(t, "poly", estimate.Polyline)
	assert.Equal(t, utils.QuoteFare(5.0, 600), estimate.Fare)
	assert.False(t, estimate.Estimated)
}

func TestRouteEstimateFallsBackToHaversine(t *testing.T) {
	down := &stubDirections{err: errors.New("unreachable")}

	svc := NewRouteService(testLogger(t), down)
	pickup, destination := models.NewPoint(0, 0), models.NewPoint(0, 1)

	estimate, err := svc.Estimate(context.Background(), pickup, destination)
	require.NoError(t, err)

	assert.True(t, estimate.Estimated)
	assert.Empty(t, estimate.Polyline)
	assert.InDelta(t, 111.19, estimate.DistanceKM, 0.01)
	assert.Equal(t, utils.QuoteFare(estimate.DistanceKM, estimate.DurationSec), estimate.Fare)
}

func TestRouteEstimateWithNoProviders(t *testing.T) {
	svc := NewRouteService(testLogger(t))

	estimate, err := svc.Estimate(context.Background(), models.NewPoint(12.97, 77.59), models.NewPoint(12.97, 77.59))
	require.NoError(t, err)
	assert.True(t, estimate.Estimated)
	assert.Equal(t, utils.MinFare, estimate.Fare)
}
