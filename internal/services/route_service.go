package services

import (
	"context"

	"pathgo/internal/models"
	"pathgo/internal/utils"
	"pathgo/pkg/logger"
	"pathgo/pkg/maps"
)

// RouteService turns a pickup/destination pair into distance, duration
// and a polyline. Providers are tried in order (OSRM first, Google Maps
// when configured); when every provider fails the estimate degrades to
// the haversine distance at average city speed so a ride request never
// fails just because routing is down.
type RouteService interface {
	Estimate(ctx context.Context, pickup, destination models.Location) (*RouteEstimate, error)
}

type RouteEstimate struct {
	DistanceKM  float64 `json:"distance_km"`
	DurationSec int     `json:"duration_sec"`
	Polyline    string  `json:"polyline"`
	Fare        float64 `json:"fare"`
	// Estimated marks a straight-line fallback rather than a routed path.
	Estimated bool `json:"estimated"`
}

type routeService struct {
	providers []maps.DirectionsProvider
	logger    *logger.Logger
}

func NewRouteService(logger *logger.Logger, providers ...maps.DirectionsProvider) RouteService {
	return &routeService{providers: providers, logger: logger}
}

func (s *routeService) Estimate(ctx context.Context, pickup, destination models.Location) (*RouteEstimate, error) {
	request := &maps.DirectionsRequest{
		Origin:      maps.Location{Latitude: pickup.Latitude(), Longitude: pickup.Longitude()},
		Destination: maps.Location{Latitude: destination.Latitude(), Longitude: destination.Longitude()},
	}

	for _, provider := range s.providers {
		resp, err := provider.GetDirections(ctx, request)
		if err != nil {
			s.logger.WithError(err).Warn("directions provider failed, trying next")
			continue
		}
		if len(resp.Routes) == 0 {
			continue
		}

		route := resp.Routes[0]
		return &RouteEstimate{
			DistanceKM:  route.DistanceKM,
			DurationSec: route.DurationSec,
			Polyline:    route.Polyline,
			Fare:        utils.QuoteFare(route.DistanceKM, route.DurationSec),
		}, nil
	}

	// Straight-line fallback at average city speed.
	distanceKM := utils.HaversineKM(pickup.Latitude(), pickup.Longitude(), destination.Latitude(), destination.Longitude())
	durationSec := utils.EstimateDurationSec(distanceKM, utils.AverageCitySpeedKMH)

	s.logger.WithFields(map[string]interface{}{
		"distance_km": distanceKM,
	}).Warn("all directions providers failed, using haversine estimate")

	return &RouteEstimate{
		DistanceKM:  distanceKM,
		DurationSec: durationSec,
		Fare:        utils.QuoteFare(distanceKM, durationSec),
		Estimated:   true,
	}, nil
}
