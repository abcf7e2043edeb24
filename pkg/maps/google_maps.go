package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// GoogleMapsProvider backs geocoding and serves as the secondary
// directions source when the OSRM instance is down.
type GoogleMapsProvider struct {
	client *maps.Client
}

func NewGoogleMapsProvider(apiKey string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{client: client}, nil
}

func (g *GoogleMapsProvider) GetDirections(ctx context.Context, request *DirectionsRequest) (*DirectionsResponse, error) {
	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", request.Origin.Latitude, request.Origin.Longitude),
		Destination: fmt.Sprintf("%f,%f", request.Destination.Latitude, request.Destination.Longitude),
		Mode:        maps.TravelModeDriving,
	}

	resp, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("no route found")
	}

	routes := make([]Route, len(resp))
	for i, route := range resp {
		var distanceM int
		var durationSec int
		for _, leg := range route.Legs {
			distanceM += leg.Distance.Meters
			durationSec += int(leg.Duration.Seconds())
		}
		routes[i] = Route{
			DistanceKM:  float64(distanceM) / 1000,
			DurationSec: durationSec,
			Polyline:    route.OverviewPolyline.Points,
		}
	}

	return &DirectionsResponse{Routes: routes}, nil
}

func (g *GoogleMapsProvider) Geocode(ctx context.Context, address string) (*GeocodeResponse, error) {
	resp, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("geocoding failed: %w", err)
	}

	results := make([]GeocodeResult, len(resp))
	for i, result := range resp {
		results[i] = GeocodeResult{
			PlaceID: result.PlaceID,
			Address: result.FormattedAddress,
			Coordinates: Location{
				Latitude:  result.Geometry.Location.Lat,
				Longitude: result.Geometry.Location.Lng,
			},
			Types: result.Types,
		}
	}

	return &GeocodeResponse{Results: results}, nil
}

func (g *GoogleMapsProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResponse, error) {
	resp, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	})
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding failed: %w", err)
	}

	results := make([]GeocodeResult, len(resp))
	for i, result := range resp {
		results[i] = GeocodeResult{
			PlaceID: result.PlaceID,
			Address: result.FormattedAddress,
			Coordinates: Location{
				Latitude:  result.Geometry.Location.Lat,
				Longitude: result.Geometry.Location.Lng,
			},
			Types: result.Types,
		}
	}

	return &GeocodeResponse{Results: results}, nil
}
