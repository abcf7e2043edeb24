package maps

import "context"

// DirectionsProvider returns a drivable route between two points.
// Implementations must not invent data on failure; callers own the
// straight-line fallback.
type DirectionsProvider interface {
	GetDirections(ctx context.Context, request *DirectionsRequest) (*DirectionsResponse, error)
	Geocode(ctx context.Context, address string) (*GeocodeResponse, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResponse, error)
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type DirectionsRequest struct {
	Origin      Location `json:"origin"`
	Destination Location `json:"destination"`
}

type DirectionsResponse struct {
	Routes []Route `json:"routes"`
}

type Route struct {
	DistanceKM  float64 `json:"distance_km"`
	DurationSec int     `json:"duration_sec"`
	Polyline    string  `json:"polyline"`
}

type GeocodeResponse struct {
	Results []GeocodeResult `json:"results"`
}

type GeocodeResult struct {
	PlaceID     string   `json:"place_id"`
	Address     string   `json:"address"`
	Coordinates Location `json:"coordinates"`
	Types       []string `json:"types"`
}
