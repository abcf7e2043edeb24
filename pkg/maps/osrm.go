package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OSRMProvider talks to a public OSRM driving-directions instance.
// No API key; the demo server rate-limits aggressively, so deployments
// should point BaseURL at their own instance.
type OSRMProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewOSRMProvider(baseURL string) *OSRMProvider {
	if baseURL == "" {
		baseURL = "https://router.project-osrm.org"
	}
	return &OSRMProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (o *OSRMProvider) GetDirections(ctx context.Context, request *DirectionsRequest) (*DirectionsResponse, error) {
	apiURL := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=polyline",
		o.baseURL,
		request.Origin.Longitude, request.Origin.Latitude,
		request.Destination.Longitude, request.Destination.Latitude)

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OSRM API error: %s", string(body))
	}

	var osrmResp struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance float64 `json:"distance"` // meters
			Duration float64 `json:"duration"` // seconds
			Geometry string  `json:"geometry"`
		} `json:"routes"`
	}

	if err := json.Unmarshal(body, &osrmResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if osrmResp.Code != "Ok" || len(osrmResp.Routes) == 0 {
		return nil, fmt.Errorf("OSRM returned no route (code %s)", osrmResp.Code)
	}

	routes := make([]Route, len(osrmResp.Routes))
	for i, r := range osrmResp.Routes {
		routes[i] = Route{
			DistanceKM:  r.Distance / 1000,
			DurationSec: int(r.Duration),
			Polyline:    r.Geometry,
		}
	}

	return &DirectionsResponse{Routes: routes}, nil
}

// Geocode is not offered by OSRM itself; deployments wanting address
// search pair this provider with the Google one.
func (o *OSRMProvider) Geocode(ctx context.Context, address string) (*GeocodeResponse, error) {
	return nil, fmt.Errorf("geocoding not supported by OSRM provider")
}

func (o *OSRMProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResponse, error) {
	return nil, fmt.Errorf("reverse geocoding not supported by OSRM provider")
}
