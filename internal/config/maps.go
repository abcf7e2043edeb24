package config

import "time"

type MapsConfig struct {
	Provider   string            `yaml:"provider"`
	OSRM       *OSRMConfig       `yaml:"osrm"`
	GoogleMaps *GoogleMapsConfig `yaml:"google_maps"`
}

type OSRMConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type GoogleMapsConfig struct {
	APIKey string `yaml:"api_key"`
}

func loadMapsConfig() *MapsConfig {
	return &MapsConfig{
		Provider: getEnv("MAPS_PROVIDER", "osrm"),
		OSRM: &OSRMConfig{
			BaseURL: getEnv("OSRM_BASE_URL", "https://router.project-osrm.org"),
			Timeout: getEnvAsDuration("OSRM_TIMEOUT", 5*time.Second),
		},
		GoogleMaps: &GoogleMapsConfig{
			APIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		},
	}
}
