package models

import (
	"time"
)

// Location is a GeoJSON point plus the human-readable address it was
// geocoded from. Coordinates are [longitude, latitude] to match Mongo's
// 2dsphere index ordering.
type Location struct {
	Type        string    `json:"type" bson:"type" default:"Point"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"required,len=2"`
	Address     string    `json:"address" bson:"address"`
	City        string    `json:"city" bson:"city"`
	PostalCode  string    `json:"postal_code" bson:"postal_code"`
	Landmark    string    `json:"landmark" bson:"landmark"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

func NewPoint(lat, lng float64) Location {
	return Location{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
	}
}

func (l Location) Latitude() float64 {
	if len(l.Coordinates) >= 2 {
		return l.Coordinates[1]
	}
	return 0
}

func (l Location) Longitude() float64 {
	if len(l.Coordinates) >= 1 {
		return l.Coordinates[0]
	}
	return 0
}

func (l Location) IsZero() bool {
	return len(l.Coordinates) < 2
}
