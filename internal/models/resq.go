package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GarageRequestStatus string

const (
	GarageRequestRequested GarageRequestStatus = "requested"
	GarageRequestAccepted  GarageRequestStatus = "accepted"
	GarageRequestEnRoute   GarageRequestStatus = "en_route"
	GarageRequestCompleted GarageRequestStatus = "completed"
	GarageRequestCancelled GarageRequestStatus = "cancelled"
)

var garageTransitions = map[GarageRequestStatus][]GarageRequestStatus{
	GarageRequestRequested: {GarageRequestAccepted, GarageRequestCancelled},
	GarageRequestAccepted:  {GarageRequestEnRoute, GarageRequestCancelled},
	GarageRequestEnRoute:   {GarageRequestCompleted, GarageRequestCancelled},
}

func (s GarageRequestStatus) CanTransition(to GarageRequestStatus) bool {
	for _, next := range garageTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Mechanic is a ResQ roadside-assistance provider.
type Mechanic struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID       primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Name         string             `json:"name" bson:"name" validate:"required"`
	Phone        string             `json:"phone" bson:"phone" validate:"required"`
	GarageName   string             `json:"garage_name" bson:"garage_name" validate:"required"`
	Services     []string           `json:"services" bson:"services"`
	Location     Location           `json:"location" bson:"location"`
	IsAvailable  bool               `json:"is_available" bson:"is_available"`
	Rating       float64            `json:"rating" bson:"rating"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// GarageRequest is a roadside assistance job (breakdown, flat tyre,
// tow) raised by a user against the nearest mechanic.
type GarageRequest struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID     primitive.ObjectID  `json:"user_id" bson:"user_id" validate:"required"`
	MechanicID *primitive.ObjectID `json:"mechanic_id" bson:"mechanic_id"`
	Status     GarageRequestStatus `json:"status" bson:"status" default:"requested"`

	VehicleType string   `json:"vehicle_type" bson:"vehicle_type" validate:"required"`
	Issue       string   `json:"issue" bson:"issue" validate:"required"`
	Location    Location `json:"location" bson:"location" validate:"required"`

	UserName     string `json:"user_name" bson:"user_name"`
	UserPhone    string `json:"user_phone" bson:"user_phone"`
	MechanicName string `json:"mechanic_name" bson:"mechanic_name"`

	Charge float64 `json:"charge" bson:"charge"`

	Version int64 `json:"version" bson:"version"`

	RequestedAt time.Time  `json:"requested_at" bson:"requested_at"`
	AcceptedAt  *time.Time `json:"accepted_at" bson:"accepted_at"`
	CompletedAt *time.Time `json:"completed_at" bson:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}
