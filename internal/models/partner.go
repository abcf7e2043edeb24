package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PartnerStatus string

const (
	PartnerStatusPending  PartnerStatus = "pending"
	PartnerStatusApproved PartnerStatus = "approved"
	PartnerStatusRejected PartnerStatus = "rejected"
	PartnerStatusBlocked  PartnerStatus = "blocked"
)

// Partner is a driver on the ride side of the platform (the pathPartners
// collection). Availability is flipped atomically together with ride
// assignment so a driver can never hold two active rides.
type Partner struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID       primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Name         string             `json:"name" bson:"name" validate:"required"`
	Phone        string             `json:"phone" bson:"phone" validate:"required"`
	ProfilePhoto string             `json:"profile_photo" bson:"profile_photo"`
	Status       PartnerStatus      `json:"status" bson:"status" default:"pending"`

	VehicleModel string `json:"vehicle_model" bson:"vehicle_model" validate:"required"`
	VehiclePlate string `json:"vehicle_plate" bson:"vehicle_plate" validate:"required"`
	LicenseNo    string `json:"license_no" bson:"license_no" validate:"required"`

	// Online means the driver app is connected and accepting offers.
	// Available additionally means no active ride is assigned.
	IsOnline       bool                `json:"is_online" bson:"is_online"`
	IsAvailable    bool                `json:"is_available" bson:"is_available"`
	ActiveRideID   *primitive.ObjectID `json:"active_ride_id" bson:"active_ride_id"`
	LastLocation   Location            `json:"last_location" bson:"last_location"`
	LocationSeenAt *time.Time          `json:"location_seen_at" bson:"location_seen_at"`

	Rating     float64 `json:"rating" bson:"rating"`
	TotalRides int64   `json:"total_rides" bson:"total_rides"`
	Earnings   float64 `json:"earnings" bson:"earnings"`

	Version int64 `json:"version" bson:"version"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
