package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideStatus string
type PaymentStatus string
type PaymentMethod string

const (
	RideStatusSearching       RideStatus = "searching"
	RideStatusAccepted        RideStatus = "accepted"
	RideStatusArriving        RideStatus = "arriving"
	RideStatusArrived         RideStatus = "arrived"
	RideStatusInProgress      RideStatus = "in_progress"
	RideStatusCompleted       RideStatus = "completed"
	RideStatusPaymentPending  RideStatus = "payment_pending"
	RideStatusPaid            RideStatus = "paid"
	RideStatusCancelledRider  RideStatus = "cancelled_by_rider"
	RideStatusCancelledDriver RideStatus = "cancelled_by_driver"
	RideStatusNoDrivers       RideStatus = "no_drivers"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"

	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodOnline PaymentMethod = "online"
)

// rideTransitions is the single authority on which lifecycle moves are
// legal. Every status write in the repository and service layers goes
// through CanTransition; nothing else compares status strings.
var rideTransitions = map[RideStatus][]RideStatus{
	RideStatusSearching:      {RideStatusAccepted, RideStatusCancelledRider, RideStatusNoDrivers},
	RideStatusAccepted:       {RideStatusArriving, RideStatusArrived, RideStatusCancelledRider, RideStatusCancelledDriver},
	RideStatusArriving:       {RideStatusArrived, RideStatusCancelledRider, RideStatusCancelledDriver},
	RideStatusArrived:        {RideStatusInProgress, RideStatusCancelledRider, RideStatusCancelledDriver},
	RideStatusInProgress:     {RideStatusCompleted},
	RideStatusCompleted:      {RideStatusPaymentPending, RideStatusPaid},
	RideStatusPaymentPending: {RideStatusPaid},
}

func CanTransition(from, to RideStatus) bool {
	for _, next := range rideTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s RideStatus) IsTerminal() bool {
	switch s {
	case RideStatusPaid, RideStatusCancelledRider, RideStatusCancelledDriver, RideStatusNoDrivers:
		return true
	}
	return false
}

func (s RideStatus) IsCancelled() bool {
	return s == RideStatusCancelledRider || s == RideStatusCancelledDriver
}

// Active reports whether a driver is still committed to the ride.
func (s RideStatus) Active() bool {
	switch s {
	case RideStatusAccepted, RideStatusArriving, RideStatusArrived, RideStatusInProgress:
		return true
	}
	return false
}

type Ride struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	RideNumber string              `json:"ride_number" bson:"ride_number" validate:"required"`
	RiderID    primitive.ObjectID  `json:"rider_id" bson:"rider_id" validate:"required"`
	PartnerID  *primitive.ObjectID `json:"partner_id" bson:"partner_id"`

	Status        RideStatus    `json:"status" bson:"status" default:"searching"`
	PaymentStatus PaymentStatus `json:"payment_status" bson:"payment_status" default:"pending"`
	PaymentMethod PaymentMethod `json:"payment_method" bson:"payment_method" default:"cash"`

	Pickup      Location `json:"pickup" bson:"pickup" validate:"required"`
	Destination Location `json:"destination" bson:"destination" validate:"required"`

	// Quoted at request time from the routing service (or the haversine
	// fallback); frozen once PaymentStatus is paid.
	Fare     float64 `json:"fare" bson:"fare"`
	Distance float64 `json:"distance" bson:"distance"` // kilometers
	Duration int     `json:"duration" bson:"duration"` // seconds
	Currency string  `json:"currency" bson:"currency" default:"INR"`

	// Pickup confirmation code. Generated server side at creation, shared
	// only with the rider, verified server side on the arrived->in_progress
	// transition. Never serialized into API responses.
	OTP string `json:"-" bson:"otp"`

	RoutePolyline string `json:"route_polyline" bson:"route_polyline"`

	// Display copies written once at assignment from a fresh profile
	// fetch; user/partner documents remain the source of truth.
	RiderName    string `json:"rider_name" bson:"rider_name"`
	RiderPhone   string `json:"rider_phone" bson:"rider_phone"`
	PartnerName  string `json:"partner_name" bson:"partner_name"`
	PartnerPhone string `json:"partner_phone" bson:"partner_phone"`
	PartnerPhoto string `json:"partner_photo" bson:"partner_photo"`
	VehicleModel string `json:"vehicle_model" bson:"vehicle_model"`
	VehiclePlate string `json:"vehicle_plate" bson:"vehicle_plate"`

	CancellationReason string `json:"cancellation_reason" bson:"cancellation_reason"`

	RequestedAt time.Time  `json:"requested_at" bson:"requested_at"`
	AcceptedAt  *time.Time `json:"accepted_at" bson:"accepted_at"`
	ArrivedAt   *time.Time `json:"arrived_at" bson:"arrived_at"`
	StartedAt   *time.Time `json:"started_at" bson:"started_at"`
	CompletedAt *time.Time `json:"completed_at" bson:"completed_at"`
	PaidAt      *time.Time `json:"paid_at" bson:"paid_at"`
	CancelledAt *time.Time `json:"cancelled_at" bson:"cancelled_at"`

	// Optimistic concurrency token. Every mutating repository call is a
	// compare-and-swap on _id+version; a lost race surfaces as a conflict
	// instead of a silent last-write-wins.
	Version int64 `json:"version" bson:"version"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// SettlementDue is the one place that combines status and payment_status
// into "is the bill still owed". Handlers and views must not re-derive it.
func (r *Ride) SettlementDue() bool {
	if r.Status != RideStatusCompleted && r.Status != RideStatusPaymentPending {
		return false
	}
	return r.PaymentStatus != PaymentStatusPaid
}

// FareLocked reports whether fare-affecting fields may no longer change.
func (r *Ride) FareLocked() bool {
	return r.PaymentStatus == PaymentStatusPaid
}
