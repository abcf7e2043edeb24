package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyStatus string

const (
	EmergencyRequested        EmergencyStatus = "requested"
	EmergencyAmbulanceAssigned EmergencyStatus = "ambulance_assigned"
	EmergencyEnRoute          EmergencyStatus = "en_route"
	EmergencyAdmitted         EmergencyStatus = "admitted"
	EmergencyClosed           EmergencyStatus = "closed"
	EmergencyCancelled        EmergencyStatus = "cancelled"
)

var emergencyTransitions = map[EmergencyStatus][]EmergencyStatus{
	EmergencyRequested:         {EmergencyAmbulanceAssigned, EmergencyCancelled},
	EmergencyAmbulanceAssigned: {EmergencyEnRoute, EmergencyCancelled},
	EmergencyEnRoute:           {EmergencyAdmitted, EmergencyCancelled},
	EmergencyAdmitted:          {EmergencyClosed},
}

func (s EmergencyStatus) CanTransition(to EmergencyStatus) bool {
	for _, next := range emergencyTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// CurePartner is a hospital or clinic on the medical side of the
// platform. Doctors and ambulances are stored in their own collections
// keyed by PartnerID.
type CurePartner struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Name      string             `json:"name" bson:"name" validate:"required"`
	Phone     string             `json:"phone" bson:"phone" validate:"required"`
	Address   string             `json:"address" bson:"address"`
	Location  Location           `json:"location" bson:"location"`
	Approved  bool               `json:"approved" bson:"approved"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

type Doctor struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PartnerID      primitive.ObjectID `json:"partner_id" bson:"partner_id" validate:"required"`
	Name           string             `json:"name" bson:"name" validate:"required"`
	Specialization string             `json:"specialization" bson:"specialization" validate:"required"`
	Qualification  string             `json:"qualification" bson:"qualification"`
	Fee            float64            `json:"fee" bson:"fee" validate:"gte=0"`
	Photo          string             `json:"photo" bson:"photo"`
	// Weekday slots the doctor consults in, e.g. "10:00-13:00".
	Slots     []string  `json:"slots" bson:"slots"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type Ambulance struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PartnerID   primitive.ObjectID `json:"partner_id" bson:"partner_id" validate:"required"`
	Plate       string             `json:"plate" bson:"plate" validate:"required"`
	DriverName  string             `json:"driver_name" bson:"driver_name"`
	DriverPhone string             `json:"driver_phone" bson:"driver_phone"`
	IsAvailable bool               `json:"is_available" bson:"is_available"`
	Location    Location           `json:"location" bson:"location"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// EmergencyCase is a Cure dispatch: a medical emergency raised by a user
// and served by a cure partner's ambulance.
type EmergencyCase struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID  `json:"user_id" bson:"user_id" validate:"required"`
	PartnerID   *primitive.ObjectID `json:"partner_id" bson:"partner_id"`
	AmbulanceID *primitive.ObjectID `json:"ambulance_id" bson:"ambulance_id"`
	Status      EmergencyStatus     `json:"status" bson:"status" default:"requested"`

	PatientName string   `json:"patient_name" bson:"patient_name" validate:"required"`
	Condition   string   `json:"condition" bson:"condition"`
	Location    Location `json:"location" bson:"location" validate:"required"`
	ContactPhone string  `json:"contact_phone" bson:"contact_phone" validate:"required"`

	Version int64 `json:"version" bson:"version"`

	RequestedAt time.Time  `json:"requested_at" bson:"requested_at"`
	AssignedAt  *time.Time `json:"assigned_at" bson:"assigned_at"`
	AdmittedAt  *time.Time `json:"admitted_at" bson:"admitted_at"`
	ClosedAt    *time.Time `json:"closed_at" bson:"closed_at"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}
