package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AppointmentStatus string

const (
	AppointmentBooked    AppointmentStatus = "booked"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentBooked:    {AppointmentConfirmed, AppointmentCancelled},
	AppointmentConfirmed: {AppointmentCompleted, AppointmentCancelled},
}

func (s AppointmentStatus) CanTransition(to AppointmentStatus) bool {
	for _, next := range appointmentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Appointment is a doctor consultation booking at a cure partner.
// A (doctor, date, slot) combination may only be held by one
// non-cancelled appointment; the repository enforces it with a CAS
// insert against the unique slot index.
type Appointment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	PartnerID primitive.ObjectID `json:"partner_id" bson:"partner_id" validate:"required"`
	DoctorID  primitive.ObjectID `json:"doctor_id" bson:"doctor_id" validate:"required"`
	Status    AppointmentStatus  `json:"status" bson:"status" default:"booked"`

	PatientName  string  `json:"patient_name" bson:"patient_name" validate:"required"`
	PatientPhone string  `json:"patient_phone" bson:"patient_phone" validate:"required"`
	Date         string  `json:"date" bson:"date" validate:"required"` // YYYY-MM-DD
	Slot         string  `json:"slot" bson:"slot" validate:"required"` // e.g. "10:30"
	Fee          float64 `json:"fee" bson:"fee"`

	DoctorName     string `json:"doctor_name" bson:"doctor_name"`
	Specialization string `json:"specialization" bson:"specialization"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
