package interfaces

import (
	"context"

	"pathgo/internal/models"
	"pathgo/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AppointmentRepository interface {
	// Create inserts the booking. A duplicate (doctor, date, slot) for a
	// non-cancelled appointment returns ErrSlotTaken.
	Create(ctx context.Context, appt *models.Appointment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.AppointmentStatus) (*models.Appointment, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Appointment, int64, error)
	GetByDoctor(ctx context.Context, doctorID primitive.ObjectID, date string) ([]*models.Appointment, error)
	GetByPartner(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Appointment, int64, error)
}
