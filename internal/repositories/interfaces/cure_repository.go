package interfaces

import (
	"context"

	"pathgo/internal/models"
	"pathgo/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CurePartnerRepository interface {
	Create(ctx context.Context, partner *models.CurePartner) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.CurePartner, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.CurePartner, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	FindNearby(ctx context.Context, center models.Location, radiusKM float64, limit int) ([]*models.CurePartner, error)
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.CurePartner, int64, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, doctor *models.Doctor) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	GetByPartner(ctx context.Context, partnerID primitive.ObjectID) ([]*models.Doctor, error)
	Search(ctx context.Context, specialization string, params *utils.PaginationParams) ([]*models.Doctor, int64, error)
}

type AmbulanceRepository interface {
	Create(ctx context.Context, ambulance *models.Ambulance) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error)
	GetByPartner(ctx context.Context, partnerID primitive.ObjectID) ([]*models.Ambulance, error)
	SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error
	UpdateLocation(ctx context.Context, id primitive.ObjectID, loc models.Location) error
	// ClaimAvailable atomically marks one available ambulance of the
	// partner busy and returns it, or ErrNotFound when none is free.
	ClaimAvailable(ctx context.Context, partnerID primitive.ObjectID) (*models.Ambulance, error)
}

type EmergencyRepository interface {
	Create(ctx context.Context, ec *models.EmergencyCase) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.EmergencyCase, error)
	Transition(ctx context.Context, id primitive.ObjectID, from models.EmergencyStatus, version int64, to models.EmergencyStatus, updates map[string]interface{}) (*models.EmergencyCase, error)
	GetOpenByUser(ctx context.Context, userID primitive.ObjectID) (*models.EmergencyCase, error)
	GetByPartner(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyCase, int64, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyCase, int64, error)
}
