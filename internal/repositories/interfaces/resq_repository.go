package interfaces

import (
	"context"

	"pathgo/internal/models"
	"pathgo/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MechanicRepository interface {
	Create(ctx context.Context, mechanic *models.Mechanic) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Mechanic, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Mechanic, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error
	FindNearby(ctx context.Context, center models.Location, radiusKM float64, limit int) ([]*models.Mechanic, error)
}

type GarageRequestRepository interface {
	Create(ctx context.Context, req *models.GarageRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.GarageRequest, error)
	Transition(ctx context.Context, id primitive.ObjectID, from models.GarageRequestStatus, version int64, to models.GarageRequestStatus, updates map[string]interface{}) (*models.GarageRequest, error)
	GetOpenByUser(ctx context.Context, userID primitive.ObjectID) (*models.GarageRequest, error)
	ListOpen(ctx context.Context, limit int) ([]*models.GarageRequest, error)
	GetByMechanic(ctx context.Context, mechanicID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GarageRequest, int64, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GarageRequest, int64, error)
}
