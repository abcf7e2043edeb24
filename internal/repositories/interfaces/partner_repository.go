package interfaces

import (
	"context"

	"pathgo/internal/models"
	"pathgo/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PartnerRepository interface {
	Create(ctx context.Context, partner *models.Partner) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Partner, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Partner, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	List(ctx context.Context, status models.PartnerStatus, params *utils.PaginationParams) ([]*models.Partner, int64, error)

	// Presence
	SetOnline(ctx context.Context, id primitive.ObjectID, online bool) error
	UpdateLocation(ctx context.Context, id primitive.ObjectID, loc models.Location) error
	FindNearbyAvailable(ctx context.Context, center models.Location, radiusKM float64, limit int) ([]*models.Partner, error)

	// ClaimForRide atomically marks an available driver busy with the
	// given ride. It fails without side effects if the driver is no
	// longer available or the version has moved.
	ClaimForRide(ctx context.Context, id primitive.ObjectID, version int64, rideID primitive.ObjectID) (*models.Partner, error)
	// ReleaseFromRide clears the active ride and restores availability
	// for drivers that are still online.
	ReleaseFromRide(ctx context.Context, id primitive.ObjectID, rideID primitive.ObjectID) error

	RecordRideEarnings(ctx context.Context, id primitive.ObjectID, amount float64) error
}
