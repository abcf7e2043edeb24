package interfaces

import (
	"context"

	"pathgo/internal/models"
	"pathgo/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideRepository interface {
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)
	GetByRideNumber(ctx context.Context, rideNumber string) (*models.Ride, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Transition moves the ride from the expected status and version to
	// the next status, applying extra updates in the same write. A stale
	// version or unexpected current status returns ErrStaleWrite without
	// touching the document.
	Transition(ctx context.Context, id primitive.ObjectID, fromStatus models.RideStatus, version int64, toStatus models.RideStatus, updates map[string]interface{}) (*models.Ride, error)

	// AssignPartner claims a searching ride for a driver. It only
	// succeeds while the ride is still in searching at the given
	// version, so two drivers can never win the same ride.
	AssignPartner(ctx context.Context, id primitive.ObjectID, version int64, partner *models.Partner) (*models.Ride, error)

	// MarkPaid flips payment_status to paid exactly once. Fare fields
	// are frozen from that point on.
	MarkPaid(ctx context.Context, id primitive.ObjectID, method models.PaymentMethod) (*models.Ride, error)

	GetActiveByRider(ctx context.Context, riderID primitive.ObjectID) (*models.Ride, error)
	GetActiveByPartner(ctx context.Context, partnerID primitive.ObjectID) (*models.Ride, error)
	GetUnsettledByRider(ctx context.Context, riderID primitive.ObjectID) ([]*models.Ride, error)

	GetByRider(ctx context.Context, riderID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	GetByPartner(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error)
}
