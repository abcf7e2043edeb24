package interfaces

import (
	"context"

	"pathgo/internal/models"
	"pathgo/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	UpdateProfilePhoto(ctx context.Context, id primitive.ObjectID, photoURL string) error
	UpdateDeviceToken(ctx context.Context, id primitive.ObjectID, token, platform string) error
	List(ctx context.Context, role models.UserRole, params *utils.PaginationParams) ([]*models.User, int64, error)
}
