package interfaces

import (
	"context"

	"pathgo/internal/models"
	"pathgo/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error)
	GetByRef(ctx context.Context, refID primitive.ObjectID) (*models.Transaction, error)
	GetByGatewayOrder(ctx context.Context, orderID string) (*models.Transaction, error)
	MarkStatus(ctx context.Context, id primitive.ObjectID, status models.TransactionStatus, gatewayPaymentID string) error
	GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error)
	GetByPartner(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error)
}
