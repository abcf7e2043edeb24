package mongodb

import (
	"context"
	"fmt"
	"time"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"
	"pathgo/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type transactionRepository struct {
	collection *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) interfaces.TransactionRepository {
	return &transactionRepository{collection: db.Collection(utils.CollectionTransactions)}
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	now := time.Now()
	txn.ID = primitive.NewObjectID()
	txn.CreatedAt = now
	txn.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, txn); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *transactionRepository) GetByRef(ctx context.Context, refID primitive.ObjectID) (*models.Transaction, error) {
	return r.findOne(ctx, bson.M{"ref_id": refID})
}

func (r *transactionRepository) GetByGatewayOrder(ctx context.Context, orderID string) (*models.Transaction, error) {
	return r.findOne(ctx, bson.M{"gateway_order_id": orderID})
}

func (r *transactionRepository) findOne(ctx context.Context, filter bson.M) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.collection.FindOne(ctx, filter).Decode(&txn)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

func (r *transactionRepository) MarkStatus(ctx context.Context, id primitive.ObjectID, status models.TransactionStatus, gatewayPaymentID string) error {
	updates := bson.M{"status": status, "updated_at": time.Now()}
	if gatewayPaymentID != "" {
		updates["gateway_payment_id"] = gatewayPaymentID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *transactionRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	return r.findPage(ctx, bson.M{"user_id": userID}, params)
}

func (r *transactionRepository) GetByPartner(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	return r.findPage(ctx, bson.M{"partner_id": partnerID}, params)
}

func (r *transactionRepository) findPage(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []*models.Transaction
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, 0, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return txns, total, nil
}
