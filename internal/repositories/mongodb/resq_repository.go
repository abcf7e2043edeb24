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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mechanicRepository struct {
	collection *mongo.Collection
}

func NewMechanicRepository(db *mongo.Database) interfaces.MechanicRepository {
	return &mechanicRepository{collection: db.Collection(utils.CollectionMechanics)}
}

func (r *mechanicRepository) Create(ctx context.Context, mechanic *models.Mechanic) error {
	now := time.Now()
	mechanic.ID = primitive.NewObjectID()
	mechanic.CreatedAt = now
	mechanic.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, mechanic); err != nil {
		return fmt.Errorf("failed to create mechanic: %w", err)
	}
	return nil
}

func (r *mechanicRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Mechanic, error) {
	var mechanic models.Mechanic
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&mechanic)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get mechanic: %w", err)
	}
	return &mechanic, nil
}

func (r *mechanicRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Mechanic, error) {
	var mechanic models.Mechanic
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&mechanic)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get mechanic: %w", err)
	}
	return &mechanic, nil
}

func (r *mechanicRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update mechanic: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *mechanicRepository) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	return r.Update(ctx, id, map[string]interface{}{"is_available": available})
}

func (r *mechanicRepository) FindNearby(ctx context.Context, center models.Location, radiusKM float64, limit int) ([]*models.Mechanic, error) {
	filter := bson.M{
		"is_available": true,
		"location": bson.M{
			"$near": bson.M{
				"$geometry":    center,
				"$maxDistance": radiusKM * 1000,
			},
		},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby mechanics: %w", err)
	}
	defer cursor.Close(ctx)

	var mechanics []*models.Mechanic
	if err := cursor.All(ctx, &mechanics); err != nil {
		return nil, fmt.Errorf("failed to decode mechanics: %w", err)
	}
	return mechanics, nil
}

type garageRequestRepository struct {
	collection *mongo.Collection
}

func NewGarageRequestRepository(db *mongo.Database) interfaces.GarageRequestRepository {
	return &garageRequestRepository{collection: db.Collection(utils.CollectionGarageRequests)}
}

func (r *garageRequestRepository) Create(ctx context.Context, req *models.GarageRequest) error {
	now := time.Now()
	req.ID = primitive.NewObjectID()
	req.Status = models.GarageRequestRequested
	req.Version = 1
	req.RequestedAt = now
	req.CreatedAt = now
	req.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to create garage request: %w", err)
	}
	return nil
}

func (r *garageRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.GarageRequest, error) {
	var req models.GarageRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get garage request: %w", err)
	}
	return &req, nil
}

func (r *garageRequestRepository) Transition(ctx context.Context, id primitive.ObjectID, from models.GarageRequestStatus, version int64, to models.GarageRequestStatus, updates map[string]interface{}) (*models.GarageRequest, error) {
	if !from.CanTransition(to) {
		return nil, fmt.Errorf("illegal garage request transition %s -> %s", from, to)
	}

	set := bson.M{"status": to, "updated_at": time.Now()}
	for k, v := range updates {
		set[k] = v
	}

	filter := bson.M{"_id": id, "status": from, "version": version}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var req models.GarageRequest
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
			if countErr == nil && count == 0 {
				return nil, interfaces.ErrNotFound
			}
			return nil, interfaces.ErrStaleWrite
		}
		return nil, fmt.Errorf("failed to transition garage request: %w", err)
	}
	return &req, nil
}

func (r *garageRequestRepository) GetOpenByUser(ctx context.Context, userID primitive.ObjectID) (*models.GarageRequest, error) {
	filter := bson.M{
		"user_id": userID,
		"status": bson.M{"$in": []models.GarageRequestStatus{
			models.GarageRequestRequested,
			models.GarageRequestAccepted,
			models.GarageRequestEnRoute,
		}},
	}

	var req models.GarageRequest
	err := r.collection.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "requested_at", Value: -1}})).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get open garage request: %w", err)
	}
	return &req, nil
}

func (r *garageRequestRepository) ListOpen(ctx context.Context, limit int) ([]*models.GarageRequest, error) {
	filter := bson.M{"status": models.GarageRequestRequested}
	opts := options.Find().
		SetSort(bson.D{{Key: "requested_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list open garage requests: %w", err)
	}
	defer cursor.Close(ctx)

	var reqs []*models.GarageRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("failed to decode garage requests: %w", err)
	}
	return reqs, nil
}

func (r *garageRequestRepository) GetByMechanic(ctx context.Context, mechanicID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GarageRequest, int64, error) {
	return r.findPage(ctx, bson.M{"mechanic_id": mechanicID}, params)
}

func (r *garageRequestRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GarageRequest, int64, error) {
	return r.findPage(ctx, bson.M{"user_id": userID}, params)
}

func (r *garageRequestRepository) findPage(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.GarageRequest, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count garage requests: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find garage requests: %w", err)
	}
	defer cursor.Close(ctx)

	var reqs []*models.GarageRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode garage requests: %w", err)
	}
	return reqs, total, nil
}
