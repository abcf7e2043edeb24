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

type partnerRepository struct {
	collection *mongo.Collection
}

func NewPartnerRepository(db *mongo.Database) interfaces.PartnerRepository {
	return &partnerRepository{collection: db.Collection(utils.CollectionPathPartners)}
}

func (r *partnerRepository) Create(ctx context.Context, partner *models.Partner) error {
	now := time.Now()
	partner.ID = primitive.NewObjectID()
	partner.Status = models.PartnerStatusPending
	partner.Version = 1
	partner.CreatedAt = now
	partner.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, partner); err != nil {
		return fmt.Errorf("failed to create partner: %w", err)
	}
	return nil
}

func (r *partnerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Partner, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *partnerRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Partner, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *partnerRepository) findOne(ctx context.Context, filter bson.M) (*models.Partner, error) {
	var partner models.Partner
	err := r.collection.FindOne(ctx, filter).Decode(&partner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	return &partner, nil
}

func (r *partnerRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update partner: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *partnerRepository) List(ctx context.Context, status models.PartnerStatus, params *utils.PaginationParams) ([]*models.Partner, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count partners: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find partners: %w", err)
	}
	defer cursor.Close(ctx)

	var partners []*models.Partner
	if err := cursor.All(ctx, &partners); err != nil {
		return nil, 0, fmt.Errorf("failed to decode partners: %w", err)
	}
	return partners, total, nil
}

func (r *partnerRepository) SetOnline(ctx context.Context, id primitive.ObjectID, online bool) error {
	updates := map[string]interface{}{"is_online": online}
	// Going offline always drops availability; coming online only
	// restores it when no ride is in flight.
	if online {
		var partner models.Partner
		if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&partner); err == nil && partner.ActiveRideID == nil {
			updates["is_available"] = true
		}
	} else {
		updates["is_available"] = false
	}
	return r.Update(ctx, id, updates)
}

func (r *partnerRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, loc models.Location) error {
	now := time.Now()
	return r.Update(ctx, id, map[string]interface{}{
		"last_location":    loc,
		"location_seen_at": now,
	})
}

func (r *partnerRepository) FindNearbyAvailable(ctx context.Context, center models.Location, radiusKM float64, limit int) ([]*models.Partner, error) {
	filter := bson.M{
		"status":       models.PartnerStatusApproved,
		"is_online":    true,
		"is_available": true,
		"last_location": bson.M{
			"$near": bson.M{
				"$geometry":    center,
				"$maxDistance": radiusKM * 1000,
			},
		},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby partners: %w", err)
	}
	defer cursor.Close(ctx)

	var partners []*models.Partner
	if err := cursor.All(ctx, &partners); err != nil {
		return nil, fmt.Errorf("failed to decode nearby partners: %w", err)
	}
	return partners, nil
}

func (r *partnerRepository) ClaimForRide(ctx context.Context, id primitive.ObjectID, version int64, rideID primitive.ObjectID) (*models.Partner, error) {
	filter := bson.M{
		"_id":          id,
		"is_available": true,
		"version":      version,
	}
	update := bson.M{
		"$set": bson.M{
			"is_available":   false,
			"active_ride_id": rideID,
			"updated_at":     time.Now(),
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var partner models.Partner
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&partner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrPartnerUnavailable
		}
		return nil, fmt.Errorf("failed to claim partner: %w", err)
	}
	return &partner, nil
}

func (r *partnerRepository) ReleaseFromRide(ctx context.Context, id primitive.ObjectID, rideID primitive.ObjectID) error {
	// Only release if the partner still holds this exact ride.
	filter := bson.M{"_id": id, "active_ride_id": rideID}
	update := bson.M{
		"$set": bson.M{
			"active_ride_id": nil,
			"updated_at":     time.Now(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release partner: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil
	}

	// Availability comes back only while the driver app is connected.
	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "is_online": true},
		bson.M{"$set": bson.M{"is_available": true}})
	if err != nil {
		return fmt.Errorf("failed to restore availability: %w", err)
	}
	return nil
}

func (r *partnerRepository) RecordRideEarnings(ctx context.Context, id primitive.ObjectID, amount float64) error {
	update := bson.M{
		"$inc": bson.M{"earnings": amount, "total_rides": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to record earnings: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
