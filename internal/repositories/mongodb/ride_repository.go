package mongodb

import (
	"context"
	"fmt"
	"time"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"
	"pathgo/internal/utils"
	"pathgo/pkg/cache"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type rideRepository struct {
	collection *mongo.Collection
	cache      *cache.RedisCache
}

func NewRideRepository(db *mongo.Database, cache *cache.RedisCache) interfaces.RideRepository {
	return &rideRepository{
		collection: db.Collection(utils.CollectionRides),
		cache:      cache,
	}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	now := time.Now()
	ride.ID = primitive.NewObjectID()
	ride.Status = models.RideStatusSearching
	ride.PaymentStatus = models.PaymentStatusPending
	ride.Version = 1
	ride.RequestedAt = now
	ride.CreatedAt = now
	ride.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, ride); err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}

	r.cacheRide(ctx, ride)
	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	if ride := r.rideFromCache(ctx, id); ride != nil {
		return ride, nil
	}

	var ride models.Ride
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}

	r.cacheRide(ctx, &ride)
	return &ride, nil
}

func (r *rideRepository) GetByRideNumber(ctx context.Context, rideNumber string) (*models.Ride, error) {
	var ride models.Ride
	err := r.collection.FindOne(ctx, bson.M{"ride_number": rideNumber}).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ride by number: %w", err)
	}
	return &ride, nil
}

func (r *rideRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update ride: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	r.invalidateRide(ctx, id)
	return nil
}

func (r *rideRepository) Transition(ctx context.Context, id primitive.ObjectID, fromStatus models.RideStatus, version int64, toStatus models.RideStatus, updates map[string]interface{}) (*models.Ride, error) {
	if !models.CanTransition(fromStatus, toStatus) {
		return nil, fmt.Errorf("illegal ride transition %s -> %s", fromStatus, toStatus)
	}

	set := bson.M{
		"status":     toStatus,
		"updated_at": time.Now(),
	}
	for k, v := range updates {
		set[k] = v
	}

	filter := bson.M{"_id": id, "status": fromStatus, "version": version}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.Ride
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, r.staleOrMissing(ctx, id)
		}
		return nil, fmt.Errorf("failed to transition ride: %w", err)
	}

	r.cacheRide(ctx, &ride)
	return &ride, nil
}

func (r *rideRepository) AssignPartner(ctx context.Context, id primitive.ObjectID, version int64, partner *models.Partner) (*models.Ride, error) {
	now := time.Now()

	filter := bson.M{
		"_id":     id,
		"status":  models.RideStatusSearching,
		"version": version,
	}
	update := bson.M{
		"$set": bson.M{
			"status":        models.RideStatusAccepted,
			"partner_id":    partner.ID,
			"partner_name":  partner.Name,
			"partner_phone": partner.Phone,
			"partner_photo": partner.ProfilePhoto,
			"vehicle_model": partner.VehicleModel,
			"vehicle_plate": partner.VehiclePlate,
			"accepted_at":   now,
			"updated_at":    now,
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.Ride
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, r.staleOrMissing(ctx, id)
		}
		return nil, fmt.Errorf("failed to assign partner: %w", err)
	}

	r.cacheRide(ctx, &ride)
	return &ride, nil
}

func (r *rideRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, method models.PaymentMethod) (*models.Ride, error) {
	now := time.Now()

	// The bill can only be settled once; the filter excludes rides
	// whose payment_status already moved to paid.
	filter := bson.M{
		"_id":            id,
		"status":         bson.M{"$in": []models.RideStatus{models.RideStatusCompleted, models.RideStatusPaymentPending}},
		"payment_status": models.PaymentStatusPending,
	}
	update := bson.M{
		"$set": bson.M{
			"status":         models.RideStatusPaid,
			"payment_status": models.PaymentStatusPaid,
			"payment_method": method,
			"paid_at":        now,
			"updated_at":     now,
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.Ride
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			existing, getErr := r.GetByID(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			if existing.PaymentStatus == models.PaymentStatusPaid {
				return nil, interfaces.ErrAlreadyPaid
			}
			return nil, interfaces.ErrStaleWrite
		}
		return nil, fmt.Errorf("failed to mark ride paid: %w", err)
	}

	r.cacheRide(ctx, &ride)
	return &ride, nil
}

func (r *rideRepository) GetActiveByRider(ctx context.Context, riderID primitive.ObjectID) (*models.Ride, error) {
	return r.findActive(ctx, bson.M{"rider_id": riderID})
}

func (r *rideRepository) GetActiveByPartner(ctx context.Context, partnerID primitive.ObjectID) (*models.Ride, error) {
	return r.findActive(ctx, bson.M{"partner_id": partnerID})
}

func (r *rideRepository) findActive(ctx context.Context, filter bson.M) (*models.Ride, error) {
	filter["status"] = bson.M{"$in": []models.RideStatus{
		models.RideStatusSearching,
		models.RideStatusAccepted,
		models.RideStatusArriving,
		models.RideStatusArrived,
		models.RideStatusInProgress,
	}}

	var ride models.Ride
	err := r.collection.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "requested_at", Value: -1}})).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active ride: %w", err)
	}
	return &ride, nil
}

func (r *rideRepository) GetUnsettledByRider(ctx context.Context, riderID primitive.ObjectID) ([]*models.Ride, error) {
	filter := bson.M{
		"rider_id":       riderID,
		"status":         bson.M{"$in": []models.RideStatus{models.RideStatusCompleted, models.RideStatusPaymentPending}},
		"payment_status": models.PaymentStatusPending,
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "completed_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find unsettled rides: %w", err)
	}
	defer cursor.Close(ctx)

	var rides []*models.Ride
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, fmt.Errorf("failed to decode unsettled rides: %w", err)
	}
	return rides, nil
}

func (r *rideRepository) GetByRider(ctx context.Context, riderID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return r.findPage(ctx, bson.M{"rider_id": riderID}, params)
}

func (r *rideRepository) GetByPartner(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return r.findPage(ctx, bson.M{"partner_id": partnerID}, params)
}

func (r *rideRepository) findPage(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find rides: %w", err)
	}
	defer cursor.Close(ctx)

	var rides []*models.Ride
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, 0, fmt.Errorf("failed to decode rides: %w", err)
	}
	return rides, total, nil
}

// staleOrMissing distinguishes a lost CAS from a ride that never
// existed, so callers can report a conflict rather than a 404.
func (r *rideRepository) staleOrMissing(ctx context.Context, id primitive.ObjectID) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err == nil && count == 0 {
		return interfaces.ErrNotFound
	}
	return interfaces.ErrStaleWrite
}

// cachedRide re-attaches the OTP for the cache round-trip. The model
// keeps it out of JSON so it never leaks into API responses, but the
// cache must not lose it.
type cachedRide struct {
	*models.Ride
	OTP string `json:"otp,omitempty"`
}

func (r *rideRepository) cacheRide(ctx context.Context, ride *models.Ride) {
	if ride.Status.IsTerminal() {
		r.invalidateRide(ctx, ride.ID)
		return
	}
	entry := cachedRide{Ride: ride, OTP: ride.OTP}
	_ = r.cache.Set(ctx, utils.CacheRidePrefix+ride.ID.Hex(), &entry, 5*time.Minute)
}

func (r *rideRepository) rideFromCache(ctx context.Context, id primitive.ObjectID) *models.Ride {
	entry := cachedRide{Ride: &models.Ride{}}
	if err := r.cache.Get(ctx, utils.CacheRidePrefix+id.Hex(), &entry); err != nil {
		return nil
	}
	entry.Ride.OTP = entry.OTP
	return entry.Ride
}

func (r *rideRepository) invalidateRide(ctx context.Context, id primitive.ObjectID) {
	_ = r.cache.Delete(ctx, utils.CacheRidePrefix+id.Hex())
}
