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

type curePartnerRepository struct {
	collection *mongo.Collection
}

func NewCurePartnerRepository(db *mongo.Database) interfaces.CurePartnerRepository {
	return &curePartnerRepository{collection: db.Collection(utils.CollectionCurePartners)}
}

func (r *curePartnerRepository) Create(ctx context.Context, partner *models.CurePartner) error {
	now := time.Now()
	partner.ID = primitive.NewObjectID()
	partner.CreatedAt = now
	partner.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, partner); err != nil {
		return fmt.Errorf("failed to create cure partner: %w", err)
	}
	return nil
}

func (r *curePartnerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CurePartner, error) {
	var partner models.CurePartner
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&partner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cure partner: %w", err)
	}
	return &partner, nil
}

func (r *curePartnerRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.CurePartner, error) {
	var partner models.CurePartner
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&partner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cure partner: %w", err)
	}
	return &partner, nil
}

func (r *curePartnerRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update cure partner: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *curePartnerRepository) FindNearby(ctx context.Context, center models.Location, radiusKM float64, limit int) ([]*models.CurePartner, error) {
	filter := bson.M{
		"approved": true,
		"location": bson.M{
			"$near": bson.M{
				"$geometry":    center,
				"$maxDistance": radiusKM * 1000,
			},
		},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby cure partners: %w", err)
	}
	defer cursor.Close(ctx)

	var partners []*models.CurePartner
	if err := cursor.All(ctx, &partners); err != nil {
		return nil, fmt.Errorf("failed to decode cure partners: %w", err)
	}
	return partners, nil
}

func (r *curePartnerRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.CurePartner, int64, error) {
	filter := bson.M{"approved": true}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count cure partners: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find cure partners: %w", err)
	}
	defer cursor.Close(ctx)

	var partners []*models.CurePartner
	if err := cursor.All(ctx, &partners); err != nil {
		return nil, 0, fmt.Errorf("failed to decode cure partners: %w", err)
	}
	return partners, total, nil
}

type doctorRepository struct {
	collection *mongo.Collection
}

func NewDoctorRepository(db *mongo.Database) interfaces.DoctorRepository {
	return &doctorRepository{collection: db.Collection(utils.CollectionDoctors)}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	now := time.Now()
	doctor.ID = primitive.NewObjectID()
	doctor.Active = true
	doctor.CreatedAt = now
	doctor.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, doctor); err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error) {
	var doctor models.Doctor
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doctor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *doctorRepository) GetByPartner(ctx context.Context, partnerID primitive.ObjectID) ([]*models.Doctor, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"partner_id": partnerID, "active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to find doctors: %w", err)
	}
	defer cursor.Close(ctx)

	var doctors []*models.Doctor
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("failed to decode doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) Search(ctx context.Context, specialization string, params *utils.PaginationParams) ([]*models.Doctor, int64, error) {
	filter := bson.M{"active": true}
	if specialization != "" {
		filter["specialization"] = bson.M{"$regex": specialization, "$options": "i"}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count doctors: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find doctors: %w", err)
	}
	defer cursor.Close(ctx)

	var doctors []*models.Doctor
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, 0, fmt.Errorf("failed to decode doctors: %w", err)
	}
	return doctors, total, nil
}

type ambulanceRepository struct {
	collection *mongo.Collection
}

func NewAmbulanceRepository(db *mongo.Database) interfaces.AmbulanceRepository {
	return &ambulanceRepository{collection: db.Collection(utils.CollectionAmbulances)}
}

func (r *ambulanceRepository) Create(ctx context.Context, ambulance *models.Ambulance) error {
	now := time.Now()
	ambulance.ID = primitive.NewObjectID()
	ambulance.IsAvailable = true
	ambulance.CreatedAt = now
	ambulance.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, ambulance); err != nil {
		return fmt.Errorf("failed to create ambulance: %w", err)
	}
	return nil
}

func (r *ambulanceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	var ambulance models.Ambulance
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ambulance)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ambulance: %w", err)
	}
	return &ambulance, nil
}

func (r *ambulanceRepository) GetByPartner(ctx context.Context, partnerID primitive.ObjectID) ([]*models.Ambulance, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"partner_id": partnerID})
	if err != nil {
		return nil, fmt.Errorf("failed to find ambulances: %w", err)
	}
	defer cursor.Close(ctx)

	var ambulances []*models.Ambulance
	if err := cursor.All(ctx, &ambulances); err != nil {
		return nil, fmt.Errorf("failed to decode ambulances: %w", err)
	}
	return ambulances, nil
}

func (r *ambulanceRepository) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_available": available, "updated_at": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to update ambulance availability: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *ambulanceRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, loc models.Location) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"location": loc, "updated_at": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to update ambulance location: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *ambulanceRepository) ClaimAvailable(ctx context.Context, partnerID primitive.ObjectID) (*models.Ambulance, error) {
	filter := bson.M{"partner_id": partnerID, "is_available": true}
	update := bson.M{"$set": bson.M{"is_available": false, "updated_at": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ambulance models.Ambulance
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ambulance)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to claim ambulance: %w", err)
	}
	return &ambulance, nil
}

type emergencyRepository struct {
	collection *mongo.Collection
}

func NewEmergencyRepository(db *mongo.Database) interfaces.EmergencyRepository {
	return &emergencyRepository{collection: db.Collection(utils.CollectionEmergencyCases)}
}

func (r *emergencyRepository) Create(ctx context.Context, ec *models.EmergencyCase) error {
	now := time.Now()
	ec.ID = primitive.NewObjectID()
	ec.Status = models.EmergencyRequested
	ec.Version = 1
	ec.RequestedAt = now
	ec.CreatedAt = now
	ec.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, ec); err != nil {
		return fmt.Errorf("failed to create emergency case: %w", err)
	}
	return nil
}

func (r *emergencyRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.EmergencyCase, error) {
	var ec models.EmergencyCase
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get emergency case: %w", err)
	}
	return &ec, nil
}

func (r *emergencyRepository) Transition(ctx context.Context, id primitive.ObjectID, from models.EmergencyStatus, version int64, to models.EmergencyStatus, updates map[string]interface{}) (*models.EmergencyCase, error) {
	if !from.CanTransition(to) {
		return nil, fmt.Errorf("illegal emergency transition %s -> %s", from, to)
	}

	set := bson.M{"status": to, "updated_at": time.Now()}
	for k, v := range updates {
		set[k] = v
	}

	filter := bson.M{"_id": id, "status": from, "version": version}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ec models.EmergencyCase
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
			if countErr == nil && count == 0 {
				return nil, interfaces.ErrNotFound
			}
			return nil, interfaces.ErrStaleWrite
		}
		return nil, fmt.Errorf("failed to transition emergency case: %w", err)
	}
	return &ec, nil
}

func (r *emergencyRepository) GetOpenByUser(ctx context.Context, userID primitive.ObjectID) (*models.EmergencyCase, error) {
	filter := bson.M{
		"user_id": userID,
		"status": bson.M{"$in": []models.EmergencyStatus{
			models.EmergencyRequested,
			models.EmergencyAmbulanceAssigned,
			models.EmergencyEnRoute,
			models.EmergencyAdmitted,
		}},
	}

	var ec models.EmergencyCase
	err := r.collection.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "requested_at", Value: -1}})).Decode(&ec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get open emergency case: %w", err)
	}
	return &ec, nil
}

func (r *emergencyRepository) GetByPartner(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyCase, int64, error) {
	return r.findPage(ctx, bson.M{"partner_id": partnerID}, params)
}

func (r *emergencyRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyCase, int64, error) {
	return r.findPage(ctx, bson.M{"user_id": userID}, params)
}

func (r *emergencyRepository) findPage(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.EmergencyCase, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count emergency cases: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find emergency cases: %w", err)
	}
	defer cursor.Close(ctx)

	var cases []*models.EmergencyCase
	if err := cursor.All(ctx, &cases); err != nil {
		return nil, 0, fmt.Errorf("failed to decode emergency cases: %w", err)
	}
	return cases, total, nil
}
