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

type appointmentRepository struct {
	collection *mongo.Collection
}

func NewAppointmentRepository(db *mongo.Database) interfaces.AppointmentRepository {
	return &appointmentRepository{collection: db.Collection(utils.CollectionAppointments)}
}

func (r *appointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	now := time.Now()
	appt.ID = primitive.NewObjectID()
	appt.Status = models.AppointmentBooked
	appt.CreatedAt = now
	appt.UpdatedAt = now

	// The partial unique index on (doctor_id, date, slot) rejects a
	// second non-cancelled booking for the same slot.
	if _, err := r.collection.InsertOne(ctx, appt); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return interfaces.ErrSlotTaken
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&appt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.AppointmentStatus) (*models.Appointment, error) {
	if !from.CanTransition(to) {
		return nil, fmt.Errorf("illegal appointment transition %s -> %s", from, to)
	}

	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var appt models.Appointment
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&appt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
			if countErr == nil && count == 0 {
				return nil, interfaces.ErrNotFound
			}
			return nil, interfaces.ErrStaleWrite
		}
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Appointment, int64, error) {
	return r.findPage(ctx, bson.M{"user_id": userID}, params)
}

func (r *appointmentRepository) GetByDoctor(ctx context.Context, doctorID primitive.ObjectID, date string) ([]*models.Appointment, error) {
	filter := bson.M{
		"doctor_id": doctorID,
		"date":      date,
		"status":    bson.M{"$ne": models.AppointmentCancelled},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "slot", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appts []*models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) GetByPartner(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Appointment, int64, error) {
	return r.findPage(ctx, bson.M{"partner_id": partnerID}, params)
}

func (r *appointmentRepository) findPage(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Appointment, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appts []*models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appts, total, nil
}
