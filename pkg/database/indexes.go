package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the query paths depend on. Safe to
// run on every boot; Mongo treats identical definitions as a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		"rides": {
			{Keys: bson.D{{Key: "ride_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "rider_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "partner_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "pickup", Value: "2dsphere"}}},
		},
		"pathPartners": {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "last_location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "is_online", Value: 1}, {Key: "is_available", Value: 1}}},
		},
		"mechanics": {
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		},
		"garageRequests": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "mechanic_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		"curePartners": {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		},
		"doctors": {
			{Keys: bson.D{{Key: "partner_id", Value: 1}}},
		},
		"ambulances": {
			{Keys: bson.D{{Key: "partner_id", Value: 1}, {Key: "is_available", Value: 1}}},
		},
		"emergencyCases": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		"appointments": {
			// One live booking per doctor/date/slot; cancelled bookings
			// fall out of the partial index so the slot frees up.
			{
				Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "date", Value: 1}, {Key: "slot", Value: 1}},
				Options: options.Index().SetUnique(true).SetPartialFilterExpression(
					bson.M{"status": bson.M{"$ne": "cancelled"}},
				),
			},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}},
		},
		"transactions": {
			{Keys: bson.D{{Key: "ref_id", Value: 1}}},
			{Keys: bson.D{{Key: "partner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}

	return nil
}
