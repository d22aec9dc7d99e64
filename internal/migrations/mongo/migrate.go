// Package mongo provisions the collections the services expect: JSON-schema
// validators as a last line of defense behind application validation, and
// the indexes the hot query paths rely on. Safe to rerun.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"innkeep/internal/migrations/mongo/validators"
	"innkeep/pkg/config"
)

var (
	RoomTypesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}

	// room_type_id backs the TryReserve scan and CountFree
	RoomInstancesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "room_type_id", Value: 1}}},
	}

	// user listings, expiry sweeps and completion sweeps each get a
	// compound index matching their filter plus sort
	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "expires_at", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "check_out", Value: 1},
		}},
		{Keys: bson.D{{Key: "assigned_instance_id", Value: 1}}},
	}
)

func RunMigration(ctx context.Context, cfg *config.Config) error {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	cfg.Log.Info("Running Mongo migrations", "database", cfg.MongoDatabaseName)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"Room_types": {
			Indexes:   RoomTypesIndexes,
			Validator: validators.RoomTypeValidator,
		},
		"Room_instances": {
			Indexes:   RoomInstancesIndexes,
			Validator: validators.RoomInstanceValidator,
		},
		"Bookings": {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, cfg, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, cfg, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	cfg.Log.Info("All migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, cfg *config.Config, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		cfg.Log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		cfg.Log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, cfg *config.Config, db *mongo.Database, name string, models []mongo.IndexModel) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	cfg.Log.Info("Ensured indexes", "collection", name)
	return nil
}
