package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingrepository "fitstudio/internal/bookings/repository"
	classrepository "fitstudio/internal/classes/repository"
	"fitstudio/internal/migrations/mongo/validators"
	"fitstudio/pkg/logger"
	"fitstudio/pkg/model"
)

var (
	FitnessClassIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "is_active", Value: 1},
			{Key: "class_datetime", Value: 1},
		}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking_reference", Value: 1}},
			Options: options.Index().SetName(bookingrepository.ReferenceIndex).SetUnique(true),
		},
		{
			// one confirmed booking per (class, email); cancelled rows do not count
			Keys: bson.D{
				{Key: "class_id", Value: 1},
				{Key: "client_email", Value: 1},
			},
			Options: options.Index().
				SetName(bookingrepository.ConfirmedPerClassIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"booking_status": model.BookingStatusConfirmed}),
		},
		{Keys: bson.D{
			{Key: "client_email", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "class_id", Value: 1},
			{Key: "booking_status", Value: 1},
		}},
	}
)

type collectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists what RunMigration ensures, in creation order.
func Collections() []collectionDef {
	return []collectionDef{
		{
			Name:      classrepository.CollectionName,
			Indexes:   FitnessClassIndexes,
			Validator: validators.FitnessClassValidator,
		},
		{
			Name:      bookingrepository.CollectionName,
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
	}
}

// RunMigration creates collections, validators and indexes. It is safe to
// rerun: existing collections get their validator refreshed via collMod.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All Mongo migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	names, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", names)
	return nil
}
