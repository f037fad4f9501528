package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	classeserrors "fitstudio/internal/classes/errors"
	"fitstudio/internal/slots"
	"fitstudio/pkg/config"
	mongodb "fitstudio/pkg/db/mongo"
	"fitstudio/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Fitness_classes"
)

type ClassRepository interface {
	Create(ctx context.Context, class *model.FitnessClass) error
	FindByID(ctx context.Context, id int64) (*model.FitnessClass, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*model.FitnessClass, error)
	FindActive(ctx context.Context) ([]*model.FitnessClass, error)
	Count(ctx context.Context) (int64, error)
}

type mongoClassRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	sequence   *mongodb.Sequence
}

func NewMongoClassRepository(cfg *config.Config) ClassRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoClassRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		sequence:   mongodb.NewSequence(db, CollectionName),
	}
}

// Collection exposes the class collection to the mongo slot ledger, which
// keeps booked_slots on the same documents.
func Collection(cfg *config.Config) *mongo.Collection {
	return cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName)
}

func (r *mongoClassRepository) Create(ctx context.Context, class *model.FitnessClass) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	id, err := r.sequence.Next(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	class.ID = id
	class.CreatedAt = now
	class.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, class); err != nil {
		return fmt.Errorf("failed to create fitness class: %w", err)
	}
	return nil
}

func (r *mongoClassRepository) FindByID(ctx context.Context, id int64) (*model.FitnessClass, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var class model.FitnessClass
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&class)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %d", classeserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find fitness class: %w", err)
	}
	return &class, nil
}

func (r *mongoClassRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*model.FitnessClass, error) {
	classes := make(map[int64]*model.FitnessClass, len(ids))
	if len(ids) == 0 {
		return classes, nil
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to query fitness classes: %w", err)
	}
	defer cursor.Close(ctx)

	var found []*model.FitnessClass
	if err = cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("failed to decode fitness classes: %w", err)
	}
	for _, c := range found {
		classes[c.ID] = c
	}
	return classes, nil
}

func (r *mongoClassRepository) FindActive(ctx context.Context) ([]*model.FitnessClass, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "class_datetime", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query fitness classes: %w", err)
	}
	defer cursor.Close(ctx)

	classes := []*model.FitnessClass{}
	if err = cursor.All(ctx, &classes); err != nil {
		return nil, fmt.Errorf("failed to decode fitness classes: %w", err)
	}
	return classes, nil
}

func (r *mongoClassRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count fitness classes: %w", err)
	}
	return count, nil
}

// CapacityLoader feeds the in-memory ledger: capacity from the class, the
// confirmed count from countConfirmed.
func CapacityLoader(repo ClassRepository, countConfirmed func(ctx context.Context, classID int64) (int, error)) slots.CapacitySource {
	return slots.CapacitySourceFunc(func(ctx context.Context, classID int64) (slots.Capacity, error) {
		class, err := repo.FindByID(ctx, classID)
		if err != nil {
			if errors.Is(err, classeserrors.ErrNotFound) {
				return slots.Capacity{}, slots.ErrUnknownClass
			}
			return slots.Capacity{}, err
		}
		if !class.IsActive {
			return slots.Capacity{}, slots.ErrUnknownClass
		}
		booked, err := countConfirmed(ctx, classID)
		if err != nil {
			return slots.Capacity{}, err
		}
		return slots.Capacity{ClassID: classID, MaxSlots: class.MaxSlots, Booked: booked}, nil
	})
}
