package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	mongodb "fitstudio/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type classCounter struct {
	MaxSlots    int  `bson:"max_slots"`
	BookedSlots int  `bson:"booked_slots"`
	IsActive    bool `bson:"is_active"`
}

var counterProjection = bson.M{"max_slots": 1, "booked_slots": 1, "is_active": 1}

// MongoLedger keeps the count on the class document itself; every reserve is
// one conditional $inc, so the store serializes racers for the same class.
type MongoLedger struct {
	collection   *mongo.Collection
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewMongoLedger(collection *mongo.Collection, readTimeout, writeTimeout time.Duration) *MongoLedger {
	return &MongoLedger{
		collection:   collection,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

func (l *MongoLedger) TryReserve(ctx context.Context, classID int64) (Reservation, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, l.writeTimeout)
	defer cancel()

	filter := bson.M{
		"_id":       classID,
		"is_active": true,
		"$expr":     bson.M{"$lt": bson.A{"$booked_slots", "$max_slots"}},
	}
	update := bson.M{
		"$inc": bson.M{"booked_slots": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(counterProjection)

	var doc classCounter
	err := l.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Reservation{}, l.classifyMiss(ctx, classID)
		}
		return Reservation{}, fmt.Errorf("failed to reserve slot for class %d: %w", classID, err)
	}

	return Reservation{ClassID: classID, Booked: doc.BookedSlots, Capacity: doc.MaxSlots}, nil
}

// classifyMiss tells a full class apart from a missing or inactive one after
// the conditional update matched nothing.
func (l *MongoLedger) classifyMiss(ctx context.Context, classID int64) error {
	doc, err := l.load(ctx, classID)
	if err != nil {
		return err
	}
	if !doc.IsActive {
		return ErrUnknownClass
	}
	return ErrFull
}

func (l *MongoLedger) Release(ctx context.Context, classID int64) error {
	ctx, cancel := mongodb.WithTimeout(ctx, l.writeTimeout)
	defer cancel()

	filter := bson.M{"_id": classID, "booked_slots": bson.M{"$gt": 0}}
	update := bson.M{
		"$inc": bson.M{"booked_slots": -1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := l.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release slot for class %d: %w", classID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNothingReserved
	}
	return nil
}

func (l *MongoLedger) CurrentCount(ctx context.Context, classID int64) (int, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, l.readTimeout)
	defer cancel()

	doc, err := l.load(ctx, classID)
	if err != nil {
		return 0, err
	}
	return doc.BookedSlots, nil
}

func (l *MongoLedger) load(ctx context.Context, classID int64) (*classCounter, error) {
	opts := options.FindOne().SetProjection(counterProjection)

	var doc classCounter
	err := l.collection.FindOne(ctx, bson.M{"_id": classID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUnknownClass
		}
		return nil, fmt.Errorf("failed to load slot count for class %d: %w", classID, err)
	}
	return &doc, nil
}
