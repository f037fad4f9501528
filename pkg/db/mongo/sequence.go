package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CountersCollection = "Counters"

type counter struct {
	Value int64 `bson:"seq"`
}

// Sequence hands out increasing int64 ids for one named collection.
type Sequence struct {
	counters *mongo.Collection
	name     string
}

func NewSequence(db *mongo.Database, name string) *Sequence {
	return &Sequence{
		counters: db.Collection(CountersCollection),
		name:     name,
	}
}

func (s *Sequence) Next(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c counter
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": s.name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", s.name, err)
	}
	return c.Value, nil
}
