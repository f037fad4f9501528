package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	classeserrors "fitstudio/internal/classes/errors"
	"fitstudio/internal/slots"
	"fitstudio/pkg/client"
	"fitstudio/pkg/config"
	"fitstudio/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mockConfig(mt *mtest.T) *config.Config {
	return &config.Config{
		Client:            &client.Client{Mongo: mt.Client},
		MongoDatabaseName: mt.DB.Name(),
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
	}
}

func classDoc(id int64, maxSlots int, active bool) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Morning Yoga"},
		{Key: "instructor", Value: "Noa"},
		{Key: "max_slots", Value: int32(maxSlots)},
		{Key: "is_active", Value: active},
	}
}

// ────────────────────────────────────────────────
// Mock class repository
// ────────────────────────────────────────────────

type stubClassRepository struct {
	ClassRepository
	class *model.FitnessClass
	err   error
}

func (r *stubClassRepository) FindByID(ctx context.Context, id int64) (*model.FitnessClass, error) {
	return r.class, r.err
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestMongoClassRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("takes id from the counters collection", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: CollectionName},
				{Key: "seq", Value: int64(12)},
			}}),
			mtest.CreateSuccessResponse(),
		)
		repo := NewMongoClassRepository(mockConfig(mt))

		class := &model.FitnessClass{Name: "Morning Yoga", Instructor: "Noa", MaxSlots: 10, IsActive: true}
		if err := repo.Create(context.Background(), class); err != nil {
			mt.Fatalf("Create: %v", err)
		}
		if class.ID != 12 {
			mt.Errorf("expected id 12, got %d", class.ID)
		}

		counter := mt.GetStartedEvent()
		if counter == nil || counter.CommandName != "findAndModify" {
			mt.Fatalf("expected findAndModify on the counters, got %+v", counter)
		}
		if upsert, ok := counter.Command.Lookup("upsert").BooleanOK(); !ok || !upsert {
			mt.Errorf("expected the counter to be upserted, got %s", counter.Command)
		}
	})

	mt.Run("sequence failure stops the insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad value",
		}))
		repo := NewMongoClassRepository(mockConfig(mt))

		if err := repo.Create(context.Background(), &model.FitnessClass{Name: "Spin"}); err == nil {
			mt.Fatal("expected error")
		}
		mt.GetStartedEvent()
		if insert := mt.GetStartedEvent(); insert != nil {
			mt.Errorf("expected no insert, got %s", insert.CommandName)
		}
	})
}

func TestMongoClassRepository_FindByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + CollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, classDoc(3, 12, true)))
		repo := NewMongoClassRepository(mockConfig(mt))

		class, err := repo.FindByID(context.Background(), 3)
		if err != nil {
			mt.Fatalf("FindByID: %v", err)
		}
		if class.ID != 3 || class.MaxSlots != 12 || !class.IsActive {
			mt.Errorf("unexpected class: %+v", class)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + CollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := NewMongoClassRepository(mockConfig(mt))

		if _, err := repo.FindByID(context.Background(), 404); !errors.Is(err, classeserrors.ErrNotFound) {
			mt.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMongoClassRepository_FindByIDs(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty input skips the query", func(mt *mtest.T) {
		repo := NewMongoClassRepository(mockConfig(mt))

		classes, err := repo.FindByIDs(context.Background(), nil)
		if err != nil {
			mt.Fatalf("FindByIDs: %v", err)
		}
		if len(classes) != 0 {
			mt.Errorf("expected no classes, got %d", len(classes))
		}
		if started := mt.GetStartedEvent(); started != nil {
			mt.Errorf("expected no command, got %s", started.CommandName)
		}
	})

	mt.Run("keys results by id", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + CollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			classDoc(1, 10, true),
			classDoc(2, 5, false),
		))
		repo := NewMongoClassRepository(mockConfig(mt))

		classes, err := repo.FindByIDs(context.Background(), []int64{1, 2, 3})
		if err != nil {
			mt.Fatalf("FindByIDs: %v", err)
		}
		if len(classes) != 2 || classes[1].MaxSlots != 10 || classes[2].IsActive {
			mt.Errorf("unexpected classes: %+v", classes)
		}
	})
}

func TestCapacityLoader(t *testing.T) {
	storeErr := errors.New("connection refused")

	tests := []struct {
		name     string
		repo     *stubClassRepository
		booked   int
		expected slots.Capacity
		err      error
	}{
		{
			name:     "active class",
			repo:     &stubClassRepository{class: &model.FitnessClass{ID: 1, MaxSlots: 8, IsActive: true}},
			booked:   3,
			expected: slots.Capacity{ClassID: 1, MaxSlots: 8, Booked: 3},
		},
		{
			name: "inactive class",
			repo: &stubClassRepository{class: &model.FitnessClass{ID: 1, MaxSlots: 8}},
			err:  slots.ErrUnknownClass,
		},
		{
			name: "missing class",
			repo: &stubClassRepository{err: classeserrors.ErrNotFound},
			err:  slots.ErrUnknownClass,
		},
		{
			name: "store error passes through",
			repo: &stubClassRepository{err: storeErr},
			err:  storeErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := CapacityLoader(tt.repo, func(ctx context.Context, classID int64) (int, error) {
				return tt.booked, nil
			})

			capacity, err := loader.LoadCapacity(context.Background(), 1)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if err == nil && capacity != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, capacity)
			}
		})
	}
}
