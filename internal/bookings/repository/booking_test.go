package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	bookingserrors "fitstudio/internal/bookings/errors"
	"fitstudio/pkg/client"
	"fitstudio/pkg/config"
	"fitstudio/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// ────────────────────────────────────────────────
// Mock deployment helpers
// ────────────────────────────────────────────────

func mockConfig(mt *mtest.T) *config.Config {
	return &config.Config{
		Client:            &client.Client{Mongo: mt.Client},
		MongoDatabaseName: mt.DB.Name(),
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
	}
}

func newBooking() *model.Booking {
	return &model.Booking{
		ClassID:          1,
		ClientName:       "Dana Levi",
		ClientEmail:      "dana@example.com",
		BookingReference: "FBABCD1234",
		Status:           model.BookingStatusConfirmed,
	}
}

func duplicateKey(index string) bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error collection: test.Bookings index: " + index + " dup key",
	})
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestMongoBookingRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns the next sequence id", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: CollectionName},
				{Key: "seq", Value: int64(7)},
			}}),
			mtest.CreateSuccessResponse(),
		)
		repo := NewMongoBookingRepository(mockConfig(mt))

		booking := newBooking()
		if err := repo.Create(context.Background(), booking); err != nil {
			mt.Fatalf("Create: %v", err)
		}
		if booking.ID != 7 {
			mt.Errorf("expected id 7, got %d", booking.ID)
		}
		if booking.CreatedAt.IsZero() || !booking.CreatedAt.Equal(booking.UpdatedAt) {
			mt.Errorf("expected matching timestamps, got %v / %v", booking.CreatedAt, booking.UpdatedAt)
		}
	})

	mt.Run("keeps a preset id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoBookingRepository(mockConfig(mt))

		booking := newBooking()
		booking.ID = 42
		if err := repo.Create(context.Background(), booking); err != nil {
			mt.Fatalf("Create: %v", err)
		}
		if started := mt.GetStartedEvent(); started == nil || started.CommandName != "insert" {
			mt.Errorf("expected a bare insert, got %+v", started)
		}
	})

	tests := []struct {
		name      string
		index     string
		expected  error
		unwrapped bool
	}{
		{name: "reused reference", index: ReferenceIndex, expected: bookingserrors.ErrDuplicateReference},
		{name: "second confirmed booking for the class", index: ConfirmedPerClassIndex, expected: bookingserrors.ErrDuplicateBooking},
		{name: "unrelated unique index", index: "_id_", unwrapped: true},
	}

	for _, tt := range tests {
		mt.Run(tt.name, func(mt *mtest.T) {
			mt.AddMockResponses(duplicateKey(tt.index))
			repo := NewMongoBookingRepository(mockConfig(mt))

			booking := newBooking()
			booking.ID = 3
			err := repo.Create(context.Background(), booking)
			if err == nil {
				mt.Fatal("expected error")
			}
			if tt.unwrapped {
				if errors.Is(err, bookingserrors.ErrDuplicateReference) || errors.Is(err, bookingserrors.ErrDuplicateBooking) {
					mt.Errorf("expected an unclassified error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expected) {
				mt.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestMongoBookingRepository_FindByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + CollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(5)},
			{Key: "class_id", Value: int64(1)},
			{Key: "client_email", Value: "dana@example.com"},
			{Key: "booking_status", Value: model.BookingStatusConfirmed},
		}))
		repo := NewMongoBookingRepository(mockConfig(mt))

		booking, err := repo.FindByID(context.Background(), 5)
		if err != nil {
			mt.Fatalf("FindByID: %v", err)
		}
		if booking.ID != 5 || !booking.IsConfirmed() {
			mt.Errorf("unexpected booking: %+v", booking)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + CollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := NewMongoBookingRepository(mockConfig(mt))

		if _, err := repo.FindByID(context.Background(), 404); !errors.Is(err, bookingserrors.ErrNotFound) {
			mt.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMongoBookingRepository_MarkCancelled(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	tests := []struct {
		name     string
		modified int32
		expected bool
	}{
		{name: "confirmed booking flips", modified: 1, expected: true},
		{name: "already cancelled", modified: 0, expected: false},
	}

	for _, tt := range tests {
		mt.Run(tt.name, func(mt *mtest.T) {
			mt.AddMockResponses(mtest.CreateSuccessResponse(
				bson.E{Key: "n", Value: tt.modified},
				bson.E{Key: "nModified", Value: tt.modified},
			))
			repo := NewMongoBookingRepository(mockConfig(mt))

			changed, err := repo.MarkCancelled(context.Background(), 5, time.Now())
			if err != nil {
				mt.Fatalf("MarkCancelled: %v", err)
			}
			if changed != tt.expected {
				mt.Errorf("expected changed=%v, got %v", tt.expected, changed)
			}
		})
	}
}

func TestMongoBookingRepository_Counts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("count confirmed", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + CollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int64(3)}}))
		repo := NewMongoBookingRepository(mockConfig(mt))

		count, err := repo.CountConfirmed(context.Background(), 1)
		if err != nil {
			mt.Fatalf("CountConfirmed: %v", err)
		}
		if count != 3 {
			mt.Errorf("expected 3, got %d", count)
		}
	})

	mt.Run("reference not taken", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + CollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := NewMongoBookingRepository(mockConfig(mt))

		exists, err := repo.ExistsByReference(context.Background(), "FBZZZZ9999")
		if err != nil {
			mt.Fatalf("ExistsByReference: %v", err)
		}
		if exists {
			mt.Error("expected reference to be free")
		}
	})

	mt.Run("reference taken", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + CollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int64(1)}}))
		repo := NewMongoBookingRepository(mockConfig(mt))

		exists, err := repo.ExistsByReference(context.Background(), "FBABCD1234")
		if err != nil {
			mt.Fatalf("ExistsByReference: %v", err)
		}
		if !exists {
			mt.Error("expected reference to be taken")
		}
	})
}

func TestDuplicateIndexFromMongo(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{name: "reference index", message: "E11000 index: " + ReferenceIndex + " dup key", expected: ReferenceIndex},
		{name: "per class index", message: "E11000 index: " + ConfirmedPerClassIndex + " dup key", expected: ConfirmedPerClassIndex},
		{name: "other index", message: "E11000 index: _id_ dup key", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := duplicateIndexFromMongo(errors.New(tt.message)); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
