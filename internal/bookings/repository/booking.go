package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingserrors "fitstudio/internal/bookings/errors"
	"fitstudio/pkg/config"
	"fitstudio/pkg/contracts"
	mongodb "fitstudio/pkg/db/mongo"
	"fitstudio/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"

	// Index and constraint names shared with the migrations, used to tell
	// the two unique violations apart.
	ReferenceIndex         = "booking_reference_unique"
	ConfirmedPerClassIndex = "class_email_confirmed_unique"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id int64) (*model.Booking, error)
	FindByEmail(ctx context.Context, email string) ([]*model.Booking, error)
	ExistsByReference(ctx context.Context, reference string) (bool, error)
	// MarkCancelled flips a confirmed booking to cancelled and reports whether
	// this call made the change.
	MarkCancelled(ctx context.Context, id int64, at time.Time) (bool, error)
	CountConfirmed(ctx context.Context, classID int64) (int, error)

	contracts.Transactor
}

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	sequence   *mongodb.Sequence
	txManager  mongodb.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		sequence:   mongodb.NewSequence(db, CollectionName),
		txManager:  mongodb.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if booking.ID == 0 {
		id, err := r.sequence.Next(ctx)
		if err != nil {
			return err
		}
		booking.ID = id
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return classifyDuplicate(err, duplicateIndexFromMongo(err))
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// duplicateIndexFromMongo reports which unique index the write violated; the
// server only names it inside the error message.
func duplicateIndexFromMongo(err error) string {
	msg := err.Error()
	for _, index := range []string{ReferenceIndex, ConfirmedPerClassIndex} {
		if strings.Contains(msg, index) {
			return index
		}
	}
	return ""
}

func classifyDuplicate(err error, index string) error {
	switch index {
	case ReferenceIndex:
		return fmt.Errorf("%w: %v", bookingserrors.ErrDuplicateReference, err)
	case ConfirmedPerClassIndex:
		return fmt.Errorf("%w: %v", bookingserrors.ErrDuplicateBooking, err)
	default:
		return fmt.Errorf("failed to create booking: %w", err)
	}
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id int64) (*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %d", bookingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindByEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"client_email": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"booking_reference": reference}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check booking reference: %w", err)
	}
	return count > 0, nil
}

func (r *mongoBookingRepository) MarkCancelled(ctx context.Context, id int64, at time.Time) (bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	at = at.UTC().Truncate(time.Millisecond)
	filter := bson.M{"_id": id, "booking_status": model.BookingStatusConfirmed}
	update := bson.M{
		"$set": bson.M{
			"booking_status": model.BookingStatusCancelled,
			"cancelled_at":   at,
			"updated_at":     at,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *mongoBookingRepository) CountConfirmed(ctx context.Context, classID int64) (int, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"class_id":       classID,
		"booking_status": model.BookingStatusConfirmed,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}
	return int(count), nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn contracts.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
