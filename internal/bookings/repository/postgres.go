package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "fitstudio/internal/bookings/errors"
	"fitstudio/pkg/config"
	"fitstudio/pkg/contracts"
	"fitstudio/pkg/db/postgres"
	"fitstudio/pkg/model"

	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, class_id, client_name, client_email, notes, booking_reference,
	booking_status, created_at, updated_at, cancelled_at`

type postgresBookingRepository struct {
	cfg *config.Config
	db  *postgres.DB
}

func NewPostgresBookingRepository(cfg *config.Config, db *postgres.DB) BookingRepository {
	return &postgresBookingRepository{cfg: cfg, db: db}
}

func (r *postgresBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO bookings (class_id, client_name, client_email, notes, booking_reference, booking_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		booking.ClassID, booking.ClientName, booking.ClientEmail, booking.Notes,
		booking.BookingReference, booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err, ReferenceIndex):
			return classifyDuplicate(err, ReferenceIndex)
		case postgres.IsUniqueViolation(err, ConfirmedPerClassIndex):
			return classifyDuplicate(err, ConfirmedPerClassIndex)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *postgresBookingRepository) FindByID(ctx context.Context, id int64) (*model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	booking, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		if postgres.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %d", bookingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return booking, nil
}

func (r *postgresBookingRepository) FindByEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE client_email = $1 ORDER BY created_at DESC, id DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	return bookings, nil
}

func (r *postgresBookingRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE booking_reference = $1)`, reference).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check booking reference: %w", err)
	}
	return exists, nil
}

func (r *postgresBookingRepository) MarkCancelled(ctx context.Context, id int64, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET booking_status = $2, cancelled_at = $3, updated_at = $3
		WHERE id = $1 AND booking_status = $4`,
		id, model.BookingStatusCancelled, at.UTC(), model.BookingStatusConfirmed)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *postgresBookingRepository) CountConfirmed(ctx context.Context, classID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE class_id = $1 AND booking_status = $2`,
		classID, model.BookingStatusConfirmed).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}
	return count, nil
}

func (r *postgresBookingRepository) ExecuteTransaction(ctx context.Context, fn contracts.TransactionFunc) error {
	return r.db.WithTx(ctx, fn)
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.ClassID, &b.ClientName, &b.ClientEmail, &b.Notes, &b.BookingReference,
		&b.Status, &b.CreatedAt, &b.UpdatedAt, &b.CancelledAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
