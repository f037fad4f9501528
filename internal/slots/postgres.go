package slots

import (
	"context"
	"fmt"
	"time"

	"fitstudio/pkg/db/postgres"
)

const (
	reserveSQL = `
		UPDATE fitness_classes
		SET booked_slots = booked_slots + 1, updated_at = NOW()
		WHERE id = $1 AND is_active AND booked_slots < max_slots
		RETURNING booked_slots, max_slots`

	releaseSQL = `
		UPDATE fitness_classes
		SET booked_slots = booked_slots - 1, updated_at = NOW()
		WHERE id = $1 AND booked_slots > 0`

	countSQL = `SELECT booked_slots, max_slots, is_active FROM fitness_classes WHERE id = $1`
)

// PostgresLedger relies on the row lock taken by a single UPDATE; a CHECK
// constraint on the table keeps booked_slots within [0, max_slots].
type PostgresLedger struct {
	db           *postgres.DB
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewPostgresLedger(db *postgres.DB, readTimeout, writeTimeout time.Duration) *PostgresLedger {
	return &PostgresLedger{
		db:           db,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

func (l *PostgresLedger) TryReserve(ctx context.Context, classID int64) (Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, l.writeTimeout)
	defer cancel()

	r := Reservation{ClassID: classID}
	err := l.db.QueryRow(ctx, reserveSQL, classID).Scan(&r.Booked, &r.Capacity)
	if err != nil {
		if postgres.IsNotFound(err) {
			return Reservation{}, l.classifyMiss(ctx, classID)
		}
		return Reservation{}, fmt.Errorf("reserve slot for class %d: %w", classID, err)
	}
	return r, nil
}

func (l *PostgresLedger) classifyMiss(ctx context.Context, classID int64) error {
	var booked, capacity int
	var active bool
	err := l.db.QueryRow(ctx, countSQL, classID).Scan(&booked, &capacity, &active)
	if err != nil {
		if postgres.IsNotFound(err) {
			return ErrUnknownClass
		}
		return fmt.Errorf("load slot count for class %d: %w", classID, err)
	}
	if !active {
		return ErrUnknownClass
	}
	return ErrFull
}

func (l *PostgresLedger) Release(ctx context.Context, classID int64) error {
	ctx, cancel := context.WithTimeout(ctx, l.writeTimeout)
	defer cancel()

	tag, err := l.db.Exec(ctx, releaseSQL, classID)
	if err != nil {
		return fmt.Errorf("release slot for class %d: %w", classID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNothingReserved
	}
	return nil
}

func (l *PostgresLedger) CurrentCount(ctx context.Context, classID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, l.readTimeout)
	defer cancel()

	var booked, capacity int
	var active bool
	err := l.db.QueryRow(ctx, countSQL, classID).Scan(&booked, &capacity, &active)
	if err != nil {
		if postgres.IsNotFound(err) {
			return 0, ErrUnknownClass
		}
		return 0, fmt.Errorf("load slot count for class %d: %w", classID, err)
	}
	return booked, nil
}
