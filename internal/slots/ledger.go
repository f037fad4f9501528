package slots

import (
	"context"
	"errors"
)

var (
	ErrFull = errors.New("no available slots")

	ErrUnknownClass = errors.New("class is unknown or inactive")

	ErrNothingReserved = errors.New("no reserved slot to release")
)

// Reservation is proof that one slot was claimed for ClassID. Booked already
// includes the claimed slot.
type Reservation struct {
	ClassID  int64
	Booked   int
	Capacity int
}

func (r Reservation) Available() int {
	return r.Capacity - r.Booked
}

// Ledger owns the per-class confirmed count. TryReserve is a single
// check-and-increment with respect to every other caller on the same class.
type Ledger interface {
	TryReserve(ctx context.Context, classID int64) (Reservation, error)
	Release(ctx context.Context, classID int64) error
	CurrentCount(ctx context.Context, classID int64) (int, error)
}

// Capacity is what a ledger needs to start tracking a class.
type Capacity struct {
	ClassID  int64
	MaxSlots int
	Booked   int
}

// CapacitySource loads capacity and the confirmed count for a class the
// ledger has not seen yet. It returns ErrUnknownClass for missing or
// inactive classes.
type CapacitySource interface {
	LoadCapacity(ctx context.Context, classID int64) (Capacity, error)
}

type CapacitySourceFunc func(ctx context.Context, classID int64) (Capacity, error)

func (f CapacitySourceFunc) LoadCapacity(ctx context.Context, classID int64) (Capacity, error) {
	return f(ctx, classID)
}
