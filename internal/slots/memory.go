package slots

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type slotCounter struct {
	mu       sync.Mutex
	capacity int
	booked   int
}

// MemoryLedger keeps one mutex per class, so reservations on different
// classes never contend. The registry lock is only held to look up or add
// a counter.
type MemoryLedger struct {
	source CapacitySource

	mu       sync.RWMutex
	counters map[int64]*slotCounter
}

func NewMemoryLedger(source CapacitySource) *MemoryLedger {
	return &MemoryLedger{
		source:   source,
		counters: make(map[int64]*slotCounter),
	}
}

// Register starts tracking a class. An already tracked class keeps its count.
func (l *MemoryLedger) Register(c Capacity) error {
	if err := checkCapacity(c); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.counters[c.ClassID]; !ok {
		l.counters[c.ClassID] = &slotCounter{capacity: c.MaxSlots, booked: c.Booked}
	}
	return nil
}

func (l *MemoryLedger) TryReserve(ctx context.Context, classID int64) (Reservation, error) {
	counter, _, err := l.counter(ctx, classID)
	if err != nil {
		return Reservation{}, err
	}

	counter.mu.Lock()
	defer counter.mu.Unlock()
	if counter.booked >= counter.capacity {
		return Reservation{}, ErrFull
	}
	counter.booked++
	return Reservation{ClassID: classID, Booked: counter.booked, Capacity: counter.capacity}, nil
}

// Release on a class this ledger has not tracked yet only loads it. The
// source counts confirmed bookings, which already excludes the one being
// released, so subtracting again would undercount.
func (l *MemoryLedger) Release(ctx context.Context, classID int64) error {
	counter, loaded, err := l.counter(ctx, classID)
	if err != nil {
		if errors.Is(err, ErrUnknownClass) {
			return ErrNothingReserved
		}
		return err
	}
	if loaded {
		return nil
	}

	counter.mu.Lock()
	defer counter.mu.Unlock()
	if counter.booked == 0 {
		return ErrNothingReserved
	}
	counter.booked--
	return nil
}

func (l *MemoryLedger) CurrentCount(ctx context.Context, classID int64) (int, error) {
	counter, _, err := l.counter(ctx, classID)
	if err != nil {
		return 0, err
	}
	counter.mu.Lock()
	defer counter.mu.Unlock()
	return counter.booked, nil
}

// counter returns the tracked counter for classID, loading it from the
// source when absent. loaded reports whether this call added it.
func (l *MemoryLedger) counter(ctx context.Context, classID int64) (counter *slotCounter, loaded bool, err error) {
	l.mu.RLock()
	counter, ok := l.counters[classID]
	l.mu.RUnlock()
	if ok {
		return counter, false, nil
	}

	if l.source == nil {
		return nil, false, ErrUnknownClass
	}
	c, err := l.source.LoadCapacity(ctx, classID)
	if err != nil {
		return nil, false, err
	}
	c.ClassID = classID
	if err := checkCapacity(c); err != nil {
		return nil, false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if counter, ok := l.counters[classID]; ok {
		return counter, false, nil
	}
	counter = &slotCounter{capacity: c.MaxSlots, booked: c.Booked}
	l.counters[classID] = counter
	return counter, true, nil
}

func checkCapacity(c Capacity) error {
	if c.MaxSlots <= 0 {
		return fmt.Errorf("class %d: capacity must be positive, got %d", c.ClassID, c.MaxSlots)
	}
	if c.Booked < 0 || c.Booked > c.MaxSlots {
		return fmt.Errorf("class %d: booked count %d outside [0, %d]", c.ClassID, c.Booked, c.MaxSlots)
	}
	return nil
}
