package slots

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fitstudio/internal/testutil/pgtest"
)

func TestPostgresLedger_TryReserve(t *testing.T) {
	db, pool := pgtest.Open(t)
	ledger := NewPostgresLedger(db, time.Second, time.Second)
	ctx := context.Background()

	t.Run("fills to capacity then refuses", func(t *testing.T) {
		classID := pgtest.InsertClass(t, pool, 2, 0, true)

		for want := 1; want <= 2; want++ {
			r, err := ledger.TryReserve(ctx, classID)
			if err != nil {
				t.Fatalf("reserve %d: %v", want, err)
			}
			if r.Booked != want || r.Capacity != 2 {
				t.Errorf("unexpected reservation: %+v", r)
			}
		}
		if _, err := ledger.TryReserve(ctx, classID); !errors.Is(err, ErrFull) {
			t.Errorf("expected ErrFull, got %v", err)
		}
	})

	t.Run("inactive class", func(t *testing.T) {
		classID := pgtest.InsertClass(t, pool, 5, 0, false)
		if _, err := ledger.TryReserve(ctx, classID); !errors.Is(err, ErrUnknownClass) {
			t.Errorf("expected ErrUnknownClass, got %v", err)
		}
	})

	t.Run("missing class", func(t *testing.T) {
		if _, err := ledger.TryReserve(ctx, 999999); !errors.Is(err, ErrUnknownClass) {
			t.Errorf("expected ErrUnknownClass, got %v", err)
		}
	})

	t.Run("racers for the last slot", func(t *testing.T) {
		classID := pgtest.InsertClass(t, pool, 3, 2, true)

		var wg sync.WaitGroup
		var won, full atomic.Int32
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := ledger.TryReserve(ctx, classID)
				switch {
				case err == nil:
					won.Add(1)
				case errors.Is(err, ErrFull):
					full.Add(1)
				}
			}()
		}
		wg.Wait()

		if won.Load() != 1 || full.Load() != 19 {
			t.Errorf("expected exactly one winner, got won=%d full=%d", won.Load(), full.Load())
		}
		if count, _ := ledger.CurrentCount(ctx, classID); count != 3 {
			t.Errorf("expected count 3, got %d", count)
		}
	})
}

func TestPostgresLedger_Release(t *testing.T) {
	db, pool := pgtest.Open(t)
	ledger := NewPostgresLedger(db, time.Second, time.Second)
	ctx := context.Background()

	classID := pgtest.InsertClass(t, pool, 2, 1, true)

	if err := ledger.Release(ctx, classID); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := ledger.Release(ctx, classID); !errors.Is(err, ErrNothingReserved) {
		t.Errorf("expected ErrNothingReserved at zero, got %v", err)
	}
	if count, err := ledger.CurrentCount(ctx, classID); err != nil || count != 0 {
		t.Errorf("expected count 0, got %d (%v)", count, err)
	}
	if _, err := ledger.CurrentCount(ctx, 999999); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("expected ErrUnknownClass, got %v", err)
	}
}
