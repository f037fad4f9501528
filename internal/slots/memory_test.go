package slots

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func staticSource(caps map[int64]Capacity) CapacitySource {
	return CapacitySourceFunc(func(ctx context.Context, classID int64) (Capacity, error) {
		c, ok := caps[classID]
		if !ok {
			return Capacity{}, ErrUnknownClass
		}
		return c, nil
	})
}

func TestMemoryLedger_ConcurrentReservationsNeverExceedCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		extra    int
	}{
		{"single slot", 1, 1},
		{"small class", 5, 20},
		{"full size class", 50, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewMemoryLedger(staticSource(map[int64]Capacity{
				1: {ClassID: 1, MaxSlots: tt.capacity},
			}))

			var succeeded, full, other atomic.Int64
			var wg sync.WaitGroup
			start := make(chan struct{})
			for i := 0; i < tt.capacity+tt.extra; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					_, err := ledger.TryReserve(context.Background(), 1)
					switch {
					case err == nil:
						succeeded.Add(1)
					case errors.Is(err, ErrFull):
						full.Add(1)
					default:
						other.Add(1)
					}
				}()
			}
			close(start)
			wg.Wait()

			if got := succeeded.Load(); got != int64(tt.capacity) {
				t.Errorf("expected %d successful reservations, got %d", tt.capacity, got)
			}
			if got := full.Load(); got != int64(tt.extra) {
				t.Errorf("expected %d ErrFull results, got %d", tt.extra, got)
			}
			if got := other.Load(); got != 0 {
				t.Errorf("expected no other errors, got %d", got)
			}
			count, err := ledger.CurrentCount(context.Background(), 1)
			if err != nil {
				t.Fatalf("CurrentCount: %v", err)
			}
			if count != tt.capacity {
				t.Errorf("expected count %d, got %d", tt.capacity, count)
			}
		})
	}
}

func TestMemoryLedger_FullDoesNotMutate(t *testing.T) {
	ledger := NewMemoryLedger(nil)
	if err := ledger.Register(Capacity{ClassID: 7, MaxSlots: 2, Booked: 2}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := ledger.TryReserve(context.Background(), 7); !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
	if count, _ := ledger.CurrentCount(context.Background(), 7); count != 2 {
		t.Errorf("expected count to stay 2, got %d", count)
	}
}

func TestMemoryLedger_ReserveReportsCounts(t *testing.T) {
	ledger := NewMemoryLedger(staticSource(map[int64]Capacity{3: {MaxSlots: 4, Booked: 1}}))

	r, err := ledger.TryReserve(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ClassID != 3 || r.Booked != 2 || r.Capacity != 4 || r.Available() != 2 {
		t.Errorf("unexpected reservation: %+v", r)
	}
}

func TestMemoryLedger_ReleaseNeverGoesNegative(t *testing.T) {
	ledger := NewMemoryLedger(staticSource(map[int64]Capacity{1: {MaxSlots: 3}}))
	ctx := context.Background()

	if _, err := ledger.TryReserve(ctx, 1); err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	if err := ledger.Release(ctx, 1); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := ledger.Release(ctx, 1); !errors.Is(err, ErrNothingReserved) {
		t.Errorf("expected ErrNothingReserved, got %v", err)
	}
	if count, _ := ledger.CurrentCount(ctx, 1); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if err := ledger.Release(ctx, 99); !errors.Is(err, ErrNothingReserved) {
		t.Errorf("expected ErrNothingReserved for untracked class, got %v", err)
	}
}

func TestMemoryLedger_UnknownClass(t *testing.T) {
	ledger := NewMemoryLedger(staticSource(map[int64]Capacity{}))

	if _, err := ledger.TryReserve(context.Background(), 42); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("expected ErrUnknownClass, got %v", err)
	}
	if _, err := ledger.CurrentCount(context.Background(), 42); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("expected ErrUnknownClass, got %v", err)
	}
}

func TestMemoryLedger_LoadsSourceOnce(t *testing.T) {
	var loads atomic.Int64
	ledger := NewMemoryLedger(CapacitySourceFunc(func(ctx context.Context, classID int64) (Capacity, error) {
		loads.Add(1)
		return Capacity{MaxSlots: 10}, nil
	}))

	for i := 0; i < 5; i++ {
		if _, err := ledger.TryReserve(context.Background(), 1); err != nil {
			t.Fatalf("TryReserve: %v", err)
		}
	}
	if got := loads.Load(); got != 1 {
		t.Errorf("expected capacity to load once, loaded %d times", got)
	}
	if count, _ := ledger.CurrentCount(context.Background(), 1); count != 5 {
		t.Errorf("expected count 5, got %d", count)
	}
}

func TestMemoryLedger_RegisterRejectsInvalidCapacity(t *testing.T) {
	ledger := NewMemoryLedger(nil)
	tests := []Capacity{
		{ClassID: 1, MaxSlots: 0},
		{ClassID: 2, MaxSlots: 5, Booked: 6},
		{ClassID: 3, MaxSlots: 5, Booked: -1},
	}
	for _, c := range tests {
		if err := ledger.Register(c); err == nil {
			t.Errorf("expected error registering %+v", c)
		}
	}
}

func TestMemoryLedger_ClassesAreIndependent(t *testing.T) {
	ledger := NewMemoryLedger(staticSource(map[int64]Capacity{
		1: {MaxSlots: 1},
		2: {MaxSlots: 1},
	}))
	ctx := context.Background()

	if _, err := ledger.TryReserve(ctx, 1); err != nil {
		t.Fatalf("class 1: %v", err)
	}
	if _, err := ledger.TryReserve(ctx, 2); err != nil {
		t.Fatalf("class 2 should be unaffected by class 1: %v", err)
	}
	if _, err := ledger.TryReserve(ctx, 1); !errors.Is(err, ErrFull) {
		t.Errorf("expected class 1 full, got %v", err)
	}
}

func TestMemoryLedger_ReleaseOnUntrackedClassOnlyLoads(t *testing.T) {
	// the store already reflects the cancellation when the ledger first sees the class
	var confirmed atomic.Int64
	confirmed.Store(2)
	ledger := NewMemoryLedger(CapacitySourceFunc(func(ctx context.Context, classID int64) (Capacity, error) {
		return Capacity{MaxSlots: 2, Booked: int(confirmed.Load())}, nil
	}))
	ctx := context.Background()

	confirmed.Add(-1)
	if err := ledger.Release(ctx, 1); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if count, _ := ledger.CurrentCount(ctx, 1); count != 1 {
		t.Fatalf("expected count 1 after loading on release, got %d", count)
	}

	if _, err := ledger.TryReserve(ctx, 1); err != nil {
		t.Fatalf("expected the freed slot to be bookable: %v", err)
	}
	if _, err := ledger.TryReserve(ctx, 1); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull at capacity, got %v", err)
	}
}

func TestMemoryLedger_ReleaseOnTrackedClassDecrements(t *testing.T) {
	ledger := NewMemoryLedger(staticSource(map[int64]Capacity{1: {MaxSlots: 2, Booked: 2}}))
	ctx := context.Background()

	if count, _ := ledger.CurrentCount(ctx, 1); count != 2 {
		t.Fatalf("expected loaded count 2, got %d", count)
	}
	if err := ledger.Release(ctx, 1); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if count, _ := ledger.CurrentCount(ctx, 1); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
}
