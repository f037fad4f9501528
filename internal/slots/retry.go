package slots

import (
	"context"
	"errors"
	"sync"
	"time"

	"fitstudio/pkg/logger"
)

// ReleaseQueue holds releases that failed after the booking change they
// belong to was already committed, and retries them until the ledger takes
// them. Without it a store-backed ledger would keep the slot counted forever.
type ReleaseQueue struct {
	ledger  Ledger
	timeout time.Duration
	log     *logger.Logger

	mu      sync.Mutex
	pending map[int64]int

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewReleaseQueue retries pending releases every interval. A non-positive
// interval disables the background loop; Flush still works.
func NewReleaseQueue(ledger Ledger, interval, timeout time.Duration, log *logger.Logger) *ReleaseQueue {
	q := &ReleaseQueue{
		ledger:  ledger,
		timeout: timeout,
		log:     log,
		pending: make(map[int64]int),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	if interval > 0 {
		go q.loop(interval)
	} else {
		close(q.done)
	}
	return q
}

func (q *ReleaseQueue) Add(classID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[classID]++
}

// Pending is the number of releases still owed across all classes.
func (q *ReleaseQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	total := 0
	for _, n := range q.pending {
		total += n
	}
	return total
}

// Flush retries every pending release once and returns how many remain.
// ErrNothingReserved settles a release: the count is already at zero.
func (q *ReleaseQueue) Flush(ctx context.Context) int {
	q.mu.Lock()
	owed := make(map[int64]int, len(q.pending))
	for classID, n := range q.pending {
		owed[classID] = n
	}
	q.mu.Unlock()

	for classID, n := range owed {
		for i := 0; i < n; i++ {
			if err := q.releaseOne(ctx, classID); err != nil {
				q.log.Warn("Slot release retry failed", "class_id", classID, "error", err)
				break
			}
			q.settle(classID)
		}
	}
	return q.Pending()
}

func (q *ReleaseQueue) releaseOne(ctx context.Context, classID int64) error {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	err := q.ledger.Release(ctx, classID)
	if errors.Is(err, ErrNothingReserved) {
		q.log.Warn("Pending slot release found nothing reserved", "class_id", classID)
		return nil
	}
	if err == nil {
		q.log.Info("Pending slot release applied", "class_id", classID)
	}
	return err
}

func (q *ReleaseQueue) settle(classID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending[classID] <= 1 {
		delete(q.pending, classID)
		return
	}
	q.pending[classID]--
}

func (q *ReleaseQueue) loop(interval time.Duration) {
	defer close(q.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if q.Pending() > 0 {
				q.Flush(context.Background())
			}
		case <-q.stopCh:
			return
		}
	}
}

// Stop ends the background loop and makes a last attempt at anything still
// pending. Releases that remain are logged so they can be reconciled.
func (q *ReleaseQueue) Stop(ctx context.Context) error {
	q.stopOnce.Do(func() { close(q.stopCh) })
	<-q.done

	if remaining := q.Flush(ctx); remaining > 0 {
		q.mu.Lock()
		for classID, n := range q.pending {
			q.log.Error("Slot releases lost on shutdown", "class_id", classID, "count", n)
		}
		q.mu.Unlock()
	}
	return nil
}
