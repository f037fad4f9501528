package seed

import (
	"context"
	"testing"
	"time"

	"fitstudio/internal/classes/validator"
	"fitstudio/pkg/clock"
	"fitstudio/pkg/logger"
	"fitstudio/pkg/model"
)

type mockClassRepository struct {
	count   int64
	created []*model.FitnessClass
}

func (m *mockClassRepository) Create(ctx context.Context, class *model.FitnessClass) error {
	class.ID = int64(len(m.created) + 1)
	m.created = append(m.created, class)
	return nil
}

func (m *mockClassRepository) FindByID(ctx context.Context, id int64) (*model.FitnessClass, error) {
	return nil, nil
}

func (m *mockClassRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*model.FitnessClass, error) {
	return nil, nil
}

func (m *mockClassRepository) FindActive(ctx context.Context) ([]*model.FitnessClass, error) {
	return nil, nil
}

func (m *mockClassRepository) Count(ctx context.Context) (int64, error) {
	return m.count, nil
}

func mustIST(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return loc
}

func TestSampleClasses_NextDayInZone(t *testing.T) {
	ist := mustIST(t)
	// 23:00 IST on Jan 14 is already 17:30 UTC; tomorrow is Jan 15 in IST.
	now := time.Date(2024, 1, 14, 17, 30, 0, 0, time.UTC)

	classes := SampleClasses(now, ist)
	if len(classes) != 3 {
		t.Fatalf("expected 3 classes, got %d", len(classes))
	}

	want := []struct {
		name     string
		local    string
		duration int
		slots    int
	}{
		{"Morning Yoga", "2024-01-15T08:00:00+05:30", 60, 15},
		{"High Energy Zumba", "2024-01-15T18:30:00+05:30", 45, 20},
		{"HIIT Intensive", "2024-01-15T19:00:00+05:30", 30, 12},
	}
	for i, w := range want {
		c := classes[i]
		if c.Name != w.name || c.DurationMinutes != w.duration || c.MaxSlots != w.slots || !c.IsActive {
			t.Errorf("class %d: unexpected %+v", i, c)
		}
		if got := c.ClassDateTime.In(ist).Format(time.RFC3339); got != w.local {
			t.Errorf("class %d: expected %s, got %s", i, w.local, got)
		}
	}
}

func TestRun_SeedsEmptyStore(t *testing.T) {
	repo := &mockClassRepository{}
	now := time.Date(2024, 1, 14, 6, 0, 0, 0, time.UTC)

	created, err := Run(context.Background(), repo, validator.NewClassValidator(logger.Discard()), clock.NewFixed(now), mustIST(t), logger.Discard())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if created != 3 || len(repo.created) != 3 {
		t.Errorf("expected 3 created, got %d (%d)", created, len(repo.created))
	}
}

func TestRun_SkipsPopulatedStore(t *testing.T) {
	repo := &mockClassRepository{count: 2}

	created, err := Run(context.Background(), repo, validator.NewClassValidator(logger.Discard()), clock.NewSystem(), mustIST(t), logger.Discard())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if created != 0 || len(repo.created) != 0 {
		t.Errorf("expected nothing created, got %d", created)
	}
}
