package seed

import (
	"context"
	"fmt"
	"time"

	"fitstudio/internal/classes/repository"
	"fitstudio/internal/classes/validator"
	"fitstudio/pkg/clock"
	"fitstudio/pkg/logger"
	"fitstudio/pkg/model"
)

type sampleClass struct {
	name        string
	description string
	instructor  string
	hour        int
	minute      int
	duration    int
	maxSlots    int
}

var samples = []sampleClass{
	{"Morning Yoga", "Start your day with peaceful yoga practice", "Sarah Johnson", 8, 0, 60, 15},
	{"High Energy Zumba", "Dance your way to fitness with energetic Zumba", "Carlos Rodriguez", 18, 30, 45, 20},
	{"HIIT Intensive", "High-intensity interval training for maximum results", "Mike Thompson", 19, 0, 30, 12},
}

// SampleClasses returns the demo schedule for the day after now, as wall
// clock times in loc.
func SampleClasses(now time.Time, loc *time.Location) []*model.FitnessClass {
	y, m, d := now.In(loc).AddDate(0, 0, 1).Date()

	classes := make([]*model.FitnessClass, 0, len(samples))
	for _, s := range samples {
		classes = append(classes, &model.FitnessClass{
			Name:            s.name,
			Description:     s.description,
			Instructor:      s.instructor,
			ClassDateTime:   time.Date(y, m, d, s.hour, s.minute, 0, 0, loc).UTC(),
			DurationMinutes: s.duration,
			MaxSlots:        s.maxSlots,
			IsActive:        true,
		})
	}
	return classes
}

// Run inserts the sample classes when the store holds none. It returns the
// number of classes created.
func Run(ctx context.Context, repo repository.ClassRepository, v *validator.ClassValidator, clk clock.Clock, loc *time.Location, log *logger.Logger) (int, error) {
	existing, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	if existing > 0 {
		log.Info("Sample classes already exist", "count", existing)
		return 0, nil
	}

	now := clk.Now()
	created := 0
	for _, class := range SampleClasses(now, loc) {
		if err := v.Validate(class, now); err != nil {
			return created, fmt.Errorf("sample class %q: %w", class.Name, err)
		}
		if err := repo.Create(ctx, class); err != nil {
			return created, fmt.Errorf("create sample class %q: %w", class.Name, err)
		}
		created++
	}

	log.Info("Sample classes created successfully", "count", created)
	return created, nil
}
