package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	classeserrors "fitstudio/internal/classes/errors"
	"fitstudio/internal/classes/repository"
	"fitstudio/internal/slots"
	"fitstudio/internal/timezone"
	"fitstudio/pkg/config"
	apperrors "fitstudio/pkg/errors"
	"fitstudio/pkg/model"
	"fitstudio/pkg/sanitizer"
)

type ClassService interface {
	List(ctx context.Context, zone string) ([]*model.ClassView, error)
	GetByID(ctx context.Context, id int64, zone string) (*model.ClassView, error)
	Snapshot(ctx context.Context, class *model.FitnessClass) (*model.ClassView, error)
}

type classService struct {
	repo      repository.ClassRepository
	ledger    slots.Ledger
	converter *timezone.Converter
	cfg       *config.Config
}

func NewClassService(
	repo repository.ClassRepository,
	ledger slots.Ledger,
	converter *timezone.Converter,
	cfg *config.Config,
) ClassService {
	return &classService{
		repo:      repo,
		ledger:    ledger,
		converter: converter,
		cfg:       cfg,
	}
}

func (s *classService) List(ctx context.Context, zone string) ([]*model.ClassView, error) {
	loc, err := s.location(zone)
	if err != nil {
		return nil, err
	}

	classes, err := s.repo.FindActive(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list fitness classes", "error", err)
		return nil, apperrors.Internal("Failed to retrieve fitness classes", err)
	}

	views := make([]*model.ClassView, 0, len(classes))
	for _, class := range classes {
		booked, err := s.ledger.CurrentCount(ctx, class.ID)
		if err != nil {
			if errors.Is(err, slots.ErrUnknownClass) {
				// deactivated between the query and the count
				continue
			}
			s.cfg.Log.Error("Failed to read slot count", "class_id", class.ID, "error", err)
			return nil, apperrors.Internal("Failed to retrieve fitness classes", err)
		}
		views = append(views, BuildView(class, booked, loc))
	}

	s.cfg.Log.Debug("Fitness classes listed", "count", len(views), "timezone", loc.String())
	return views, nil
}

func (s *classService) GetByID(ctx context.Context, id int64, zone string) (*model.ClassView, error) {
	if id < 1 {
		return nil, apperrors.InvalidInput("class_id", fmt.Sprintf("class_id must be a positive integer, got %d", id))
	}
	loc, err := s.location(zone)
	if err != nil {
		return nil, err
	}

	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, classeserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Fitness class", id)
		}
		s.cfg.Log.Error("Failed to retrieve fitness class", "class_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve fitness class", err)
	}
	if !class.IsActive {
		return nil, apperrors.NotFoundWithID("Fitness class", id)
	}

	booked, err := s.ledger.CurrentCount(ctx, id)
	if err != nil {
		if errors.Is(err, slots.ErrUnknownClass) {
			return nil, apperrors.NotFoundWithID("Fitness class", id)
		}
		s.cfg.Log.Error("Failed to read slot count", "class_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve fitness class", err)
	}
	return BuildView(class, booked, loc), nil
}

// Snapshot is the base-zone view attached to bookings.
func (s *classService) Snapshot(ctx context.Context, class *model.FitnessClass) (*model.ClassView, error) {
	booked, err := s.ledger.CurrentCount(ctx, class.ID)
	if err != nil {
		if !errors.Is(err, slots.ErrUnknownClass) {
			return nil, fmt.Errorf("read slot count for class %d: %w", class.ID, err)
		}
		// inactive classes are no longer tracked; fall back to the stored figure
		booked = class.BookedSlots
	}
	return BuildView(class, booked, s.converter.Base()), nil
}

func (s *classService) location(zone string) (*time.Location, error) {
	zone = sanitizer.SanitizeZone(zone)
	if zone == "" {
		return s.converter.Base(), nil
	}
	loc, err := s.converter.Location(zone)
	if err != nil {
		return nil, apperrors.InvalidInput("timezone", fmt.Sprintf("Unknown timezone: %s", zone))
	}
	return loc, nil
}

// BuildView renders class in loc with booked taken as the confirmed count.
func BuildView(class *model.FitnessClass, booked int, loc *time.Location) *model.ClassView {
	available := class.MaxSlots - booked
	if available < 0 {
		available = 0
	}
	return &model.ClassView{
		ID:              class.ID,
		Name:            class.Name,
		Description:     class.Description,
		Instructor:      class.Instructor,
		ClassDateTime:   class.ClassDateTime.In(loc),
		DurationMinutes: class.DurationMinutes,
		MaxSlots:        class.MaxSlots,
		AvailableSlots:  available,
		BookedSlots:     booked,
		IsFullyBooked:   available == 0,
		IsActive:        class.IsActive,
		CreatedAt:       class.CreatedAt.In(loc),
	}
}
