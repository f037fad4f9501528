package service

import (
	"context"
	"errors"
	"fmt"

	bookingserrors "fitstudio/internal/bookings/errors"
	"fitstudio/internal/bookings/repository"
	"fitstudio/internal/bookings/validator"
	classeserrors "fitstudio/internal/classes/errors"
	classrepository "fitstudio/internal/classes/repository"
	classservice "fitstudio/internal/classes/service"
	"fitstudio/internal/reference"
	"fitstudio/internal/slots"
	"fitstudio/internal/timezone"
	"fitstudio/pkg/clock"
	"fitstudio/pkg/config"
	apperrors "fitstudio/pkg/errors"
	"fitstudio/pkg/events"
	"fitstudio/pkg/logger"
	"fitstudio/pkg/model"
	"fitstudio/pkg/sanitizer"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fitstudio/internal/bookings/service"

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.BookingView, error)
	Cancel(ctx context.Context, id int64) (*model.BookingView, error)
	GetByEmail(ctx context.Context, email string) (*model.BookingList, error)
}

type bookingService struct {
	repo       repository.BookingRepository
	classRepo  classrepository.ClassRepository
	classes    classservice.ClassService
	ledger     slots.Ledger
	releases   *slots.ReleaseQueue
	references reference.Generator
	converter  *timezone.Converter
	publisher  events.Publisher
	validator  *validator.BookingValidator
	clock      clock.Clock
	cfg        *config.Config
	tracer     trace.Tracer
}

func NewBookingService(
	repo repository.BookingRepository,
	classRepo classrepository.ClassRepository,
	classes classservice.ClassService,
	ledger slots.Ledger,
	releases *slots.ReleaseQueue,
	references reference.Generator,
	converter *timezone.Converter,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	clk clock.Clock,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:       repo,
		classRepo:  classRepo,
		classes:    classes,
		ledger:     ledger,
		releases:   releases,
		references: references,
		converter:  converter,
		publisher:  publisher,
		validator:  validator,
		clock:      clk,
		cfg:        cfg,
		tracer:     otel.Tracer(tracerName),
	}
}

// Create reserves a slot first and persists second. Any failure after the
// reservation releases the slot before returning.
func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (view *model.BookingView, err error) {
	ctx, span := s.tracer.Start(ctx, "bookings.Create", trace.WithAttributes(attribute.Int64("class_id", req.ClassID)))
	defer func() { endSpan(span, err) }()
	log := s.cfg.Log.WithContext(ctx)

	s.sanitize(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		log.Warn("Booking validation failed", "class_id", req.ClassID, "error", err)
		return nil, validationError(err)
	}

	class, err := s.bookableClass(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}

	reservation, err := s.ledger.TryReserve(ctx, class.ID)
	if err != nil {
		switch {
		case errors.Is(err, slots.ErrFull):
			log.Info("Class is fully booked", "class_id", class.ID)
			return nil, apperrors.Conflict("No available slots for this class", map[string]any{"class_id": class.ID})
		case errors.Is(err, slots.ErrUnknownClass):
			return nil, apperrors.NotFoundWithID("Fitness class", class.ID)
		default:
			log.Error("Failed to reserve slot", "class_id", class.ID, "error", err)
			return nil, apperrors.Internal("Failed to create booking", err)
		}
	}
	span.AddEvent("slot reserved", trace.WithAttributes(attribute.Int("booked", reservation.Booked)))

	booking := &model.Booking{
		ClassID:     class.ID,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		Notes:       req.Notes,
		Status:      model.BookingStatusConfirmed,
	}
	if err := s.persist(ctx, log, booking); err != nil {
		s.release(ctx, log, class.ID, "create_failed")
		return nil, err
	}

	log.Info("Booking created successfully",
		"id", booking.ID,
		"class_id", class.ID,
		"booking_reference", booking.BookingReference,
		"booked", reservation.Booked,
		"capacity", reservation.Capacity,
	)
	s.publish(ctx, log, events.TypeBookingCreated, booking)

	return toView(booking, classservice.BuildView(class, reservation.Booked, s.converter.Base())), nil
}

func (s *bookingService) bookableClass(ctx context.Context, classID int64) (*model.FitnessClass, error) {
	class, err := s.classRepo.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, classeserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Fitness class", classID)
		}
		s.cfg.Log.WithContext(ctx).Error("Failed to load fitness class", "class_id", classID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}
	if !class.IsActive {
		return nil, apperrors.NotFoundWithID("Fitness class", classID)
	}
	if class.HasStarted(s.clock.Now()) {
		return nil, apperrors.Validation("Cannot book a class that has already started", map[string]any{
			"field":  "class_id",
			"reason": "class_in_past",
		})
	}
	return class, nil
}

// persist assigns a fresh reference and inserts the booking, regenerating on
// reference collisions up to MaxReferenceAttempts times.
func (s *bookingService) persist(ctx context.Context, log *logger.Logger, booking *model.Booking) error {
	for attempt := 1; attempt <= s.cfg.MaxReferenceAttempts; attempt++ {
		ref, err := s.references.Generate()
		if err != nil {
			log.Error("Failed to generate booking reference", "error", err)
			return apperrors.Internal("Failed to create booking", err)
		}

		exists, err := s.repo.ExistsByReference(ctx, ref)
		if err != nil {
			log.Error("Failed to check booking reference", "error", err)
			return apperrors.Internal("Failed to create booking", err)
		}
		if exists {
			log.Warn("Booking reference collision", "attempt", attempt)
			continue
		}

		booking.BookingReference = ref
		if err := s.validator.Validate(booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}

		err = s.repo.Create(ctx, booking)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bookingserrors.ErrDuplicateReference):
			log.Warn("Booking reference taken at insert", "attempt", attempt)
			continue
		case errors.Is(err, bookingserrors.ErrDuplicateBooking):
			return apperrors.Conflict("You already have a confirmed booking for this class", map[string]any{
				"class_id":     booking.ClassID,
				"client_email": booking.ClientEmail,
			})
		case errors.Is(err, context.DeadlineExceeded):
			log.Error("Timed out saving booking", "class_id", booking.ClassID, "error", err)
			return apperrors.Internal("Failed to create booking", err)
		default:
			log.Error("Failed to save booking", "class_id", booking.ClassID, "error", err)
			return apperrors.Internal("Failed to create booking", err)
		}
	}

	log.Error("Booking reference attempts exhausted", "attempts", s.cfg.MaxReferenceAttempts)
	return apperrors.Internal("Failed to create booking", nil).
		WithDetails(map[string]any{"reason": "reference_exhausted"})
}

// release gives a slot back. It runs detached from ctx so a request that
// timed out still rolls back; a failed release is queued for retry.
func (s *bookingService) release(ctx context.Context, log *logger.Logger, classID int64, reason string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	err := s.ledger.Release(releaseCtx, classID)
	switch {
	case err == nil:
		log.Debug("Slot released", "class_id", classID, "reason", reason)
	case errors.Is(err, slots.ErrNothingReserved):
		log.Warn("No reserved slot to release", "class_id", classID, "reason", reason)
	default:
		log.Error("Failed to release slot, queued for retry", "class_id", classID, "reason", reason, "error", err)
		s.releases.Add(classID)
	}
}

func (s *bookingService) Cancel(ctx context.Context, id int64) (view *model.BookingView, err error) {
	ctx, span := s.tracer.Start(ctx, "bookings.Cancel", trace.WithAttributes(attribute.Int64("booking_id", id)))
	defer func() { endSpan(span, err) }()
	log := s.cfg.Log.WithContext(ctx)

	if id < 1 {
		return nil, apperrors.InvalidInput("booking_id", fmt.Sprintf("booking_id must be a positive integer, got %d", id))
	}

	var booking *model.Booking
	var flipped bool
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		flipped = false
		b, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return apperrors.Internal("Failed to cancel booking", err)
		}
		booking = b
		if !b.IsConfirmed() {
			return nil
		}

		// The ledger must track the class before the flip. Loaded after
		// commit it would count without this booking and then release again.
		if _, err := s.ledger.CurrentCount(ctx, b.ClassID); err != nil && !errors.Is(err, slots.ErrUnknownClass) {
			log.Warn("Failed to load slot count before cancel", "class_id", b.ClassID, "error", err)
		}

		now := s.clock.Now()
		ok, err := s.repo.MarkCancelled(txCtx, id, now)
		if err != nil {
			return apperrors.Internal("Failed to cancel booking", err)
		}
		if ok {
			flipped = true
			b.Status = model.BookingStatusCancelled
			b.CancelledAt = &now
			b.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		appErr := apperrors.AsAppError(err)
		if appErr.Code == apperrors.CodeInternal {
			log.Error("Failed to cancel booking", "id", id, "error", err)
		}
		return nil, appErr
	}

	switch {
	case flipped:
		s.release(ctx, log, booking.ClassID, "cancelled")
		log.Info("Booking cancelled", "id", id, "class_id", booking.ClassID, "booking_reference", booking.BookingReference)
		s.publish(ctx, log, events.TypeBookingCancelled, booking)
	case booking.IsConfirmed():
		// lost the flip to a concurrent cancel; report the stored state
		if current, err := s.repo.FindByID(ctx, id); err == nil {
			booking = current
		}
	default:
		log.Debug("Booking already cancelled", "id", id)
	}

	return s.enrich(ctx, booking, nil)
}

func (s *bookingService) GetByEmail(ctx context.Context, email string) (list *model.BookingList, err error) {
	ctx, span := s.tracer.Start(ctx, "bookings.GetByEmail")
	defer func() { endSpan(span, err) }()
	log := s.cfg.Log.WithContext(ctx)

	email = sanitizer.SanitizeEmail(email)
	if err := s.validator.ValidateEmail(email); err != nil {
		return nil, validationError(err)
	}

	bookings, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		log.Error("Failed to list bookings", "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	ids := make([]int64, 0, len(bookings))
	seen := make(map[int64]bool, len(bookings))
	for _, b := range bookings {
		if !seen[b.ClassID] {
			seen[b.ClassID] = true
			ids = append(ids, b.ClassID)
		}
	}
	classes, err := s.classRepo.FindByIDs(ctx, ids)
	if err != nil {
		log.Error("Failed to load classes for bookings", "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	snapshots := make(map[int64]*model.ClassView, len(classes))
	views := make([]*model.BookingView, 0, len(bookings))
	for _, b := range bookings {
		snapshot, ok := snapshots[b.ClassID]
		if !ok {
			if class := classes[b.ClassID]; class != nil {
				snapshot, err = s.classes.Snapshot(ctx, class)
				if err != nil {
					log.Error("Failed to snapshot class", "class_id", b.ClassID, "error", err)
					return nil, apperrors.Internal("Failed to retrieve bookings", err)
				}
			}
			snapshots[b.ClassID] = snapshot
		}
		views = append(views, toView(b, snapshot))
	}

	span.SetAttributes(attribute.Int("total_count", len(views)))
	return &model.BookingList{
		Bookings:    views,
		TotalCount:  len(views),
		ClientEmail: email,
	}, nil
}

func (s *bookingService) enrich(ctx context.Context, b *model.Booking, class *model.FitnessClass) (*model.BookingView, error) {
	if class == nil {
		var err error
		class, err = s.classRepo.FindByID(ctx, b.ClassID)
		if err != nil {
			if errors.Is(err, classeserrors.ErrNotFound) {
				return toView(b, nil), nil
			}
			return nil, apperrors.Internal("Failed to load fitness class", err)
		}
	}
	snapshot, err := s.classes.Snapshot(ctx, class)
	if err != nil {
		return nil, apperrors.Internal("Failed to load fitness class", err)
	}
	return toView(b, snapshot), nil
}

func (s *bookingService) publish(ctx context.Context, log *logger.Logger, eventType string, b *model.Booking) {
	event := events.NewBookingEvent(eventType, b, s.clock.Now())
	event.RequestID = logger.RequestIDFrom(ctx)

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()
	if err := s.publisher.Publish(publishCtx, event); err != nil {
		log.Warn("Failed to publish booking event", "event_type", eventType, "booking_id", b.ID, "error", err)
	}
}

// --- Helpers ---

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.ClientName = sanitizer.SanitizeClientName(req.ClientName)
	req.ClientEmail = sanitizer.SanitizeEmail(req.ClientEmail)
	req.Notes = sanitizer.SanitizeNotes(req.Notes)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Booking validation failed", verrs.Fields())
	}
	return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
}

func toView(b *model.Booking, class *model.ClassView) *model.BookingView {
	return &model.BookingView{
		ID:               b.ID,
		ClassID:          b.ClassID,
		ClientName:       b.ClientName,
		ClientEmail:      b.ClientEmail,
		Notes:            b.Notes,
		BookingReference: b.BookingReference,
		BookingStatus:    b.Status,
		CreatedAt:        b.CreatedAt,
		FitnessClass:     class,
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
