package events

import (
	"context"
	"time"

	"fitstudio/pkg/model"

	"github.com/google/uuid"
)

const (
	TypeBookingCreated   = "booking.created"
	TypeBookingCancelled = "booking.cancelled"

	SchemaVersion = "1"
)

// BookingEvent is the payload published after a booking changes state.
type BookingEvent struct {
	EventID          string    `json:"event_id"`
	Type             string    `json:"event_type"`
	OccurredAt       time.Time `json:"occurred_at"`
	BookingID        int64     `json:"booking_id"`
	BookingReference string    `json:"booking_reference"`
	ClassID          int64     `json:"class_id"`
	ClientEmail      string    `json:"client_email"`
	Status           string    `json:"booking_status"`
	RequestID        string    `json:"request_id,omitempty"`
}

func NewBookingEvent(eventType string, b *model.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		EventID:          uuid.New().String(),
		Type:             eventType,
		OccurredAt:       at.UTC(),
		BookingID:        b.ID,
		BookingReference: b.BookingReference,
		ClassID:          b.ClassID,
		ClientEmail:      b.ClientEmail,
		Status:           b.Status,
	}
}

// Publisher delivers booking events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, BookingEvent) error { return nil }

func (noopPublisher) Close() error { return nil }
