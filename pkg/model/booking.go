package model

import (
	"time"
)

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

type Booking struct {
	ID               int64      `json:"id" bson:"_id"`
	ClassID          int64      `json:"class_id" bson:"class_id" validate:"required,min=1"`
	ClientName       string     `json:"client_name" bson:"client_name" validate:"required,min=2,max=100"`
	ClientEmail      string     `json:"client_email" bson:"client_email" validate:"required,email,max=254"`
	Notes            *string    `json:"notes" bson:"notes,omitempty" validate:"omitempty,max=500"`
	BookingReference string     `json:"booking_reference" bson:"booking_reference" validate:"omitempty,booking_reference"`
	Status           string     `json:"booking_status" bson:"booking_status" validate:"required,oneof=confirmed cancelled"`
	CreatedAt        time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" bson:"updated_at"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// BookingRequest is the POST /book payload.
type BookingRequest struct {
	ClassID     int64   `json:"class_id" validate:"required,min=1"`
	ClientName  string  `json:"client_name" validate:"required,min=2,max=100"`
	ClientEmail string  `json:"client_email" validate:"required,email,max=254"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type BookingView struct {
	ID               int64      `json:"id"`
	ClassID          int64      `json:"class_id"`
	ClientName       string     `json:"client_name"`
	ClientEmail      string     `json:"client_email"`
	Notes            *string    `json:"notes"`
	BookingReference string     `json:"booking_reference"`
	BookingStatus    string     `json:"booking_status"`
	CreatedAt        time.Time  `json:"created_at"`
	FitnessClass     *ClassView `json:"fitness_class"`
}

type BookingList struct {
	Bookings    []*BookingView `json:"bookings"`
	TotalCount  int            `json:"total_count"`
	ClientEmail string         `json:"client_email"`
}
