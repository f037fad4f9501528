package model

import (
	"time"
)

type FitnessClass struct {
	ID              int64     `json:"id" bson:"_id" validate:"omitempty,min=1"`
	Name            string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description     string    `json:"description" bson:"description" validate:"max=500"`
	Instructor      string    `json:"instructor" bson:"instructor" validate:"required,min=2,max=100"`
	ClassDateTime   time.Time `json:"class_datetime" bson:"class_datetime" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" bson:"duration_minutes" validate:"required,min=15,max=180"`
	MaxSlots        int       `json:"max_slots" bson:"max_slots" validate:"required,min=1,max=50"`
	BookedSlots     int       `json:"booked_slots" bson:"booked_slots" validate:"min=0,ltefield=MaxSlots"`
	IsActive        bool      `json:"is_active" bson:"is_active"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// HasStarted reports whether the class start instant is not after now.
func (c *FitnessClass) HasStarted(now time.Time) bool {
	return !c.ClassDateTime.After(now)
}

// ClassView is the display form of a class: times already converted to the
// caller's zone and slot figures taken from the ledger.
type ClassView struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Instructor      string    `json:"instructor"`
	ClassDateTime   time.Time `json:"class_datetime"`
	DurationMinutes int       `json:"duration_minutes"`
	MaxSlots        int       `json:"max_slots"`
	AvailableSlots  int       `json:"available_slots"`
	BookedSlots     int       `json:"booked_slots"`
	IsFullyBooked   bool      `json:"is_fully_booked"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}
