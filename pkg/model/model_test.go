package model

import (
	"testing"
	"time"
)

func TestFitnessClass_HasStarted(t *testing.T) {
	start := time.Date(2024, 1, 15, 2, 30, 0, 0, time.UTC)
	class := &FitnessClass{ClassDateTime: start}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", start.Add(-time.Second), false},
		{"at start", start, true},
		{"after start", start.Add(time.Minute), true},
		{"same instant other zone", start.In(time.FixedZone("IST", 5*3600+1800)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := class.HasStarted(tt.now); got != tt.want {
				t.Errorf("HasStarted(%s) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestBooking_IsConfirmed(t *testing.T) {
	if !(&Booking{Status: BookingStatusConfirmed}).IsConfirmed() {
		t.Error("confirmed booking should report confirmed")
	}
	if (&Booking{Status: BookingStatusCancelled}).IsConfirmed() {
		t.Error("cancelled booking should not report confirmed")
	}
}
