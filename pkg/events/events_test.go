package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"fitstudio/pkg/kafka"
	"fitstudio/pkg/logger"
	"fitstudio/pkg/model"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		want    string
		wantErr bool
	}{
		{"default", "", DriverNone, false},
		{"kafka", "Kafka", DriverKafka, false},
		{"rabbitmq", " rabbitmq ", DriverRabbitMQ, false},
		{"unknown", "nats", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.driver != "" {
				t.Setenv("EVENTS_DRIVER", tt.driver)
			}
			cfg, err := LoadConfig()
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if err == nil && cfg.Driver != tt.want {
				t.Errorf("expected %s, got %s", tt.want, cfg.Driver)
			}
		})
	}
}

func TestNew_NoneIsNoop(t *testing.T) {
	p, err := New(&Config{Driver: DriverNone}, logger.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Publish(context.Background(), BookingEvent{}); err != nil {
		t.Errorf("noop publish returned %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("noop close returned %v", err)
	}
}

func TestKafkaMessage(t *testing.T) {
	at := time.Date(2024, 1, 15, 3, 0, 0, 0, time.UTC)
	booking := &model.Booking{
		ID:               7,
		ClassID:          2,
		ClientEmail:      "john@example.com",
		BookingReference: "FBAB12CD34",
		Status:           model.BookingStatusConfirmed,
	}
	event := NewBookingEvent(TypeBookingCreated, booking, at)
	event.RequestID = "req-42"

	msg, err := KafkaMessage(event, "fitstudio")
	if err != nil {
		t.Fatalf("KafkaMessage: %v", err)
	}
	if msg.Key != "FBAB12CD34" {
		t.Errorf("expected reference key, got %s", msg.Key)
	}
	if msg.GetEventID() != event.EventID || msg.GetEventType() != TypeBookingCreated || msg.GetCorrelationID() != "req-42" {
		t.Errorf("unexpected headers %v", msg.Headers)
	}
	if msg.Headers[kafka.HeaderSource] != "fitstudio" || msg.Headers[kafka.HeaderSchemaVersion] != SchemaVersion {
		t.Errorf("unexpected headers %v", msg.Headers)
	}

	var decoded BookingEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.BookingID != 7 || decoded.ClassID != 2 || decoded.Status != "confirmed" || !decoded.OccurredAt.Equal(at) {
		t.Errorf("unexpected payload %+v", decoded)
	}
}
