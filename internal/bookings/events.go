package bookings

import (
	"context"
	"time"
)

type EventType string

const (
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingCompleted EventType = "booking.completed"
)

// Event is one booking lifecycle change, keyed by booking id.
type Event struct {
	Type       EventType `json:"type"`
	BookingID  string    `json:"booking_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Booking    Booking   `json:"booking"`
}

// Publisher is an interface to avoid circular dependency with the notifications package
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event Event) error {
	return nil
}
