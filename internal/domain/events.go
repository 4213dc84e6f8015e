package domain

import "context"

// BookingEvent is the payload published on lifecycle changes. Delivery
// is best-effort; the request that caused the change never fails on a
// publish error.
type BookingEvent struct {
	Kind          string
	BookingID     string
	BookingNumber string
	Status        BookingStatus
	Subject       string
}

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
)

type EventPublisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}
