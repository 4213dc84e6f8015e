package domain

import "time"

type ServiceType string

const (
	ServiceElectrical ServiceType = "electrical"
	ServicePlumbing   ServiceType = "plumbing"
)

func (s ServiceType) Valid() bool {
	return s == ServiceElectrical || s == ServicePlumbing
}

type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityUrgent    Priority = "urgent"
	PriorityEmergency Priority = "emergency"
)

func (p Priority) Valid() bool {
	return p == PriorityNormal || p == PriorityUrgent || p == PriorityEmergency
}

type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is defined from s.
func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type ContactInfo struct {
	Name    string
	Phone   string
	Address string
}

type Booking struct {
	ID            string
	BookingNumber string
	ServiceType   ServiceType
	Priority      Priority
	Description   string
	Contact       ContactInfo
	ScheduledTime time.Time
	Status        BookingStatus
	TotalCost     *float64
	Rating        *int
	Review        *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// BookingFilter narrows listing queries. Zero fields mean no filter.
type BookingFilter struct {
	Status      BookingStatus
	ServiceType ServiceType
	Page        int
	Limit       int
}

// transitions is the booking lifecycle graph. Re-applying a terminal
// status is not listed, so completed -> completed is rejected rather
// than treated as a no-op.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a lifecycle step to the booking in memory. The
// booking is untouched when the step is rejected.
func (b *Booking) Transition(to BookingStatus, now time.Time) error {
	if !CanTransition(b.Status, to) {
		return &InvalidTransitionError{From: b.Status, To: to}
	}
	b.Status = to
	if to == StatusCompleted {
		completed := now
		b.CompletedAt = &completed
	}
	b.UpdatedAt = now
	return nil
}

// AttachReview records a rating and optional review text, permitted
// only once the booking is completed.
func (b *Booking) AttachReview(rating int, review string, now time.Time) error {
	if b.Status != StatusCompleted {
		return ErrInvalidState
	}
	if rating < 1 || rating > 5 {
		return NewValidationError("rating", "must be between 1 and 5")
	}
	b.Rating = &rating
	if review != "" {
		b.Review = &review
	}
	b.UpdatedAt = now
	return nil
}
