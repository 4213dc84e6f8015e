package domain

import (
	"testing"
	"time"
)

func TestTransition_LifecycleGraph(t *testing.T) {
	allowed := []struct {
		from, to BookingStatus
	}{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusInProgress},
		{StatusConfirmed, StatusCancelled},
		{StatusInProgress, StatusCompleted},
		{StatusInProgress, StatusCancelled},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct {
		from, to BookingStatus
	}{
		{StatusPending, StatusCompleted},
		{StatusPending, StatusInProgress},
		{StatusConfirmed, StatusCompleted},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusPending},
		{StatusCompleted, StatusCompleted},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestTransition_SetsCompletedAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	booking := Booking{Status: StatusInProgress}
	if err := booking.Transition(StatusCompleted, now); err != nil {
		t.Fatalf("expected completion, got %v", err)
	}
	if booking.CompletedAt == nil || !booking.CompletedAt.Equal(now) {
		t.Fatalf("expected completedAt %v, got %v", now, booking.CompletedAt)
	}
}

func TestTransition_RejectedLeavesBookingUntouched(t *testing.T) {
	booking := Booking{Status: StatusPending}
	err := booking.Transition(StatusCompleted, time.Now())
	transition, ok := IsInvalidTransition(err)
	if !ok {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if transition.From != StatusPending || transition.To != StatusCompleted {
		t.Fatalf("unexpected pair: %s -> %s", transition.From, transition.To)
	}
	if booking.Status != StatusPending || booking.CompletedAt != nil {
		t.Fatalf("booking mutated on rejected transition")
	}
}

func TestTransition_TerminalReapplyFails(t *testing.T) {
	booking := Booking{Status: StatusCompleted}
	if err := booking.Transition(StatusCompleted, time.Now()); err == nil {
		t.Fatalf("expected completed -> completed to fail")
	}
}

func TestAttachReview_RequiresCompleted(t *testing.T) {
	booking := Booking{Status: StatusInProgress}
	if err := booking.AttachReview(5, "great", time.Now()); err != ErrInvalidState {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	booking.Status = StatusCompleted
	if err := booking.AttachReview(0, "", time.Now()); err == nil {
		t.Fatalf("expected rating validation error")
	}
	if err := booking.AttachReview(4, "solid work", time.Now()); err != nil {
		t.Fatalf("expected review to attach, got %v", err)
	}
	if booking.Rating == nil || *booking.Rating != 4 {
		t.Fatalf("rating not recorded")
	}
	if booking.Review == nil || *booking.Review != "solid work" {
		t.Fatalf("review not recorded")
	}
}
