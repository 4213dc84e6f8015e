package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fieldserve/internal/domain"
)

type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]domain.Booking
	failWith error
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]domain.Booking)}
}

func (r *memBookingRepo) Create(_ context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.bookings[booking.ID]; ok {
		return domain.ErrDuplicate
	}
	r.bookings[booking.ID] = *booking
	return nil
}

func (r *memBookingRepo) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := booking
	return &out, nil
}

func (r *memBookingRepo) List(_ context.Context, filter domain.BookingFilter) ([]domain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Booking
	for _, booking := range r.bookings {
		if filter.Status != "" && booking.Status != filter.Status {
			continue
		}
		if filter.ServiceType != "" && booking.ServiceType != filter.ServiceType {
			continue
		}
		out = append(out, booking)
	}
	return out, int64(len(out)), nil
}

// ApplyTransition mirrors the guarded UPDATE of the postgres repo: the
// stored status must still equal the expected one under the lock.
func (r *memBookingRepo) ApplyTransition(_ context.Context, id string, from, to domain.BookingStatus, totalCost *float64, now time.Time) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if booking.Status != from {
		return nil, &domain.InvalidTransitionError{From: booking.Status, To: to}
	}
	booking.Status = to
	booking.UpdatedAt = now
	if to == domain.StatusCompleted {
		completed := now
		booking.CompletedAt = &completed
	}
	if totalCost != nil {
		booking.TotalCost = totalCost
	}
	r.bookings[id] = booking
	out := booking
	return &out, nil
}

func (r *memBookingRepo) AttachReview(_ context.Context, id string, rating int, review string, now time.Time) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if booking.Status != domain.StatusCompleted {
		return nil, domain.ErrInvalidState
	}
	booking.Rating = &rating
	if review != "" {
		booking.Review = &review
	}
	booking.UpdatedAt = now
	r.bookings[id] = booking
	out := booking
	return &out, nil
}

func (r *memBookingRepo) CountByStatus(_ context.Context) (map[domain.BookingStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.BookingStatus]int64)
	for _, booking := range r.bookings {
		counts[booking.Status]++
	}
	return counts, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func validInput() CreateBookingInput {
	return CreateBookingInput{
		ServiceType: domain.ServiceElectrical,
		Priority:    domain.PriorityUrgent,
		Description: "breaker panel keeps tripping",
		Contact: domain.ContactInfo{
			Name:    "Dana Ortiz",
			Phone:   "555-0142",
			Address: "12 Hillcrest Ave",
		},
		ScheduledTime: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestCreate_AssignsNumberAndPendingStatus(t *testing.T) {
	repo := newMemBookingRepo()
	publisher := &recordingPublisher{}
	service := NewBookingService(repo, publisher)

	booking, err := service.Create(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if booking.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", booking.Status)
	}
	if len(booking.BookingNumber) != 11 || booking.BookingNumber[:3] != "FS-" {
		t.Fatalf("unexpected booking number %q", booking.BookingNumber)
	}
	if len(publisher.events) != 1 || publisher.events[0].Kind != domain.EventBookingCreated {
		t.Fatalf("expected created event, got %v", publisher.events)
	}
}

func TestCreate_Validation(t *testing.T) {
	service := NewBookingService(newMemBookingRepo(), nil)

	input := validInput()
	input.ServiceType = "carpentry"
	if _, err := service.Create(context.Background(), "user-1", input); err == nil {
		t.Fatalf("expected service type rejection")
	} else if _, ok := domain.IsValidationError(err); !ok {
		t.Fatalf("expected validation error, got %v", err)
	}

	input = validInput()
	input.Contact.Phone = " "
	if _, err := service.Create(context.Background(), "user-1", input); err == nil {
		t.Fatalf("expected phone rejection")
	}

	input = validInput()
	input.Priority = ""
	booking, err := service.Create(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("create with default priority: %v", err)
	}
	if booking.Priority != domain.PriorityNormal {
		t.Fatalf("expected default priority, got %s", booking.Priority)
	}
}

func TestTransition_HappyPathAndCompletedAt(t *testing.T) {
	repo := newMemBookingRepo()
	now := time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC)
	service := NewBookingService(repo, nil).WithClock(func() time.Time { return now })

	booking, err := service.Create(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, next := range []domain.BookingStatus{domain.StatusConfirmed, domain.StatusInProgress} {
		if booking, err = service.Transition(context.Background(), "user-1", booking.ID, next, nil); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	cost := 240.0
	booking, err = service.Transition(context.Background(), "user-1", booking.ID, domain.StatusCompleted, &cost)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if booking.CompletedAt == nil || !booking.CompletedAt.Equal(now) {
		t.Fatalf("completedAt not recorded: %v", booking.CompletedAt)
	}
	if booking.TotalCost == nil || *booking.TotalCost != cost {
		t.Fatalf("total cost not recorded: %v", booking.TotalCost)
	}
}

func TestTransition_InvalidStep(t *testing.T) {
	service := NewBookingService(newMemBookingRepo(), nil)
	booking, err := service.Create(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = service.Transition(context.Background(), "user-1", booking.ID, domain.StatusCompleted, nil)
	transition, ok := domain.IsInvalidTransition(err)
	if !ok {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if transition.From != domain.StatusPending || transition.To != domain.StatusCompleted {
		t.Fatalf("unexpected pair %s -> %s", transition.From, transition.To)
	}
}

func TestTransition_UnknownBooking(t *testing.T) {
	service := NewBookingService(newMemBookingRepo(), nil)
	if _, err := service.Transition(context.Background(), "user-1", "missing", domain.StatusConfirmed, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// Two racing, mutually exclusive transitions on one booking: exactly one
// wins, and the stored status is the winner's.
func TestTransition_ConcurrentConflict(t *testing.T) {
	repo := newMemBookingRepo()
	service := NewBookingService(repo, nil)

	booking, err := service.Create(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, next := range []domain.BookingStatus{domain.StatusConfirmed, domain.StatusInProgress} {
		if _, err := service.Transition(context.Background(), "user-1", booking.ID, next, nil); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	targets := []domain.BookingStatus{domain.StatusCompleted, domain.StatusCancelled}
	for i := range targets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = service.Transition(context.Background(), "user-1", booking.ID, targets[i], nil)
		}(i)
	}
	wg.Wait()

	var succeeded []domain.BookingStatus
	for i, err := range results {
		if err == nil {
			succeeded = append(succeeded, targets[i])
			continue
		}
		if _, ok := domain.IsInvalidTransition(err); !ok {
			t.Fatalf("loser saw unexpected error: %v", err)
		}
	}
	if len(succeeded) != 1 {
		t.Fatalf("expected exactly one winner, got %d", len(succeeded))
	}
	final, err := service.Get(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != succeeded[0] {
		t.Fatalf("stored status %s does not match winner %s", final.Status, succeeded[0])
	}
}

func TestAttachReview_OnlyWhenCompleted(t *testing.T) {
	repo := newMemBookingRepo()
	service := NewBookingService(repo, nil)

	booking, err := service.Create(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.AttachReview(context.Background(), booking.ID, 5, "quick fix"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	for _, next := range []domain.BookingStatus{domain.StatusConfirmed, domain.StatusInProgress, domain.StatusCompleted} {
		if _, err := service.Transition(context.Background(), "user-1", booking.ID, next, nil); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	reviewed, err := service.AttachReview(context.Background(), booking.ID, 5, "quick fix")
	if err != nil {
		t.Fatalf("attach review: %v", err)
	}
	if reviewed.Rating == nil || *reviewed.Rating != 5 {
		t.Fatalf("rating not stored")
	}

	if _, err := service.AttachReview(context.Background(), booking.ID, 9, ""); err == nil {
		t.Fatalf("expected rating range rejection")
	}
}
