package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"fieldserve/internal/domain"

	"github.com/google/uuid"
)

// BookingService drives the booking lifecycle once the admission
// pipeline has let a request through. All status changes funnel through
// Transition so the lifecycle graph is enforced in one place.
type BookingService struct {
	repo      BookingRepository
	publisher domain.EventPublisher
	now       func() time.Time
}

func NewBookingService(repo BookingRepository, publisher domain.EventPublisher) *BookingService {
	return &BookingService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock overrides the service clock for tests.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	if now != nil {
		s.now = now
	}
	return s
}

type CreateBookingInput struct {
	ServiceType   domain.ServiceType
	Priority      domain.Priority
	Description   string
	Contact       domain.ContactInfo
	ScheduledTime time.Time
}

func (s *BookingService) Create(ctx context.Context, subject string, input CreateBookingInput) (*domain.Booking, error) {
	if !input.ServiceType.Valid() {
		return nil, domain.NewValidationError("service_type", "must be electrical or plumbing")
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityNormal
	}
	if !input.Priority.Valid() {
		return nil, domain.NewValidationError("priority", "must be normal, urgent or emergency")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, domain.NewValidationError("description", "is required")
	}
	if strings.TrimSpace(input.Contact.Name) == "" {
		return nil, domain.NewValidationError("contact.name", "is required")
	}
	if strings.TrimSpace(input.Contact.Phone) == "" {
		return nil, domain.NewValidationError("contact.phone", "is required")
	}
	if strings.TrimSpace(input.Contact.Address) == "" {
		return nil, domain.NewValidationError("contact.address", "is required")
	}
	if input.ScheduledTime.IsZero() {
		return nil, domain.NewValidationError("scheduled_time", "is required")
	}

	now := s.now()
	id := uuid.NewString()
	booking := &domain.Booking{
		ID:            id,
		BookingNumber: bookingNumber(id),
		ServiceType:   input.ServiceType,
		Priority:      input.Priority,
		Description:   input.Description,
		Contact:       input.Contact,
		ScheduledTime: input.ScheduledTime,
		Status:        domain.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.BookingEvent{
		Kind:          domain.EventBookingCreated,
		BookingID:     booking.ID,
		BookingNumber: booking.BookingNumber,
		Status:        booking.Status,
		Subject:       subject,
	})
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*domain.Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *BookingService) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, domain.NewValidationError("status", "unknown status")
	}
	if filter.ServiceType != "" && !filter.ServiceType.Valid() {
		return nil, 0, domain.NewValidationError("service_type", "unknown service type")
	}
	return s.repo.List(ctx, filter)
}

// Transition applies one lifecycle step. The current status is read
// first so obviously invalid steps fail fast, but the store-level guard
// in ApplyTransition is what decides under concurrency: if another
// request moved the booking in between, the guarded update misses and
// the caller sees InvalidTransition for the status that actually won.
func (s *BookingService) Transition(ctx context.Context, subject, id string, to domain.BookingStatus, totalCost *float64) (*domain.Booking, error) {
	if !to.Valid() {
		return nil, domain.NewValidationError("status", "unknown status")
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(current.Status, to) {
		return nil, &domain.InvalidTransitionError{From: current.Status, To: to}
	}
	updated, err := s.repo.ApplyTransition(ctx, id, current.Status, to, totalCost, s.now())
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.BookingEvent{
		Kind:          domain.EventBookingStatusChanged,
		BookingID:     updated.ID,
		BookingNumber: updated.BookingNumber,
		Status:        updated.Status,
		Subject:       subject,
	})
	return updated, nil
}

func (s *BookingService) AttachReview(ctx context.Context, id string, rating int, review string) (*domain.Booking, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Validates both the rating range and the completed-only rule
	// before touching the store.
	if err := current.AttachReview(rating, review, s.now()); err != nil {
		return nil, err
	}
	return s.repo.AttachReview(ctx, id, rating, review, s.now())
}

func (s *BookingService) Stats(ctx context.Context) (map[domain.BookingStatus]int64, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *BookingService) publish(ctx context.Context, event domain.BookingEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish %s for booking %s: %v", event.Kind, event.BookingID, err)
	}
}

func bookingNumber(id string) string {
	compact := strings.ReplaceAll(id, "-", "")
	return "FS-" + strings.ToUpper(compact[:8])
}
