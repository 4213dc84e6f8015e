package usecase

import (
	"context"
	"time"

	"fieldserve/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int64, error)
	ApplyTransition(ctx context.Context, id string, from, to domain.BookingStatus, totalCost *float64, now time.Time) (*domain.Booking, error)
	AttachReview(ctx context.Context, id string, rating int, review string, now time.Time) (*domain.Booking, error)
	CountByStatus(ctx context.Context) (map[domain.BookingStatus]int64, error)
}
