package db

import (
	"context"
	"errors"
	"time"

	"fieldserve/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := fromDomain(booking)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model BookingModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return toDomain(model), nil
}

func (r *BookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int64, error) {
	if r.db == nil {
		return nil, 0, errDBUnavailable
	}
	query := r.db.WithContext(ctx).Model(&BookingModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.ServiceType != "" {
		query = query.Where("service_type = ?", string(filter.ServiceType))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var models []BookingModel
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}
	bookings := make([]domain.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, *toDomain(model))
	}
	return bookings, total, nil
}

// ApplyTransition moves a booking from one status to another with a
// guarded update. The WHERE clause carries the expected current status,
// so of two concurrent conflicting transitions exactly one matches a
// row; the loser reloads and reports the transition it actually lost to.
func (r *BookingRepository) ApplyTransition(ctx context.Context, id string, from, to domain.BookingStatus, totalCost *float64, now time.Time) (*domain.Booking, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	updates := map[string]any{
		"status":     string(to),
		"updated_at": now,
	}
	if to == domain.StatusCompleted {
		updates["completed_at"] = now
	}
	if totalCost != nil {
		updates["total_cost"] = *totalCost
	}
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &domain.InvalidTransitionError{From: current.Status, To: to}
	}
	return r.GetByID(ctx, id)
}

// AttachReview persists a rating guarded on the completed status, so a
// concurrent transition away from completed cannot interleave.
func (r *BookingRepository) AttachReview(ctx context.Context, id string, rating int, review string, now time.Time) (*domain.Booking, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	updates := map[string]any{
		"rating":     rating,
		"updated_at": now,
	}
	if review != "" {
		updates["review"] = review
	}
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND status = ?", id, string(domain.StatusCompleted)).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidState
	}
	return r.GetByID(ctx, id)
}

func (r *BookingRepository) CountByStatus(ctx context.Context) (map[domain.BookingStatus]int64, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	type row struct {
		Status string
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.BookingStatus]int64, len(rows))
	for _, entry := range rows {
		counts[domain.BookingStatus(entry.Status)] = entry.Total
	}
	return counts, nil
}

func fromDomain(booking *domain.Booking) BookingModel {
	return BookingModel{
		ID:            booking.ID,
		BookingNumber: booking.BookingNumber,
		ServiceType:   string(booking.ServiceType),
		Priority:      string(booking.Priority),
		Description:   booking.Description,
		ContactName:   booking.Contact.Name,
		ContactPhone:  booking.Contact.Phone,
		ContactAddr:   booking.Contact.Address,
		ScheduledTime: booking.ScheduledTime,
		Status:        string(booking.Status),
		TotalCost:     booking.TotalCost,
		Rating:        booking.Rating,
		Review:        booking.Review,
		CreatedAt:     booking.CreatedAt,
		UpdatedAt:     booking.UpdatedAt,
		CompletedAt:   booking.CompletedAt,
	}
}

func toDomain(model BookingModel) *domain.Booking {
	return &domain.Booking{
		ID:            model.ID,
		BookingNumber: model.BookingNumber,
		ServiceType:   domain.ServiceType(model.ServiceType),
		Priority:      domain.Priority(model.Priority),
		Description:   model.Description,
		Contact: domain.ContactInfo{
			Name:    model.ContactName,
			Phone:   model.ContactPhone,
			Address: model.ContactAddr,
		},
		ScheduledTime: model.ScheduledTime,
		Status:        domain.BookingStatus(model.Status),
		TotalCost:     model.TotalCost,
		Rating:        model.Rating,
		Review:        model.Review,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
		CompletedAt:   model.CompletedAt,
	}
}
