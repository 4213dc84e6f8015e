package http

import (
	"net/http"
	"strconv"
	"time"

	"fieldserve/internal/domain"
	"fieldserve/internal/usecase"

	"github.com/gin-gonic/gin"
)

type contactPayload struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type createBookingRequest struct {
	ServiceType   string         `json:"service_type"`
	Priority      string         `json:"priority"`
	Description   string         `json:"description"`
	Contact       contactPayload `json:"contact"`
	ScheduledTime time.Time      `json:"scheduled_time"`
}

type updateStatusRequest struct {
	Status    string   `json:"status"`
	TotalCost *float64 `json:"total_cost,omitempty"`
}

type reviewRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review,omitempty"`
}

type bookingResponse struct {
	ID            string         `json:"id"`
	BookingNumber string         `json:"booking_number"`
	ServiceType   string         `json:"service_type"`
	Priority      string         `json:"priority"`
	Description   string         `json:"description"`
	Contact       contactPayload `json:"contact"`
	ScheduledTime time.Time      `json:"scheduled_time"`
	Status        string         `json:"status"`
	TotalCost     *float64       `json:"total_cost,omitempty"`
	Rating        *int           `json:"rating,omitempty"`
	Review        *string        `json:"review,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

type listBookingsResponse struct {
	Bookings []bookingResponse `json:"bookings"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type adminBookingsResponse struct {
	listBookingsResponse
	StatusCounts map[string]int64 `json:"status_counts"`
}

func (s *Server) handleCreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, domain.NewValidationError("", "invalid json body"))
		return
	}
	principal, _ := getPrincipal(c)
	booking, err := s.bookings.Create(c.Request.Context(), principal.Subject, usecase.CreateBookingInput{
		ServiceType: domain.ServiceType(req.ServiceType),
		Priority:    domain.Priority(req.Priority),
		Description: req.Description,
		Contact: domain.ContactInfo{
			Name:    req.Contact.Name,
			Phone:   req.Contact.Phone,
			Address: req.Contact.Address,
		},
		ScheduledTime: req.ScheduledTime,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(booking))
}

func (s *Server) handleListBookings(c *gin.Context) {
	filter := domain.BookingFilter{
		Status:      domain.BookingStatus(c.Query("status")),
		ServiceType: domain.ServiceType(c.Query("service_type")),
		Page:        queryInt(c, "page", 1),
		Limit:       queryInt(c, "limit", 20),
	}
	bookings, total, err := s.bookings.List(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListResponse(bookings, total, filter))
}

func (s *Server) handleGetBooking(c *gin.Context) {
	booking, err := s.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, domain.NewValidationError("", "invalid json body"))
		return
	}
	principal, _ := getPrincipal(c)
	booking, err := s.bookings.Transition(c.Request.Context(), principal.Subject, c.Param("id"), domain.BookingStatus(req.Status), req.TotalCost)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (s *Server) handleAttachReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, domain.NewValidationError("", "invalid json body"))
		return
	}
	booking, err := s.bookings.AttachReview(c.Request.Context(), c.Param("id"), req.Rating, req.Review)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (s *Server) handleAdminListBookings(c *gin.Context) {
	filter := domain.BookingFilter{
		Status:      domain.BookingStatus(c.Query("status")),
		ServiceType: domain.ServiceType(c.Query("service_type")),
		Page:        queryInt(c, "page", 1),
		Limit:       queryInt(c, "limit", 20),
	}
	bookings, total, err := s.bookings.List(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	counts, err := s.bookings.Stats(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	statusCounts := make(map[string]int64, len(counts))
	for status, total := range counts {
		statusCounts[string(status)] = total
	}
	c.JSON(http.StatusOK, adminBookingsResponse{
		listBookingsResponse: toListResponse(bookings, total, filter),
		StatusCounts:         statusCounts,
	})
}

// Admin delete cancels the booking; records are never removed.
func (s *Server) handleAdminCancelBooking(c *gin.Context) {
	principal, _ := getPrincipal(c)
	booking, err := s.bookings.Transition(c.Request.Context(), principal.Subject, c.Param("id"), domain.StatusCancelled, nil)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func toBookingResponse(booking *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:            booking.ID,
		BookingNumber: booking.BookingNumber,
		ServiceType:   string(booking.ServiceType),
		Priority:      string(booking.Priority),
		Description:   booking.Description,
		Contact: contactPayload{
			Name:    booking.Contact.Name,
			Phone:   booking.Contact.Phone,
			Address: booking.Contact.Address,
		},
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

func toListResponse(bookings []domain.Booking, total int64, filter domain.BookingFilter) listBookingsResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	return listBookingsResponse{
		Bookings: out,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		return def
	}
	return parsed
}
