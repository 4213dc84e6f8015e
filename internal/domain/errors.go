package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrRateLimited     = errors.New("rate limited")
	ErrInvalidState    = errors.New("invalid state")
	ErrDuplicate       = errors.New("duplicate resource")
	ErrNotFound        = errors.New("not found")
)

// InvalidTransitionError reports a booking status change outside the
// lifecycle graph, carrying the attempted pair.
type InvalidTransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

func IsInvalidTransition(err error) (*InvalidTransitionError, bool) {
	var transition *InvalidTransitionError
	if errors.As(err, &transition) {
		return transition, true
	}
	return nil, false
}

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation, true
	}
	return nil, false
}
