package apperrors

import "errors"

var (
	ErrFlightNotFound  = errors.New("flight not found")
	ErrSeatNotFound    = errors.New("seat not found")
	ErrSeatUnavailable = errors.New("seat unavailable")
	ErrLockNotOwned    = errors.New("seat lock not owned")
	ErrLockExpired     = errors.New("seat lock expired")

	ErrInvalidFlightStatus = errors.New("invalid flight status")

	ErrBookingNotFound      = errors.New("booking not found")
	ErrInvalidBookingStatus = errors.New("invalid booking status transition")
	ErrPNRGeneration        = errors.New("could not generate a unique pnr")

	ErrInternalServerError = errors.New("internal server error")
)
