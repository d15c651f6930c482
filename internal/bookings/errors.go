package bookings

import "errors"

var (
	ErrBookingNotFound      = errors.New("booking not found")
	ErrNotCancellable       = errors.New("booking cannot be cancelled")
	ErrInvalidTransition    = errors.New("invalid booking status transition")
	ErrRateChanged          = errors.New("room rate total does not match nightly rate, taxes and fees")
	ErrMissingIdempotency   = errors.New("idempotency key is required")
	ErrDuplicateBooking     = errors.New("booking with this idempotency key already exists")
	ErrAccessDenied         = errors.New("booking belongs to another user")
	ErrIncompleteSubmission = errors.New("submission is missing hotel, room or guest details")
)
