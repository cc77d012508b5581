package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrBookingNotFound       = fmt.Errorf("booking %w", ErrNotFound)
	ErrWaitlistEntryNotFound = fmt.Errorf("waitlist entry %w", ErrNotFound)

	ErrSessionNotFound     = errors.New("class session not found")
	ErrSessionNotAvailable = errors.New("class session is not available for booking")
	ErrSessionHasBookings  = errors.New("class session still has active bookings")
	ErrSessionNotStarted   = errors.New("class session has not started yet")
	ErrAlreadyBooked       = errors.New("user already has an active booking for this session")
	ErrAlreadyWaitlisted   = errors.New("user is already on the waitlist for this session")
	ErrAlreadyCancelled    = errors.New("already cancelled")
	ErrAlreadyProcessed    = errors.New("waitlist entry already processed")
	ErrBookingImmutable    = errors.New("booking is completed and can no longer change")
	ErrUnauthorized        = errors.New("not allowed to act on this resource")
	ErrInvalidStatus       = errors.New("invalid status")
)
