package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared by repositories, services and the HTTP layer.
var (
	ErrNotFound                   = errors.New("not found")
	ErrForbidden                  = errors.New("forbidden")
	ErrInvalidInput               = errors.New("invalid input")
	ErrDuplicateRegistration      = errors.New("an active registration already exists")
	ErrCapacityExceeded           = errors.New("capacity exceeded")
	ErrInsufficientCapacity       = errors.New("insufficient capacity")
	ErrInvalidOrUnregisteredToken = errors.New("invalid or unregistered ticket")
	ErrAlreadyCheckedIn           = errors.New("already checked in")
	ErrPaymentVerificationFailed  = errors.New("payment verification failed")
)

// AlreadyCheckedInError reports the timestamp of the check-in that already happened.
// errors.Is(err, ErrAlreadyCheckedIn) holds for it.
type AlreadyCheckedInError struct {
	CheckedInAt time.Time
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("already checked in at %s", e.CheckedInAt.UTC().Format(time.RFC3339))
}

func (e *AlreadyCheckedInError) Is(target error) bool {
	return target == ErrAlreadyCheckedIn
}

// InvalidInputf returns an error wrapping ErrInvalidInput with a readable message.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
