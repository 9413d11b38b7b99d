package appointment

import (
	"errors"
	"fmt"

	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrDuplicateActiveBooking = errors.New("patient already has an active appointment")
	ErrSlotConflict           = errors.New("time slot is not available")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrNotFound               = errors.New("appointment not found")
	ErrRegistryUnavailable    = errors.New("appointment registry unavailable")
)

type ValidationError struct {
	Field  string
	Reason string
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DuplicateActiveBookingError carries the appointment that blocks the new
// booking so callers can point the patient at it.
type DuplicateActiveBookingError struct {
	Existing *models.Appointment
}

func (e *DuplicateActiveBookingError) Error() string {
	if e.Existing == nil {
		return ErrDuplicateActiveBooking.Error()
	}
	return fmt.Sprintf("%s (%s on %s at %s)",
		ErrDuplicateActiveBooking, e.Existing.ID, e.Existing.Date, e.Existing.StartTime)
}

func (e *DuplicateActiveBookingError) Is(target error) bool {
	return target == ErrDuplicateActiveBooking
}

type SlotConflictError struct {
	Reason string
	// AppointmentID is empty when the blocking window is not an appointment.
	AppointmentID string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSlotConflict, e.Reason)
}

func (e *SlotConflictError) Is(target error) bool { return target == ErrSlotConflict }

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// Unavailable marks a storage failure. The cause stays reachable through
// errors.Is / errors.As.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrRegistryUnavailable, err)
}
