package appointment

import "strings"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusBooked    Status = "booked"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusBooked, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", Invalid("status", "must be one of booked, completed, cancelled")
	}
}

// ===============================
// Transitions
// ===============================

// CanTransition allows booked -> completed, booked -> cancelled and
// booked -> booked (reschedule). Nothing leaves a terminal state.
func CanTransition(from, to Status) error {
	if from != StatusBooked {
		return &InvalidTransitionError{From: from, To: to}
	}
	switch to {
	case StatusBooked, StatusCompleted, StatusCancelled:
		return nil
	}
	return &InvalidTransitionError{From: from, To: to}
}

func InitialStatus() Status {
	return StatusBooked
}

// ===============================
// Cancellation reasons
// ===============================

type CancellationReason string

const (
	ReasonPatientRequest     CancellationReason = "patient_request"
	ReasonClinicRequest      CancellationReason = "clinic_request"
	ReasonDentistUnavailable CancellationReason = "dentist_unavailable"
	ReasonNoShow             CancellationReason = "no_show"
	ReasonOther              CancellationReason = "other"
)

// ParseCancellationReason defaults an empty reason to "other".
func ParseCancellationReason(s string) (CancellationReason, error) {
	r := CancellationReason(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case "":
		return ReasonOther, nil
	case ReasonPatientRequest, ReasonClinicRequest, ReasonDentistUnavailable, ReasonNoShow, ReasonOther:
		return r, nil
	}
	return "", Invalid("reason", "unknown cancellation reason")
}
