package appointment

import (
	"context"
	"fmt"
)

// CheckSingleActiveBooking rejects a new booking while the patient still
// holds a booked appointment. It never writes.
func CheckSingleActiveBooking(ctx context.Context, reg Registry, patientKey string) error {
	existing, err := reg.ActiveAppointmentForPatient(ctx, patientKey)
	if err != nil {
		return fmt.Errorf("lookup active appointment: %w", err)
	}
	if existing != nil && Status(existing.Status) == StatusBooked {
		return &DuplicateActiveBookingError{Existing: existing}
	}
	return nil
}
