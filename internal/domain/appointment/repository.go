package appointment

import (
	"context"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
)

// Registry is the only stateful collaborator of the scheduling core.
// Storage failures are reported wrapped in ErrRegistryUnavailable.
type Registry interface {
	// -------- Reads --------
	AppointmentsForDate(ctx context.Context, date calendar.Date) ([]models.Appointment, error)

	// ActiveAppointmentForPatient returns nil, nil when the patient holds no
	// booked appointment.
	ActiveAppointmentForPatient(ctx context.Context, patientKey string) (*models.Appointment, error)

	Get(ctx context.Context, id string) (*models.Appointment, error)

	ListForRange(ctx context.Context, from, to calendar.Date) ([]models.Appointment, error)

	// -------- Writes --------
	Insert(ctx context.Context, ap *models.Appointment) error

	// Update loads the row, applies mutate and persists the result. An error
	// from mutate aborts the update and is returned as-is.
	Update(ctx context.Context, id string, mutate func(ap *models.Appointment) error) (*models.Appointment, error)

	// -------- Commit unit --------

	// Atomically runs fn as one indivisible read-check-write unit. Callers
	// that share any key are serialised; fn must use the Registry it is
	// handed.
	Atomically(ctx context.Context, keys []string, fn func(ctx context.Context, reg Registry) error) error
}

func DateKey(d calendar.Date) string {
	return "date:" + d.String()
}

func PatientKey(key string) string {
	return "patient:" + key
}
