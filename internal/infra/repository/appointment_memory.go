package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
)

// AppointmentMemoryRepository keeps appointments in process memory. It
// enforces the same uniqueness and non-overlap rules the Postgres schema
// does, so it can stand in for it in tests and single-instance setups.
type AppointmentMemoryRepository struct {
	commit sync.Mutex

	mu   sync.RWMutex
	byID map[string]models.Appointment
}

func NewAppointmentMemoryRepository() *AppointmentMemoryRepository {
	return &AppointmentMemoryRepository{byID: make(map[string]models.Appointment)}
}

func clone(ap models.Appointment) models.Appointment {
	if ap.Completion != nil {
		c := *ap.Completion
		c.Services = append([]string(nil), c.Services...)
		ap.Completion = &c
	}
	return ap
}

func sortByStart(aps []models.Appointment) {
	sort.Slice(aps, func(i, j int) bool {
		if c := aps[i].Date.Compare(aps[j].Date); c != 0 {
			return c < 0
		}
		if aps[i].StartTime != aps[j].StartTime {
			return aps[i].StartTime < aps[j].StartTime
		}
		return aps[i].ID < aps[j].ID
	})
}

// --------------------------------------------------
// Reads
// --------------------------------------------------

func (r *AppointmentMemoryRepository) AppointmentsForDate(
	ctx context.Context,
	date calendar.Date,
) ([]models.Appointment, error) {

	return r.ListForRange(ctx, date, date)
}

func (r *AppointmentMemoryRepository) ListForRange(
	_ context.Context,
	from calendar.Date,
	to calendar.Date,
) ([]models.Appointment, error) {

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Appointment{}
	for _, ap := range r.byID {
		if ap.Date.Before(from) || ap.Date.After(to) {
			continue
		}
		out = append(out, clone(ap))
	}
	sortByStart(out)
	return out, nil
}

func (r *AppointmentMemoryRepository) ActiveAppointmentForPatient(
	_ context.Context,
	patientKey string,
) (*models.Appointment, error) {

	r.mu.RLock()
	defer r.mu.RUnlock()

	if ap, ok := r.activeFor(patientKey, ""); ok {
		return &ap, nil
	}
	return nil, nil
}

func (r *AppointmentMemoryRepository) Get(_ context.Context, id string) (*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ap, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ap = clone(ap)
	return &ap, nil
}

// --------------------------------------------------
// Writes
// --------------------------------------------------

func (r *AppointmentMemoryRepository) Insert(_ context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[ap.ID]; exists {
		return domain.Invalid("id", "appointment already exists")
	}
	if err := r.checkConstraints(ap); err != nil {
		return err
	}

	r.byID[ap.ID] = clone(*ap)
	return nil
}

func (r *AppointmentMemoryRepository) Update(
	_ context.Context,
	id string,
	mutate func(ap *models.Appointment) error,
) (*models.Appointment, error) {

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	next := clone(current)
	if err := mutate(&next); err != nil {
		return nil, err
	}
	next.ID = id

	if err := r.checkConstraints(&next); err != nil {
		return nil, err
	}

	r.byID[id] = clone(next)
	return &next, nil
}

// --------------------------------------------------
// Commit unit
// --------------------------------------------------

// Atomically serialises every commit through one mutex; keys are accepted
// for interface parity.
func (r *AppointmentMemoryRepository) Atomically(
	ctx context.Context,
	_ []string,
	fn func(ctx context.Context, reg domain.Registry) error,
) error {

	r.commit.Lock()
	defer r.commit.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.Unavailable("begin commit", err)
	}
	return fn(ctx, r)
}

// --------------------------------------------------
// Constraints (mirror the database backstops)
// --------------------------------------------------

func (r *AppointmentMemoryRepository) activeFor(patientKey, excludeID string) (models.Appointment, bool) {
	for _, ap := range r.byID {
		if ap.ID != excludeID && ap.PatientKey == patientKey && domain.Status(ap.Status) == domain.StatusBooked {
			return clone(ap), true
		}
	}
	return models.Appointment{}, false
}

func (r *AppointmentMemoryRepository) checkConstraints(ap *models.Appointment) error {
	if domain.Status(ap.Status) != domain.StatusBooked {
		return nil
	}

	if existing, ok := r.activeFor(ap.PatientKey, ap.ID); ok {
		return &domain.DuplicateActiveBookingError{Existing: &existing}
	}

	window := domain.OccupiedInterval(ap)
	for _, other := range r.byID {
		if other.ID == ap.ID || other.Date != ap.Date || domain.Status(other.Status) != domain.StatusBooked {
			continue
		}
		if window.Overlaps(domain.OccupiedInterval(&other)) {
			return &domain.SlotConflictError{
				Reason:        "conflicts with booked appointment at " + other.StartTime.String(),
				AppointmentID: other.ID,
			}
		}
	}
	return nil
}

// Compile-time check
var _ domain.Registry = (*AppointmentMemoryRepository)(nil)
