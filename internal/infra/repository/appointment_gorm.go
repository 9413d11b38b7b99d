package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
)

// Constraint names created by db.NewDB.
const (
	ConstraintActivePatient = "uniq_appointments_active_patient"
	ConstraintNoOverlap     = "excl_appointments_booked_overlap"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// --------------------------------------------------
// Reads
// --------------------------------------------------

func (r *AppointmentGormRepository) AppointmentsForDate(
	ctx context.Context,
	date calendar.Date,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Order("start_minute ASC, id ASC").
		Find(&apps).Error; err != nil {
		return nil, classify("list appointments for date", err)
	}

	return apps, nil
}

func (r *AppointmentGormRepository) ListForRange(
	ctx context.Context,
	from calendar.Date,
	to calendar.Date,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC, start_minute ASC, id ASC").
		Find(&apps).Error; err != nil {
		return nil, classify("list appointments for range", err)
	}

	return apps, nil
}

func (r *AppointmentGormRepository) ActiveAppointmentForPatient(
	ctx context.Context,
	patientKey string,
) (*models.Appointment, error) {

	var ap models.Appointment
	err := r.db.WithContext(ctx).
		Where("patient_key = ? AND status = ?", patientKey, string(domain.StatusBooked)).
		First(&ap).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find active appointment", err)
	}

	return &ap, nil
}

func (r *AppointmentGormRepository) Get(ctx context.Context, id string) (*models.Appointment, error) {
	// the column is uuid; anything else can never match
	if uuid.Validate(id) != nil {
		return nil, domain.ErrNotFound
	}

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		First(&ap, "id = ?", id).Error; err != nil {
		return nil, classify("get appointment", err)
	}

	return &ap, nil
}

// --------------------------------------------------
// Writes
// --------------------------------------------------

func (r *AppointmentGormRepository) Insert(ctx context.Context, ap *models.Appointment) error {
	if err := r.db.WithContext(ctx).Create(ap).Error; err != nil {
		return classify("insert appointment", err)
	}
	return nil
}

func (r *AppointmentGormRepository) Update(
	ctx context.Context,
	id string,
	mutate func(ap *models.Appointment) error,
) (*models.Appointment, error) {

	if uuid.Validate(id) != nil {
		return nil, domain.ErrNotFound
	}

	var ap models.Appointment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ap, "id = ?", id).Error; err != nil {
			return err
		}

		if err := mutate(&ap); err != nil {
			return err
		}
		ap.ID = id

		return tx.Save(&ap).Error
	})
	if err != nil {
		return nil, classify("update appointment", err)
	}

	return &ap, nil
}

// --------------------------------------------------
// Commit unit
// --------------------------------------------------

// Atomically opens a transaction and takes a transaction-scoped advisory
// lock per key, in sorted order, before running fn.
func (r *AppointmentGormRepository) Atomically(
	ctx context.Context,
	keys []string,
	fn func(ctx context.Context, reg domain.Registry) error,
) error {

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range sorted {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
				return domain.Unavailable("acquire advisory lock", err)
			}
		}
		return fn(ctx, &AppointmentGormRepository{db: tx})
	})
	if err != nil {
		return classify("commit", err)
	}
	return nil
}

// --------------------------------------------------
// Error mapping
// --------------------------------------------------

// classify turns storage errors into domain errors. Domain errors already
// produced by callers pass through untouched.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrDuplicateActiveBooking),
		errors.Is(err, domain.ErrSlotConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrRegistryUnavailable):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == ConstraintActivePatient {
				return &domain.DuplicateActiveBookingError{}
			}
		case pgExclusionViolation:
			return &domain.SlotConflictError{Reason: "window overlaps a booked appointment"}
		}
	}

	return domain.Unavailable(op, err)
}

// Compile-time check
var _ domain.Registry = (*AppointmentGormRepository)(nil)
