package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
)

var testNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func testDate(t *testing.T, s string) calendar.Date {
	t.Helper()
	d, err := calendar.ParseDate(s)
	require.NoError(t, err)
	return d
}

func booking(t *testing.T, patient, date string, start calendar.TimeOfDay, minutes int) *models.Appointment {
	t.Helper()
	return domain.NewBooking(domain.NewBookingInput{
		PatientKey: patient,
		Date:       testDate(t, date),
		Start:      start,
		Footprint:  domain.Footprint{DurationMinutes: minutes},
	}, testNow)
}

func TestMemory_InsertAndRead(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentMemoryRepository()

	late := booking(t, "p1", "2026-10-15", calendar.NewTimeOfDay(14, 0), 30)
	early := booking(t, "p2", "2026-10-15", calendar.NewTimeOfDay(9, 0), 30)
	other := booking(t, "p3", "2026-10-16", calendar.NewTimeOfDay(9, 0), 30)
	for _, ap := range []*models.Appointment{late, early, other} {
		require.NoError(t, repo.Insert(ctx, ap))
	}

	day, err := repo.AppointmentsForDate(ctx, testDate(t, "2026-10-15"))
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, early.ID, day[0].ID)
	assert.Equal(t, late.ID, day[1].ID)

	all, err := repo.ListForRange(ctx, testDate(t, "2026-10-01"), testDate(t, "2026-10-31"))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := repo.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "p3", got.PatientKey)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	active, err := repo.ActiveAppointmentForPatient(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentMemoryRepository()

	ap := booking(t, "p1", "2026-10-15", calendar.NewTimeOfDay(9, 0), 30)
	require.NoError(t, repo.Insert(ctx, ap))
	ap.Status = string(domain.StatusCancelled)

	got, err := repo.Get(ctx, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusBooked), got.Status)
}

func TestMemory_EnforcesBackstops(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentMemoryRepository()

	first := booking(t, "p1", "2026-10-15", calendar.NewTimeOfDay(10, 0), 60)
	require.NoError(t, repo.Insert(ctx, first))

	err := repo.Insert(ctx, booking(t, "p1", "2026-10-20", calendar.NewTimeOfDay(10, 0), 60))
	assert.ErrorIs(t, err, domain.ErrDuplicateActiveBooking)

	err = repo.Insert(ctx, booking(t, "p2", "2026-10-15", calendar.NewTimeOfDay(10, 30), 60))
	assert.ErrorIs(t, err, domain.ErrSlotConflict)

	assert.NoError(t, repo.Insert(ctx, booking(t, "p2", "2026-10-15", calendar.NewTimeOfDay(11, 0), 60)))
}

func TestMemory_UpdateAbortsOnMutateError(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentMemoryRepository()

	ap := booking(t, "p1", "2026-10-15", calendar.NewTimeOfDay(10, 0), 60)
	require.NoError(t, repo.Insert(ctx, ap))

	boom := errors.New("boom")
	_, err := repo.Update(ctx, ap.ID, func(a *models.Appointment) error {
		a.Status = string(domain.StatusCancelled)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.Get(ctx, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusBooked), got.Status)

	_, err = repo.Update(ctx, "missing", func(*models.Appointment) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemory_ConcurrentCommitsSameWindow(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentMemoryRepository()
	hours := domain.DefaultBusinessHours()
	date := testDate(t, "2026-10-15")

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)

	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ap := booking(t, "patient-"+string(rune('a'+i)), "2026-10-15", calendar.NewTimeOfDay(10, 0), 60)

			err := repo.Atomically(ctx, []string{domain.DateKey(date)}, func(ctx context.Context, reg domain.Registry) error {
				existing, err := reg.AppointmentsForDate(ctx, date)
				if err != nil {
					return err
				}
				if err := domain.CheckConflict(domain.OccupiedInterval(ap), domain.Occupancies(existing, hours, "")); err != nil {
					return err
				}
				return reg.Insert(ctx, ap)
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrSlotConflict):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)

	day, err := repo.AppointmentsForDate(ctx, date)
	require.NoError(t, err)
	assert.Len(t, day, 1)
}

func TestMemory_AtomicallyHonoursCancelledContext(t *testing.T) {
	repo := NewAppointmentMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := repo.Atomically(ctx, nil, func(context.Context, domain.Registry) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrRegistryUnavailable)
	assert.False(t, called)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", gorm.ErrRecordNotFound, domain.ErrNotFound},
		{"active patient", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: ConstraintActivePatient}, domain.ErrDuplicateActiveBooking},
		{"overlap", &pgconn.PgError{Code: pgExclusionViolation, ConstraintName: ConstraintNoOverlap}, domain.ErrSlotConflict},
		{"other unique", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "appointments_pkey"}, domain.ErrRegistryUnavailable},
		{"connection", errors.New("dial tcp: connection refused"), domain.ErrRegistryUnavailable},
		{"domain passthrough", domain.Invalid("date", "bad"), domain.ErrValidation},
		{"transition passthrough", &domain.InvalidTransitionError{From: domain.StatusCancelled, To: domain.StatusBooked}, domain.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify("op", tt.err), tt.want)
		})
	}
}
