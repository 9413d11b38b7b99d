package appointment

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/SysArcDCMS/dcms-scheduler/internal/audit"
	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
	"github.com/SysArcDCMS/dcms-scheduler/internal/observability"
	"github.com/SysArcDCMS/dcms-scheduler/internal/ratelimit"
	"github.com/SysArcDCMS/dcms-scheduler/internal/validators"
)

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	PatientKey  string
	ServiceName string

	Date      calendar.Date
	Start     calendar.TimeOfDay
	Footprint domain.Footprint

	Actor string
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	deps Deps
}

func NewCreateAppointment(deps Deps) *CreateAppointment {
	return &CreateAppointment{deps: deps.withDefaults()}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (ap *models.Appointment, err error) {

	ctx, span := observability.StartSpan(ctx, "appointment.create",
		attribute.String("date", in.Date.String()),
		attribute.String("start_time", in.Start.String()),
	)
	defer func() {
		uc.deps.Metrics.RecordBooking(ctx, "create", outcome(err))
		observability.EndSpan(span, err)
	}()

	// --------------------------------------------------
	// Input
	// --------------------------------------------------
	patientKey, ok := validators.NormalizePatientKey(in.PatientKey)
	if !ok {
		return nil, domain.Invalid("patient_key", "is required")
	}

	now := uc.deps.now()
	if err := uc.deps.validateWindow(in.Date, in.Start, in.Footprint, now); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Throttle
	// --------------------------------------------------
	if uc.deps.Limiter != nil {
		allowed, err := uc.deps.Limiter.Allow(ctx, patientKey)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("booking rate limiter unavailable")
		} else if !allowed {
			return nil, ratelimit.ErrLimited
		}
	}

	// --------------------------------------------------
	// Commit
	// --------------------------------------------------
	ap = domain.NewBooking(domain.NewBookingInput{
		PatientKey:  patientKey,
		ServiceName: in.ServiceName,
		Date:        in.Date,
		Start:       in.Start,
		Footprint:   in.Footprint,
	}, now)

	keys := []string{domain.DateKey(in.Date), domain.PatientKey(patientKey)}

	err = uc.deps.commit(ctx, keys, func(ctx context.Context, reg domain.Registry) error {
		if err := domain.CheckSingleActiveBooking(ctx, reg, patientKey); err != nil {
			return err
		}

		existing, err := reg.AppointmentsForDate(ctx, in.Date)
		if err != nil {
			return err
		}

		occupied := domain.Occupancies(existing, uc.deps.Hours, "")
		if err := domain.CheckConflict(domain.OccupiedInterval(ap), occupied); err != nil {
			return err
		}

		return reg.Insert(ctx, ap)
	})
	if err != nil {
		return nil, uc.explainDuplicate(ctx, patientKey, err)
	}

	// --------------------------------------------------
	// After commit
	// --------------------------------------------------
	uc.deps.invalidate(ctx, ap.Date)

	uc.deps.dispatch(audit.Event{
		Actor:    in.Actor,
		Action:   audit.ActionBooked,
		EntityID: ap.ID,
		Metadata: map[string]any{
			"patient_key": ap.PatientKey,
			"date":        ap.Date.String(),
			"start_time":  ap.StartTime.String(),
			"end_time":    ap.EndTime.String(),
		},
	})

	observability.LoggerFromContext(ctx).Info().
		Str("appointment_id", ap.ID).
		Str("date", ap.Date.String()).
		Str("start_time", ap.StartTime.String()).
		Msg("appointment booked")

	return ap, nil
}

// explainDuplicate attaches the blocking appointment when the rejection came
// from the storage constraint rather than the guard.
func (uc *CreateAppointment) explainDuplicate(ctx context.Context, patientKey string, err error) error {
	var dup *domain.DuplicateActiveBookingError
	if !errors.As(err, &dup) || dup.Existing != nil {
		return err
	}

	existing, lookupErr := uc.deps.Registry.ActiveAppointmentForPatient(ctx, patientKey)
	if lookupErr == nil && existing != nil {
		dup.Existing = existing
	}
	return err
}
