package appointment

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/SysArcDCMS/dcms-scheduler/internal/audit"
	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
	"github.com/SysArcDCMS/dcms-scheduler/internal/observability"
)

type RescheduleAppointmentInput struct {
	AppointmentID string
	Date          calendar.Date
	Start         calendar.TimeOfDay
	Actor         string
}

type RescheduleAppointment struct {
	deps Deps
}

func NewRescheduleAppointment(deps Deps) *RescheduleAppointment {
	return &RescheduleAppointment{deps: deps.withDefaults()}
}

// Execute moves a booked appointment, keeping its footprint. The old and
// new dates and the patient are all locked for the duration of the commit.
func (uc *RescheduleAppointment) Execute(
	ctx context.Context,
	in RescheduleAppointmentInput,
) (ap *models.Appointment, err error) {

	ctx, span := observability.StartSpan(ctx, "appointment.reschedule",
		attribute.String("appointment_id", in.AppointmentID),
		attribute.String("date", in.Date.String()),
	)
	defer func() {
		uc.deps.Metrics.RecordBooking(ctx, "reschedule", outcome(err))
		observability.EndSpan(span, err)
	}()

	current, err := uc.deps.Registry.Get(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if err := domain.CanTransition(domain.Status(current.Status), domain.StatusBooked); err != nil {
		return nil, err
	}

	now := uc.deps.now()
	if err := uc.deps.validateWindow(in.Date, in.Start, domain.FootprintOf(current), now); err != nil {
		return nil, err
	}

	keys := []string{
		domain.DateKey(current.Date),
		domain.DateKey(in.Date),
		domain.PatientKey(current.PatientKey),
	}

	err = uc.deps.commit(ctx, keys, func(ctx context.Context, reg domain.Registry) error {
		fresh, err := reg.Get(ctx, in.AppointmentID)
		if err != nil {
			return err
		}
		if err := domain.CanTransition(domain.Status(fresh.Status), domain.StatusBooked); err != nil {
			return err
		}

		existing, err := reg.AppointmentsForDate(ctx, in.Date)
		if err != nil {
			return err
		}

		target := calendar.NewInterval(in.Start, domain.FootprintOf(fresh).Minutes())
		occupied := domain.Occupancies(existing, uc.deps.Hours, fresh.ID)
		if err := domain.CheckConflict(target, occupied); err != nil {
			return err
		}

		ap, err = reg.Update(ctx, fresh.ID, func(row *models.Appointment) error {
			return domain.Reschedule(row, in.Date, in.Start, now)
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.deps.invalidate(ctx, current.Date, ap.Date)

	uc.deps.dispatch(audit.Event{
		Actor:    in.Actor,
		Action:   audit.ActionRescheduled,
		EntityID: ap.ID,
		Metadata: map[string]any{
			"from_date":       current.Date.String(),
			"from_start_time": current.StartTime.String(),
			"to_date":         ap.Date.String(),
			"to_start_time":   ap.StartTime.String(),
		},
	})

	observability.LoggerFromContext(ctx).Info().
		Str("appointment_id", ap.ID).
		Str("date", ap.Date.String()).
		Str("start_time", ap.StartTime.String()).
		Msg("appointment rescheduled")

	return ap, nil
}
