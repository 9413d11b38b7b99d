package appointment

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/SysArcDCMS/dcms-scheduler/internal/audit"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
	"github.com/SysArcDCMS/dcms-scheduler/internal/observability"
)

type CancelAppointmentInput struct {
	AppointmentID string
	Reason        string
	Note          string
	Actor         string
}

type CancelAppointment struct {
	deps Deps
}

func NewCancelAppointment(deps Deps) *CancelAppointment {
	return &CancelAppointment{deps: deps.withDefaults()}
}

// Execute cancels a booked appointment and frees its window. An empty
// reason is recorded as "other".
func (uc *CancelAppointment) Execute(
	ctx context.Context,
	in CancelAppointmentInput,
) (ap *models.Appointment, err error) {

	ctx, span := observability.StartSpan(ctx, "appointment.cancel",
		attribute.String("appointment_id", in.AppointmentID),
	)
	defer func() {
		uc.deps.Metrics.RecordBooking(ctx, "cancel", outcome(err))
		observability.EndSpan(span, err)
	}()

	reason, err := domain.ParseCancellationReason(in.Reason)
	if err != nil {
		return nil, err
	}

	now := uc.deps.now()

	ap, err = uc.deps.Registry.Update(ctx, in.AppointmentID, func(row *models.Appointment) error {
		return domain.Cancel(row, reason, in.Note, in.Actor, now)
	})
	if err != nil {
		return nil, err
	}

	uc.deps.invalidate(ctx, ap.Date)

	uc.deps.dispatch(audit.Event{
		Actor:    in.Actor,
		Action:   audit.ActionCancelled,
		EntityID: ap.ID,
		Metadata: map[string]any{
			"reason": ap.CancellationReason,
			"date":   ap.Date.String(),
		},
	})

	observability.LoggerFromContext(ctx).Info().
		Str("appointment_id", ap.ID).
		Str("reason", ap.CancellationReason).
		Msg("appointment cancelled")

	return ap, nil
}
