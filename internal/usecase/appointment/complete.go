package appointment

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/SysArcDCMS/dcms-scheduler/internal/audit"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
	"github.com/SysArcDCMS/dcms-scheduler/internal/observability"
)

type CompleteAppointment struct {
	deps Deps
}

func NewCompleteAppointment(deps Deps) *CompleteAppointment {
	return &CompleteAppointment{deps: deps.withDefaults()}
}

func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	appointmentID string,
	completion models.Completion,
	actor string,
) (ap *models.Appointment, err error) {

	ctx, span := observability.StartSpan(ctx, "appointment.complete",
		attribute.String("appointment_id", appointmentID),
	)
	defer func() {
		uc.deps.Metrics.RecordBooking(ctx, "complete", outcome(err))
		observability.EndSpan(span, err)
	}()

	now := uc.deps.now()

	ap, err = uc.deps.Registry.Update(ctx, appointmentID, func(row *models.Appointment) error {
		return domain.Complete(row, completion, now)
	})
	if err != nil {
		return nil, err
	}

	uc.deps.invalidate(ctx, ap.Date)

	uc.deps.dispatch(audit.Event{
		Actor:    actor,
		Action:   audit.ActionCompleted,
		EntityID: ap.ID,
		Metadata: ap.Completion,
	})

	return ap, nil
}
