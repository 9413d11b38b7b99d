package appointment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
)

// ===============================
// Domain Actions
// ===============================

type NewBookingInput struct {
	PatientKey  string
	ServiceName string
	Date        calendar.Date
	Start       calendar.TimeOfDay
	Footprint   Footprint
}

func NewBooking(in NewBookingInput, now time.Time) *models.Appointment {
	iv := calendar.NewInterval(in.Start, in.Footprint.Minutes())
	return &models.Appointment{
		ID:              uuid.NewString(),
		PatientKey:      in.PatientKey,
		ServiceName:     in.ServiceName,
		Date:            in.Date,
		StartTime:       iv.Start,
		EndTime:         iv.End,
		DurationMinutes: in.Footprint.DurationMinutes,
		BufferMinutes:   in.Footprint.BufferMinutes,
		Status:          string(InitialStatus()),
		CreatedAt:       now,
		UpdatedAt:       now,
		StatusUpdatedAt: now,
	}
}

func FootprintOf(ap *models.Appointment) Footprint {
	return Footprint{DurationMinutes: ap.DurationMinutes, BufferMinutes: ap.BufferMinutes}
}

// Reschedule moves a booked appointment. Conflict checks are the caller's
// job; this only enforces the state machine.
func Reschedule(ap *models.Appointment, date calendar.Date, start calendar.TimeOfDay, now time.Time) error {
	if err := CanTransition(Status(ap.Status), StatusBooked); err != nil {
		return err
	}

	iv := calendar.NewInterval(start, ap.DurationMinutes+ap.BufferMinutes)
	ap.Date = date
	ap.StartTime = iv.Start
	ap.EndTime = iv.End
	ap.UpdatedAt = now
	return nil
}

func Complete(ap *models.Appointment, completion models.Completion, now time.Time) error {
	if err := CanTransition(Status(ap.Status), StatusCompleted); err != nil {
		return err
	}

	services := make([]string, 0, len(completion.Services))
	for _, s := range completion.Services {
		if s = strings.TrimSpace(s); s != "" {
			services = append(services, s)
		}
	}
	if len(services) == 0 {
		return Invalid("completion", "at least one rendered service is required")
	}

	ap.Status = string(StatusCompleted)
	ap.Completion = &models.Completion{Services: services, Notes: strings.TrimSpace(completion.Notes)}
	ap.CompletedAt = &now
	ap.StatusUpdatedAt = now
	ap.UpdatedAt = now
	return nil
}

func Cancel(ap *models.Appointment, reason CancellationReason, note, by string, now time.Time) error {
	if err := CanTransition(Status(ap.Status), StatusCancelled); err != nil {
		return err
	}
	if reason == "" {
		reason = ReasonOther
	}

	ap.Status = string(StatusCancelled)
	ap.CancellationReason = string(reason)
	ap.CancellationNote = strings.TrimSpace(note)
	ap.CancelledBy = by
	ap.CancelledAt = &now
	ap.StatusUpdatedAt = now
	ap.UpdatedAt = now
	return nil
}
