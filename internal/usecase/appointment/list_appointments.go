package appointment

import (
	"context"
	"time"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
)

type GetAppointment struct {
	repo domain.Registry
}

func NewGetAppointment(repo domain.Registry) *GetAppointment {
	return &GetAppointment{repo: repo}
}

func (uc *GetAppointment) Execute(ctx context.Context, id string) (*models.Appointment, error) {
	if id == "" {
		return nil, domain.Invalid("id", "is required")
	}
	return uc.repo.Get(ctx, id)
}

// --------------------------------------------------

type ListAppointmentsByDate struct {
	repo domain.Registry
}

func NewListAppointmentsByDate(repo domain.Registry) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{repo: repo}
}

func (uc *ListAppointmentsByDate) Execute(
	ctx context.Context,
	date calendar.Date,
) ([]models.Appointment, error) {

	if date.IsZero() {
		return nil, domain.Invalid("date", "is required")
	}
	return uc.repo.AppointmentsForDate(ctx, date)
}

// --------------------------------------------------

type ListAppointmentsByMonth struct {
	repo domain.Registry
}

func NewListAppointmentsByMonth(repo domain.Registry) *ListAppointmentsByMonth {
	return &ListAppointmentsByMonth{repo: repo}
}

func (uc *ListAppointmentsByMonth) Execute(
	ctx context.Context,
	year int,
	month int,
) ([]models.Appointment, error) {

	if year < 1 || year > 9999 {
		return nil, domain.Invalid("year", "out of range")
	}
	if month < 1 || month > 12 {
		return nil, domain.Invalid("month", "must be between 1 and 12")
	}

	start := calendar.Date{Year: year, Month: time.Month(month), Day: 1}
	end := start.AddDays(32)
	end = calendar.Date{Year: end.Year, Month: end.Month, Day: 1}.AddDays(-1)

	return uc.repo.ListForRange(ctx, start, end)
}
