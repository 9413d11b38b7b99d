package handlers

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/dto"
	"github.com/SysArcDCMS/dcms-scheduler/internal/httperr"
	"github.com/SysArcDCMS/dcms-scheduler/internal/httpresp"
	"github.com/SysArcDCMS/dcms-scheduler/internal/middleware"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
	ucAppointment "github.com/SysArcDCMS/dcms-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	create      *ucAppointment.CreateAppointment
	reschedule  *ucAppointment.RescheduleAppointment
	complete    *ucAppointment.CompleteAppointment
	cancel      *ucAppointment.CancelAppointment
	get         *ucAppointment.GetAppointment
	listByDate  *ucAppointment.ListAppointmentsByDate
	listByMonth *ucAppointment.ListAppointmentsByMonth
}

func NewAppointmentHandler(
	create *ucAppointment.CreateAppointment,
	reschedule *ucAppointment.RescheduleAppointment,
	complete *ucAppointment.CompleteAppointment,
	cancel *ucAppointment.CancelAppointment,
	get *ucAppointment.GetAppointment,
	listByDate *ucAppointment.ListAppointmentsByDate,
	listByMonth *ucAppointment.ListAppointmentsByMonth,
) *AppointmentHandler {
	return &AppointmentHandler{
		create:      create,
		reschedule:  reschedule,
		complete:    complete,
		cancel:      cancel,
		get:         get,
		listByDate:  listByDate,
		listByMonth: listByMonth,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	PatientKey      string `json:"patient_key" binding:"required"`
	ServiceName     string `json:"service_name" binding:"max=100"`
	Date            string `json:"date" binding:"required"`
	StartTime       string `json:"start_time" binding:"required"`
	DurationMinutes int    `json:"duration_minutes"`
	BufferMinutes   int    `json:"buffer_minutes"`
}

type RescheduleAppointmentRequest struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
}

type CompletionRequest struct {
	Services []string `json:"services"`
	Notes    string   `json:"notes" binding:"max=2000"`
}

type UpdateStatusRequest struct {
	Status     string             `json:"status" binding:"required"`
	Completion *CompletionRequest `json:"completion"`
	Reason     string             `json:"reason"`
	Note       string             `json:"note" binding:"max=255"`
}

// roles allowed to close a visit
var clinicianRoles = []string{middleware.RoleStaff, middleware.RoleDentist, middleware.RoleAdmin}

// ======================================================
// CREATE
// ======================================================

// POST /api/appointments
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Request body is invalid.")
		return
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	start, err := parseTime("start_time", req.StartTime)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	ap, err := h.create.Execute(c.Request.Context(), ucAppointment.CreateAppointmentInput{
		PatientKey:  req.PatientKey,
		ServiceName: strings.TrimSpace(req.ServiceName),
		Date:        date,
		Start:       start,
		Footprint: domain.Footprint{
			DurationMinutes: req.DurationMinutes,
			BufferMinutes:   req.BufferMinutes,
		},
		Actor: middleware.ActorFrom(c).String(),
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.Created(c, ap)
}

// ======================================================
// READ
// ======================================================

// GET /api/appointments/:id
func (h *AppointmentHandler) Get(c *gin.Context) {
	ap, err := h.get.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, ap)
}

// GET /api/appointments?date=YYYY-MM-DD
func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	date, err := parseDate("date", c.Query("date"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	aps, err := h.listByDate.Execute(c.Request.Context(), date)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, dto.AppointmentList(aps))
}

// GET /api/appointments/month?year=2026&month=10
func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	year, err := parseInt("year", c.Query("year"), 0)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	month, err := parseInt("month", c.Query("month"), 0)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	aps, err := h.listByMonth.Execute(c.Request.Context(), year, month)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, dto.AppointmentList(aps))
}

// ======================================================
// RESCHEDULE
// ======================================================

// PUT /api/appointments/:id
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	var req RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Request body is invalid.")
		return
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	start, err := parseTime("start_time", req.StartTime)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	ap, err := h.reschedule.Execute(c.Request.Context(), ucAppointment.RescheduleAppointmentInput{
		AppointmentID: c.Param("id"),
		Date:          date,
		Start:         start,
		Actor:         middleware.ActorFrom(c).String(),
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// STATUS
// ======================================================

// PATCH /api/appointments/:id/status
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Request body is invalid.")
		return
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	actor := middleware.ActorFrom(c)
	id := c.Param("id")

	var ap *models.Appointment

	switch status {
	case domain.StatusCompleted:
		if !slices.Contains(clinicianRoles, actor.Role) {
			httperr.Forbidden(c, "forbidden", "Only clinic staff can complete a visit.")
			return
		}
		if req.Completion == nil {
			httperr.FromError(c, domain.Invalid("completion", "is required"))
			return
		}
		ap, err = h.complete.Execute(c.Request.Context(), id, models.Completion{
			Services: req.Completion.Services,
			Notes:    req.Completion.Notes,
		}, actor.String())

	case domain.StatusCancelled:
		ap, err = h.cancel.Execute(c.Request.Context(), ucAppointment.CancelAppointmentInput{
			AppointmentID: id,
			Reason:        req.Reason,
			Note:          req.Note,
			Actor:         actor.String(),
		})

	default:
		httperr.FromError(c, domain.Invalid("status", "use PUT to reschedule a booked appointment"))
		return
	}

	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, ap)
}
