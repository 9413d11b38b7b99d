package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/SysArcDCMS/dcms-scheduler/internal/config"
	"github.com/SysArcDCMS/dcms-scheduler/internal/handlers"
	"github.com/SysArcDCMS/dcms-scheduler/internal/middleware"
	ucAppointment "github.com/SysArcDCMS/dcms-scheduler/internal/usecase/appointment"
)

// Dependencies is what main assembles. DB and Redis are nil when the
// instance runs without them.
type Dependencies struct {
	Config  *config.Config
	DB      *gorm.DB
	Redis   *redis.Client
	Logger  zerolog.Logger
	Booking ucAppointment.Deps
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	// ======================================================
	// 🌍 MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(
		middleware.RequestID(deps.Logger),
		middleware.Logger(deps.Logger),
		middleware.CORSMiddleware(),
	)

	// ======================================================
	// 🧠 USE CASES: APPOINTMENTS
	// ======================================================
	registry := deps.Booking.Registry

	createAppointmentUC := ucAppointment.NewCreateAppointment(deps.Booking)
	rescheduleAppointmentUC := ucAppointment.NewRescheduleAppointment(deps.Booking)
	completeAppointmentUC := ucAppointment.NewCompleteAppointment(deps.Booking)
	cancelAppointmentUC := ucAppointment.NewCancelAppointment(deps.Booking)

	getAppointmentUC := ucAppointment.NewGetAppointment(registry)
	listAppointmentsByDateUC := ucAppointment.NewListAppointmentsByDate(registry)
	listAppointmentsByMonthUC := ucAppointment.NewListAppointmentsByMonth(registry)

	getAvailabilityUC := ucAppointment.NewGetAvailability(deps.Booking)
	inspectAvailabilityUC := ucAppointment.NewInspectAvailability(deps.Booking)

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	appointmentHandler := handlers.NewAppointmentHandler(
		createAppointmentUC,
		rescheduleAppointmentUC,
		completeAppointmentUC,
		cancelAppointmentUC,
		getAppointmentUC,
		listAppointmentsByDateUC,
		listAppointmentsByMonthUC,
	)

	slotsHandler := handlers.NewSlotsHandler(getAvailabilityUC, inspectAvailabilityUC)

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis, cfg.Env, cfg.ServiceVersion)

	// ======================================================
	// ❤️ HEALTH
	// ======================================================
	health := r.Group("/health")
	{
		health.GET("/live", healthHandler.Liveness)
		health.GET("/ready", healthHandler.Readiness)
	}

	// ======================================================
	// 📅 API
	// ======================================================
	api := r.Group("/api")
	api.Use(middleware.ActorMiddleware(cfg.JWTSecret))

	clinicStaff := middleware.RequireRole(
		middleware.RoleStaff,
		middleware.RoleDentist,
		middleware.RoleAdmin,
	)

	// Changes to an existing appointment need a known actor.
	identified := middleware.RequireRole(
		middleware.RolePatient,
		middleware.RoleStaff,
		middleware.RoleDentist,
		middleware.RoleAdmin,
	)

	// Slots are public.
	api.GET("/slots", slotsHandler.Available)

	appointments := api.Group("/appointments")
	{
		appointments.POST("", appointmentHandler.Create)
		appointments.GET("/:id", appointmentHandler.Get)
		appointments.PUT("/:id", identified, appointmentHandler.Reschedule)
		appointments.PATCH("/:id/status", identified, appointmentHandler.UpdateStatus)

		appointments.GET("", clinicStaff, appointmentHandler.ListByDate)
		appointments.GET("/month", clinicStaff, appointmentHandler.ListByMonth)
	}

	internal := api.Group("/internal", clinicStaff)
	{
		internal.GET("/slots", slotsHandler.Annotated)
	}

	// Audit rows only exist when the registry is Postgres.
	if deps.DB != nil {
		auditLogsHandler := handlers.NewAuditLogsHandler(deps.DB, deps.Booking.Clock)
		api.GET(
			"/audit-logs",
			middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin),
			auditLogsHandler.List,
		)
	}
}
