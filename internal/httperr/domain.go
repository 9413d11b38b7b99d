package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/observability"
	"github.com/SysArcDCMS/dcms-scheduler/internal/ratelimit"
)

// FromError writes the response for an error returned by a use case.
func FromError(c *gin.Context, err error) {
	var (
		validation *domain.ValidationError
		dup        *domain.DuplicateActiveBookingError
		conflict   *domain.SlotConflictError
		transition *domain.InvalidTransitionError
	)

	switch {
	case errors.As(err, &validation):
		WriteDetails(c, http.StatusBadRequest, "validation_error", validation.Error(), gin.H{
			"field":  validation.Field,
			"reason": validation.Reason,
		})

	case errors.As(err, &dup):
		var details any
		if dup.Existing != nil {
			details = gin.H{"existing_appointment": dup.Existing}
		}
		WriteDetails(c, http.StatusConflict, "duplicate_active_booking",
			"Patient already has an active appointment.", details)

	case errors.As(err, &conflict):
		details := gin.H{"reason": conflict.Reason}
		if conflict.AppointmentID != "" {
			details["appointment_id"] = conflict.AppointmentID
		}
		WriteDetails(c, http.StatusConflict, "slot_conflict", "Time slot is not available.", details)

	case errors.As(err, &transition):
		WriteDetails(c, http.StatusConflict, "invalid_transition", transition.Error(), gin.H{
			"from": transition.From,
			"to":   transition.To,
		})

	case errors.Is(err, domain.ErrNotFound):
		NotFound(c, "appointment_not_found", "Appointment not found.")

	case errors.Is(err, ratelimit.ErrLimited):
		Write(c, http.StatusTooManyRequests, "rate_limited", "Too many booking attempts, try again later.")

	case errors.Is(err, domain.ErrRegistryUnavailable):
		observability.LoggerFromContext(c.Request.Context()).Error().Err(err).Msg("registry unavailable")
		Write(c, http.StatusServiceUnavailable, "registry_unavailable", "Scheduling is temporarily unavailable.")

	default:
		observability.LoggerFromContext(c.Request.Context()).Error().Err(err).Msg("unhandled error")
		Internal(c, "internal_error", "Unexpected error.")
	}
}
