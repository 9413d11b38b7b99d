package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SysArcDCMS/dcms-scheduler/internal/dto"
	"github.com/SysArcDCMS/dcms-scheduler/internal/httperr"
	"github.com/SysArcDCMS/dcms-scheduler/internal/httpresp"
	ucAppointment "github.com/SysArcDCMS/dcms-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type SlotsHandler struct {
	availability *ucAppointment.GetAvailability
	inspect      *ucAppointment.InspectAvailability
}

func NewSlotsHandler(
	availability *ucAppointment.GetAvailability,
	inspect *ucAppointment.InspectAvailability,
) *SlotsHandler {
	return &SlotsHandler{
		availability: availability,
		inspect:      inspect,
	}
}

// ======================================================
// PUBLIC
// ======================================================

// Available lists bookable windows only.
// GET /api/slots?date=YYYY-MM-DD&duration=60&buffer=15
func (h *SlotsHandler) Available(c *gin.Context) {
	in, err := parseAvailability(c.Query("date"), c.Query("duration"), c.Query("buffer"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	res, err := h.availability.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, dto.SlotsResponse{
		Date:     res.Date.String(),
		Slots:    dto.Slots(res.Slots),
		Degraded: res.Degraded,
	})
}

// ======================================================
// INTERNAL
// ======================================================

// Annotated lists every candidate with its conflict reason.
// GET /api/internal/slots?date=YYYY-MM-DD&duration=60&buffer=15
func (h *SlotsHandler) Annotated(c *gin.Context) {
	in, err := parseAvailability(c.Query("date"), c.Query("duration"), c.Query("buffer"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	slots, err := h.inspect.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, dto.AnnotatedSlotsResponse{
		Date:  in.Date.String(),
		Slots: slots,
	})
}
