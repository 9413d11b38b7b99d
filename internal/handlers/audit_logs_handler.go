package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/SysArcDCMS/dcms-scheduler/internal/httperr"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
	"github.com/SysArcDCMS/dcms-scheduler/internal/timezone"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	db    *gorm.DB
	clock timezone.Clock
}

func NewAuditLogsHandler(db *gorm.DB, clock timezone.Clock) *AuditLogsHandler {
	return &AuditLogsHandler{db: db, clock: clock}
}

// List pages through the booking audit trail, newest first.
// GET /api/audit-logs?action=&entity=&entity_id=&actor=&from=&to=&page=&limit=
func (h *AuditLogsHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	offset := (page - 1) * limit

	q := h.db.WithContext(c.Request.Context()).Model(&models.AuditLog{})

	// --------------------------------------------------
	// Optional filters
	// --------------------------------------------------

	if action := c.Query("action"); action != "" {
		q = q.Where("action = ?", action)
	}
	if entity := c.Query("entity"); entity != "" {
		q = q.Where("entity = ?", entity)
	}
	if entityID := c.Query("entity_id"); entityID != "" {
		q = q.Where("entity_id = ?", entityID)
	}
	if actor := c.Query("actor"); actor != "" {
		q = q.Where("actor = ?", actor)
	}

	// from/to are clinic-local calendar days, both inclusive.
	if raw := c.Query("from"); raw != "" {
		from, err := parseDate("from", raw)
		if err != nil {
			httperr.FromError(c, err)
			return
		}
		q = q.Where("created_at >= ?", from.In(h.clock.Location()))
	}
	if raw := c.Query("to"); raw != "" {
		to, err := parseDate("to", raw)
		if err != nil {
			httperr.FromError(c, err)
			return
		}
		q = q.Where("created_at < ?", to.AddDays(1).In(h.clock.Location()))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "audit_count_failed", "Could not count audit logs.")
		return
	}

	var logs []models.AuditLog
	if err := q.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error; err != nil {

		httperr.Internal(c, "audit_list_failed", "Could not list audit logs.")
		return
	}

	if logs == nil {
		logs = []models.AuditLog{}
	}

	c.JSON(http.StatusOK, gin.H{
		"page":  page,
		"limit": limit,
		"total": total,
		"logs":  logs,
	})
}
