package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	depOK       = "ok"
	depDown     = "down"
	depDisabled = "disabled"
)

type HealthHandler struct {
	db      *gorm.DB
	redis   *redis.Client
	env     string
	version string
}

// NewHealthHandler accepts nil for backends the instance runs without.
func NewHealthHandler(db *gorm.DB, rdb *redis.Client, env, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   rdb,
		env:     env,
		version: version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

// GET /health/live
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:  depOK,
		Version: h.version,
		Env:     h.env,
	})
}

// GET /health/ready
//
// Postgres down means no booking can commit, so the instance reports error.
// Redis down only costs the cache and cross-instance locks: degraded.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]string{
		"postgres": h.pingPostgres(ctx),
		"redis":    h.pingRedis(ctx),
	}

	status := depOK
	if deps["redis"] == depDown {
		status = "degraded"
	}
	if deps["postgres"] == depDown {
		status = "error"
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	})
}

func (h *HealthHandler) pingPostgres(ctx context.Context) string {
	if h.db == nil {
		return depDisabled
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		return depDown
	}

	pgCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pgCtx); err != nil {
		return depDown
	}
	return depOK
}

func (h *HealthHandler) pingRedis(ctx context.Context) string {
	if h.redis == nil {
		return depDisabled
	}

	redisCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := h.redis.Ping(redisCtx).Err(); err != nil {
		return depDown
	}
	return depOK
}
