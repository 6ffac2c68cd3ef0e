package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/eventstream/pulse/internal/cache"
	"github.com/eventstream/pulse/internal/database"
	"github.com/eventstream/pulse/internal/utils"
)

var startTime = time.Now()

// HealthHandler provides health endpoint.
type HealthHandler struct {
	db        *sqlx.DB
	kv        cache.KV
	cacheKind string
}

// NewHealthHandler creates a new HealthHandler. cacheKind names the backing
// store ("redis" or "memory").
func NewHealthHandler(db *sqlx.DB, kv cache.KV, cacheKind string) *HealthHandler {
	return &HealthHandler{db: db, kv: kv, cacheKind: cacheKind}
}

// GetHealth responds with database and cache status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	dbStatus := "connected"
	if err := database.Ping(c.Request.Context(), h.db); err != nil {
		dbStatus = "disconnected"
	}

	cacheStatus := "disabled"
	if h.kv != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		cacheStatus = "connected"
		if err := h.kv.Ping(ctx); err != nil {
			cacheStatus = "disconnected"
		}
	}

	if dbStatus != "connected" {
		utils.Error(c, http.StatusServiceUnavailable, "UNHEALTHY", "Database is unreachable")
		return
	}

	utils.Success(c, http.StatusOK, "Service is healthy", gin.H{
		"status": "healthy",
		"uptime": int(time.Since(startTime).Seconds()),
		"database": gin.H{
			"driver": h.db.DriverName(),
			"status": dbStatus,
		},
		"cache": gin.H{
			"kind":   h.cacheKind,
			"status": cacheStatus,
		},
	})
}
