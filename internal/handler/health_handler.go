package handler

import (
	"context"
	"time"

	"messagely/pkg/response"

	"github.com/gin-gonic/gin"
)

// Pinger checks a backing service.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	db     Pinger
	redis  Pinger
	online func() int
}

// NewHealthHandler takes the database check, an optional redis check and an
// optional count of live websocket connections.
func NewHealthHandler(db, redis Pinger, online func() int) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, online: online}
}

// Health GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	if err := h.db(ctx); err != nil {
		status = "db-down"
	}
	body := gin.H{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if h.redis != nil {
		body["redis"] = "ok"
		if err := h.redis(ctx); err != nil {
			body["redis"] = "down"
		}
	}
	if h.online != nil {
		body["online"] = h.online()
	}
	response.OK(c, body)
}
