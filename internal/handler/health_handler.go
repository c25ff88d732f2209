package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 5 * time.Second

// HealthHandler reports process liveness and backing-store reachability.
type HealthHandler struct {
	checks map[string]func(context.Context) error
}

// NewHealthHandler creates a HealthHandler over the given named checks.
func NewHealthHandler(checks map[string]func(context.Context) error) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Healthz runs every registered check and reports per-dependency status.
// Any failing dependency makes the whole response 503.
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	c.JSON(status, gin.H{
		"status":       http.StatusText(status),
		"dependencies": deps,
	})
}
