package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ppob-membership/pkg/response"
)

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	Ping   Pinger
	Logger *logrus.Logger
}

func NewHealthHandler(ping Pinger, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{Ping: ping, Logger: logger}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			if h.Logger != nil {
				h.Logger.WithError(err).Warn("health check failed")
			}
			response.Error(c, http.StatusServiceUnavailable, response.CodeBadRequest, "database unavailable")
			return
		}
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true}, "Sukses")
}
