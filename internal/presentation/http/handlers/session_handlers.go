package handlers

import (
	"net/http"
	"time"

	"github.com/UpperPublicidade/upperchat-go/internal/application/services"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/logging"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// SessionHandlers serves the session control and status surface.
type SessionHandlers struct {
	sessionService *services.SessionService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewSessionHandlers creates session handlers with injected dependencies.
func NewSessionHandlers(sessionService *services.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SessionHandlers {
	return &SessionHandlers{
		sessionService: sessionService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// Ping handles GET /ping
func (h *SessionHandlers) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "now": time.Now().UnixMilli()})
}

// GetStatus handles GET /status
func (h *SessionHandlers) GetStatus(c *gin.Context) {
	marker := h.perfTracker.StartOperation("get_status_request")
	defer marker.Complete()

	status := h.sessionService.Status(c.Request.Context())
	marker.SetSuccess(true)
	c.JSON(http.StatusOK, status)
}

// Restart handles POST /session/restart
func (h *SessionHandlers) Restart(c *gin.Context) {
	marker := h.perfTracker.StartOperation("session_restart_request")
	defer marker.Complete()

	if err := h.sessionService.Restart(c.Request.Context()); err != nil {
		h.logger.Session().Error("Restart failed", "error", err.Error())
		marker.SetError(err)
		status, code := errorStatus(err)
		c.JSON(status, gin.H{"ok": false, "error": code})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Disconnect handles POST /disconnect
func (h *SessionHandlers) Disconnect(c *gin.Context) {
	marker := h.perfTracker.StartOperation("disconnect_request")
	defer marker.Complete()

	if err := h.sessionService.Logout(c.Request.Context()); err != nil {
		h.logger.Session().Error("Logout failed", "error", err.Error())
		marker.SetError(err)
		status, code := errorStatus(err)
		c.JSON(status, gin.H{"ok": false, "error": code})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
