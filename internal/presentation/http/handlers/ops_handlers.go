package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/UpperPublicidade/upperchat-go/internal/application/container"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// OpsHandlers serves the operator surface: live log streaming, log level
// control, and recent performance markers.
type OpsHandlers struct {
	container *container.Container
	upgrader  websocket.Upgrader
}

// NewOpsHandlers creates operator handlers with injected dependencies.
func NewOpsHandlers(container *container.Container) *OpsHandlers {
	return &OpsHandlers{
		container: container,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Operator tooling runs behind the same reverse proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StreamLogs handles GET /ops/logs/stream, a websocket feed of filtered log
// entries.
func (h *OpsHandlers) StreamLogs(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.container.Logger.System().Error("Log stream upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	filters := logging.AppliedFilters{
		Channel: logging.Channel(c.DefaultQuery("channel", "all")),
		Level:   parseLevel(c.DefaultQuery("level", "INFO")),
	}

	broadcaster := logging.GetBroadcaster()
	client := broadcaster.NewClient(filters)
	broadcaster.RegisterClient(client)
	defer broadcaster.UnregisterClient(client)

	// Reader goroutine notices the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case message, ok := <-client.Channel:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}
}

// GetLogLevels handles GET /ops/logs/levels
func (h *OpsHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.Logger.GetChannelLevels())
}

// SetLogLevel handles POST /ops/logs/levels
func (h *OpsHandlers) SetLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	switch req.Level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}

	if err := h.container.Logger.SetChannelLevel(logging.Channel(req.Channel), parseLevel(req.Level)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, req.Level)})
}

// GetPerfMarkers handles GET /ops/perf
func (h *OpsHandlers) GetPerfMarkers(c *gin.Context) {
	markers := h.container.PerfTracker.RecentMarkers()
	c.JSON(http.StatusOK, gin.H{"count": len(markers), "markers": markers})
}

// GetConnections handles GET /ops/connections
func (h *OpsHandlers) GetConnections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"eventSubscribers": h.container.Broadcaster.Count(),
		"mediaCacheSize":   h.container.MediaCache.Len(),
	})
}
