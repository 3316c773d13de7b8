package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/messaging"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/logging"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/performance"
	"github.com/UpperPublicidade/upperchat-go/pkg/config"
	"github.com/gin-gonic/gin"
)

var activeEventStreams int64

// EventHandlers serves the live event stream.
type EventHandlers struct {
	registry    messaging.Registry
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewEventHandlers creates event stream handlers with injected dependencies.
func NewEventHandlers(registry messaging.Registry, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *EventHandlers {
	return &EventHandlers{
		registry:    registry,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Stream handles GET /events. Each connection receives an init envelope as
// its first data frame, then every published envelope in order, interleaved
// with heartbeat comments. Comment frames carry no application data.
func (h *EventHandlers) Stream(c *gin.Context) {
	marker := h.perfTracker.StartOperation("get_events_request")
	defer marker.Complete()

	current := atomic.LoadInt64(&activeEventStreams)
	if current >= int64(config.MaxSSEConnections) {
		h.logger.SSE().Warn("Event stream connection limit reached",
			"currentConnections", current, "maxConnections", config.MaxSSEConnections)
		marker.SetSuccess(false)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "connection limit reached"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("X-Accel-Buffering", "no") // nginx must not buffer the stream
	c.Writer.Flush()

	// Greeting comment keeps proxies from timing out the fresh connection.
	fmt.Fprint(c.Writer, ":ok\n\n")
	c.Writer.Flush()

	subscriber := h.registry.Subscribe()
	atomic.AddInt64(&activeEventStreams, 1)
	defer func() {
		atomic.AddInt64(&activeEventStreams, -1)
		h.registry.Unsubscribe(subscriber.ID)
	}()

	h.logger.SSE().Info("Event stream connected",
		"subscriberId", subscriber.ID,
		"totalConnections", atomic.LoadInt64(&activeEventStreams))
	marker.SetSuccess(true)

	heartbeat := time.NewTicker(config.SSEHeartbeatInterval)
	defer heartbeat.Stop()

	clientCtx := c.Request.Context()
	for {
		select {
		case <-clientCtx.Done():
			h.logger.SSE().Info("Event stream client disconnected", "subscriberId", subscriber.ID)
			return
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ":hb\n\n")
			c.Writer.Flush()
		case envelope, ok := <-subscriber.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(envelope)
			if err != nil {
				h.logger.SSE().Error("Failed to marshal envelope", "error", err.Error(), "type", envelope.Type)
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			c.Writer.Flush()
		}
	}
}
