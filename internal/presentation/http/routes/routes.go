// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/UpperPublicidade/upperchat-go/internal/application/container"
	"github.com/UpperPublicidade/upperchat-go/internal/presentation/http/handlers"
	"github.com/UpperPublicidade/upperchat-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	eventHandlers := handlers.NewEventHandlers(container.Broadcaster, container.Logger, container.PerfTracker)
	sessionHandlers := handlers.NewSessionHandlers(container.SessionService, container.Logger, container.PerfTracker)
	messageHandlers := handlers.NewMessageHandlers(container.MessageService, container.Logger, container.PerfTracker)
	opsHandlers := handlers.NewOpsHandlers(container)

	r.GET("/ping", sessionHandlers.Ping)
	r.GET("/events", eventHandlers.Stream)
	r.GET("/status", sessionHandlers.GetStatus)
	r.POST("/session/restart", sessionHandlers.Restart)
	r.POST("/disconnect", sessionHandlers.Disconnect)

	messages := r.Group("/messages")
	{
		messages.GET("/recent", messageHandlers.GetRecent)
		messages.GET("/chat/:chatId", messageHandlers.GetChatHistory)
		messages.GET("/media/:messageId", messageHandlers.GetMedia)
		messages.POST("/send", messageHandlers.SendMessage)
	}

	r.GET("/avatar/:chatId", messageHandlers.GetAvatar)

	// Operator surface
	ops := r.Group("/ops")
	{
		ops.GET("/logs/stream", opsHandlers.StreamLogs)
		ops.GET("/logs/levels", opsHandlers.GetLogLevels)
		ops.POST("/logs/levels", opsHandlers.SetLogLevel)
		ops.GET("/perf", opsHandlers.GetPerfMarkers)
		ops.GET("/connections", opsHandlers.GetConnections)
	}

	return r
}
