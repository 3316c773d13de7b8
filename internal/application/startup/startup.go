// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UpperPublicidade/upperchat-go/internal/application/container"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/logging"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/performance"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/whatsapp"
	"github.com/UpperPublicidade/upperchat-go/internal/presentation/http/server"
	"github.com/UpperPublicidade/upperchat-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence: logging, dependency
// wiring, the session event pump, the HTTP server, and graceful shutdown.
// The client is injected so engine bindings stay a construction-time choice.
func Initialize(client whatsapp.Client) error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `

  ▄  ▄ ▄▄▄ ▄▄▄  ▄▄▄ ▄▄▄   ▄▄▄ ▄  ▄ ▄▄▄ ▄▄▄▄▄
  ██ █ ██▄█ ██▄█ ██▄▄ ██▄█▀  ██   ██▄█ ██▄█  ██
  ██▄█ ██   ██   ██▄▄ ██ ▀█  ▀█▄▄ ██ █ ██ █  ██
` + "\033[97m" + `
  upper-chat bridge
` + "\033[0m")

	// Step 1: Channeled logging
	log.Println("Initializing logging...")
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Startup().Info("Channeled logging online")

	// Step 2: Performance tracking
	perfTracker := performance.NewTracker(config.MaxPerfMarkers)

	// Step 3: Dependency injection container
	logger.Startup().Info("Initializing dependency injection container...")
	appContainer := container.NewContainer(client, logger, perfTracker)
	logger.Startup().Info("Container initialization complete")

	// Step 4: Session event pump
	logger.Startup().Info("Starting session event pump...")
	go appContainer.SessionService.Run(ctx)

	// Step 5: Bring the wrapped session up
	logger.Startup().Info("Initializing messaging client...")
	if err := client.Initialize(); err != nil {
		return fmt.Errorf("client initialization failed: %w", err)
	}

	// Step 6: HTTP server
	logger.Startup().Info("Starting HTTP server...")
	startServerTime := time.Now()

	port := config.Port
	httpServer := server.New(port, appContainer)
	logger.Startup().Info("HTTP server initialized", "port", port, "duration", time.Since(startServerTime))

	// Step 7: Graceful shutdown wiring
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	// Stop the event pump before tearing the client down so late events do
	// not race the shutdown.
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Destroying messaging client...")
	if err := client.Destroy(); err != nil {
		logger.Shutdown().Error("Error destroying client", "error", err.Error())
	} else {
		logger.Shutdown().Info("Messaging client destroyed")
	}

	logging.GetBroadcaster().Shutdown()

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return logger.Close()
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
