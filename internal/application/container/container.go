// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/UpperPublicidade/upperchat-go/internal/application/services"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/events"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/session"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/caching/media"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/messaging"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/logging"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/performance"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/whatsapp"
	"github.com/UpperPublicidade/upperchat-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies.
type Container struct {
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker

	State       *session.State
	MediaCache  *media.Store
	Client      whatsapp.Client
	Broadcaster *messaging.EventBroadcaster

	SessionService *services.SessionService
	MessageService *services.MessageService
}

// NewContainer creates and wires all singleton services around an already
// constructed client.
func NewContainer(client whatsapp.Client, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *Container {
	state := session.NewState()
	mediaCache := media.NewStore(config.MediaCacheCapacity)

	// The init envelope a subscriber receives first reflects the tracked
	// state at subscribe time, never a published event.
	snapshot := func() events.InitPayload {
		snap := state.Snapshot()
		return events.InitPayload{Ready: snap.Ready, Info: snap.Identity}
	}
	broadcaster := messaging.NewEventBroadcaster(config.SSEChannelBuffer, snapshot, logger)

	sessionService := services.NewSessionService(state, client, broadcaster, mediaCache, logger, config.RenderQRInTerminal)
	messageService := services.NewMessageService(client, state, mediaCache, logger, services.MessageLimits{
		RecentDefault:  config.RecentDefaultLimit,
		RecentMax:      config.RecentMaxLimit,
		HistoryDefault: config.HistoryDefaultLimit,
		HistoryMax:     config.HistoryMaxLimit,
		MediaScanDepth: config.MediaScanDepth,
	})

	return &Container{
		Logger:         logger,
		PerfTracker:    perfTracker,
		State:          state,
		MediaCache:     mediaCache,
		Client:         client,
		Broadcaster:    broadcaster,
		SessionService: sessionService,
		MessageService: messageService,
	}
}
