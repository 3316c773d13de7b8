// Package services provides the application services of the bridge.
package services

import (
	"context"
	"os"

	"github.com/UpperPublicidade/upperchat-go/internal/domain/bridge"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/chat"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/events"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/session"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/caching/media"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/messaging"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/logging"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/whatsapp"
	"github.com/mdp/qrterminal/v3"
)

// SessionService is the session state tracker: it owns the lifecycle state of
// the wrapped session, reacts to the client's events, and drives the outgoing
// broadcasts. All event handling runs on a single pump goroutine, so state
// mutations never overlap.
type SessionService struct {
	state       *session.State
	client      whatsapp.Client
	broadcaster messaging.Publisher
	mediaCache  *media.Store
	logger      *logging.ChanneledLogger
	renderQR    bool
}

// NewSessionService creates the session tracker.
func NewSessionService(state *session.State, client whatsapp.Client, broadcaster messaging.Publisher, mediaCache *media.Store, logger *logging.ChanneledLogger, renderQR bool) *SessionService {
	return &SessionService{
		state:       state,
		client:      client,
		broadcaster: broadcaster,
		mediaCache:  mediaCache,
		logger:      logger,
		renderQR:    renderQR,
	}
}

// Run consumes the client's event stream until ctx is cancelled or the stream
// closes. It is the only writer of the session state besides the explicit
// control operations.
func (s *SessionService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.client.Events():
			if !ok {
				s.logger.Session().Info("Client event stream closed")
				return
			}
			s.dispatch(ctx, ev)
		}
	}
}

func (s *SessionService) dispatch(ctx context.Context, ev whatsapp.Event) {
	switch e := ev.(type) {
	case whatsapp.QREvent:
		s.handleQR(e.Code)
	case whatsapp.AuthenticatedEvent:
		s.handleAuthenticated()
	case whatsapp.ReadyEvent:
		s.handleReady()
	case whatsapp.DisconnectedEvent:
		s.handleDisconnected(e.Reason)
	case whatsapp.AuthFailureEvent:
		s.handleAuthFailure(e.Message)
	case whatsapp.MessageEvent:
		s.handleMessage(ctx, e)
	}
}

func (s *SessionService) handleQR(code string) {
	s.state.SetAwaitingScan(code)
	s.logger.Session().Info("Scannable code issued, waiting for scan")

	if s.renderQR {
		qrterminal.GenerateHalfBlock(code, qrterminal.L, os.Stdout)
	}

	s.broadcaster.Publish(events.New(events.TypeQR, events.QRPayload{QR: code}))
	s.broadcaster.Publish(events.New(events.TypeStatus, events.StatusPayload{Ready: false, Info: nil}))
}

func (s *SessionService) handleAuthenticated() {
	s.state.SetAuthenticated()
	s.logger.Session().Info("Session authenticated")
	s.broadcaster.Publish(events.New(events.TypeAuthenticated, struct{}{}))
}

func (s *SessionService) handleReady() {
	info := s.IdentitySnapshot()
	s.state.SetReady(info)
	s.logger.Session().Info("Session ready")

	s.broadcaster.Publish(events.New(events.TypeReady, struct{}{}))
	s.broadcaster.Publish(events.New(events.TypeStatus, events.StatusPayload{Ready: true, Info: info}))
}

func (s *SessionService) handleDisconnected(reason string) {
	s.state.SetDisconnected()
	// Cached blobs belong to the dead session; a fresh session re-downloads.
	s.mediaCache.Clear()
	s.logger.Session().Warn("Session disconnected", "reason", reason)

	s.broadcaster.Publish(events.New(events.TypeDisconnected, events.DisconnectedPayload{Reason: reason}))
	s.broadcaster.Publish(events.New(events.TypeStatus, events.StatusPayload{Ready: false, Info: nil}))
}

func (s *SessionService) handleAuthFailure(message string) {
	s.state.SetDisconnected()
	s.logger.Session().Error("Authentication failure", "message", message)

	s.broadcaster.Publish(events.New(events.TypeAuthFailure, events.AuthFailurePayload{Message: message}))
}

// handleMessage broadcasts the message envelope and, for media-bearing
// messages, fetches the blob into the cache asynchronously. Subscribers must
// treat media as independently retrievable: the envelope may well arrive
// before the download finishes.
func (s *SessionService) handleMessage(ctx context.Context, e whatsapp.MessageEvent) {
	s.logger.Session().Debug("Inbound message",
		"messageId", e.Message.ID, "from", e.Message.From, "type", e.Message.Type, "hasMedia", e.Message.HasMedia)

	if e.Message.HasMedia {
		go s.fetchMedia(ctx, e.Message)
	}

	s.broadcaster.Publish(events.New(events.TypeMessage, events.MessagePayload{
		Message:  e.Message,
		ChatName: e.ChatName,
	}))
}

func (s *SessionService) fetchMedia(ctx context.Context, msg chat.Message) {
	payload, err := s.client.DownloadMedia(ctx, msg)
	if err != nil {
		s.logger.WA().Error("Media download failed", "messageId", msg.ID, "error", err.Error())
		return
	}
	if payload.Data == "" {
		s.logger.WA().Warn("Media download returned empty payload", "messageId", msg.ID)
		return
	}
	s.mediaCache.Put(msg.ID, payload)
	s.logger.Cache().Debug("Media cached", "messageId", msg.ID, "mimeType", payload.MimeType)
}

// IdentitySnapshot is a best-effort read of the client's identity. Identity
// is advisory, used only for display, so any failure yields nil instead of an
// error.
func (s *SessionService) IdentitySnapshot() *session.Identity {
	info, err := s.client.Info()
	if err != nil {
		return nil
	}
	return info
}

// StatusResponse is the point-in-time answer to the status query.
type StatusResponse struct {
	Ready bool              `json:"ready"`
	State string            `json:"state"`
	Info  *session.Identity `json:"info"`
}

// Status reports the tracked readiness plus the client's own connectivity
// state string, "unknown" when the client cannot be asked.
func (s *SessionService) Status(ctx context.Context) StatusResponse {
	state := "unknown"
	if reported, err := s.client.State(ctx); err == nil {
		state = reported
	}
	return StatusResponse{
		Ready: s.state.Ready(),
		State: state,
		Info:  s.IdentitySnapshot(),
	}
}

// Snapshot exposes the tracked state for init envelopes.
func (s *SessionService) Snapshot() session.Snapshot {
	return s.state.Snapshot()
}

// Restart clears the pending code, forces the session back to its pre-session
// state, empties the media cache, and re-initializes the client. A rejection
// by the client is reported to the caller, not retried.
func (s *SessionService) Restart(ctx context.Context) error {
	s.logger.Session().Info("Session restart requested")

	s.state.Reset()
	s.mediaCache.Clear()

	if err := s.client.Destroy(); err != nil {
		return bridge.External("restart", err)
	}
	if err := s.client.Initialize(); err != nil {
		return bridge.External("restart", err)
	}
	return nil
}

// Logout terminates the wrapped session, clears the pending code and the
// media cache, and broadcasts a manual disconnect.
func (s *SessionService) Logout(ctx context.Context) error {
	s.logger.Session().Info("Session logout requested")

	if err := s.client.Logout(); err != nil {
		return bridge.External("logout", err)
	}

	s.state.SetDisconnected()
	s.mediaCache.Clear()
	s.broadcaster.Publish(events.New(events.TypeDisconnected, events.DisconnectedPayload{Reason: "manual_logout"}))
	return nil
}
