package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/UpperPublicidade/upperchat-go/internal/domain/bridge"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/chat"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/events"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/session"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/caching/media"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/messaging"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/logging"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/whatsapp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	client      *fakeClient
	state       *session.State
	cache       *media.Store
	broadcaster *messaging.EventBroadcaster
	service     *SessionService
	sub         *messaging.Subscriber
	cancel      context.CancelFunc
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{JSONFormat: true})
	require.NoError(t, err)

	state := session.NewState()
	cache := media.NewStore(100)
	client := newFakeClient()

	snapshot := func() events.InitPayload {
		snap := state.Snapshot()
		return events.InitPayload{Ready: snap.Ready, Info: snap.Identity}
	}
	broadcaster := messaging.NewEventBroadcaster(32, snapshot, logger)

	service := NewSessionService(state, client, broadcaster, cache, logger, false)

	ctx, cancel := context.WithCancel(context.Background())
	go service.Run(ctx)

	sub := broadcaster.Subscribe()
	env := receiveEnvelope(t, sub)
	require.Equal(t, events.TypeInit, env.Type)

	f := &sessionFixture{
		client:      client,
		state:       state,
		cache:       cache,
		broadcaster: broadcaster,
		service:     service,
		sub:         sub,
		cancel:      cancel,
	}
	t.Cleanup(func() {
		cancel()
		broadcaster.Unsubscribe(sub.ID)
	})
	return f
}

func receiveEnvelope(t *testing.T, sub *messaging.Subscriber) events.Envelope {
	t.Helper()
	select {
	case env := <-sub.Events():
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for envelope")
		return events.Envelope{}
	}
}

func TestQRTriggerBroadcastsCodeThenStatus(t *testing.T) {
	f := newSessionFixture(t)

	f.client.events <- whatsapp.QREvent{Code: "ABC123"}

	env := receiveEnvelope(t, f.sub)
	require.Equal(t, events.TypeQR, env.Type)
	assert.Equal(t, events.QRPayload{QR: "ABC123"}, env.Payload)

	env = receiveEnvelope(t, f.sub)
	require.Equal(t, events.TypeStatus, env.Type)
	status := env.Payload.(events.StatusPayload)
	assert.False(t, status.Ready)
	assert.Nil(t, status.Info)

	assert.Equal(t, session.PhaseAwaitingScan, f.state.Phase())
	assert.Equal(t, "ABC123", f.state.Snapshot().PendingCode)
}

func TestAuthenticatedTrigger(t *testing.T) {
	f := newSessionFixture(t)

	f.client.events <- whatsapp.AuthenticatedEvent{}

	env := receiveEnvelope(t, f.sub)
	assert.Equal(t, events.TypeAuthenticated, env.Type)
	assert.Equal(t, session.PhaseAuthenticated, f.state.Phase())
}

func TestReadyTriggerBroadcastsReadyThenStatusWithIdentity(t *testing.T) {
	f := newSessionFixture(t)
	f.client.info = &session.Identity{PushName: "Upper", WID: "5511999999999@c.us", Platform: "android"}

	f.client.events <- whatsapp.ReadyEvent{}

	env := receiveEnvelope(t, f.sub)
	require.Equal(t, events.TypeReady, env.Type)

	env = receiveEnvelope(t, f.sub)
	require.Equal(t, events.TypeStatus, env.Type)
	status := env.Payload.(events.StatusPayload)
	assert.True(t, status.Ready)
	require.NotNil(t, status.Info)
	assert.Equal(t, "Upper", status.Info.PushName)

	assert.True(t, f.state.Ready())
}

func TestDisconnectedTriggerClearsCache(t *testing.T) {
	f := newSessionFixture(t)
	f.state.SetReady(nil)
	f.cache.Put("m1", chat.MediaPayload{MimeType: "image/jpeg", Data: "blob"})

	f.client.events <- whatsapp.DisconnectedEvent{Reason: "logout"}

	env := receiveEnvelope(t, f.sub)
	require.Equal(t, events.TypeDisconnected, env.Type)
	assert.Equal(t, events.DisconnectedPayload{Reason: "logout"}, env.Payload)

	env = receiveEnvelope(t, f.sub)
	require.Equal(t, events.TypeStatus, env.Type)
	assert.False(t, env.Payload.(events.StatusPayload).Ready)

	assert.Equal(t, session.PhaseDisconnected, f.state.Phase())
	assert.Equal(t, 0, f.cache.Len())
}

func TestAuthFailureEmitsSingleEnvelope(t *testing.T) {
	f := newSessionFixture(t)

	f.client.events <- whatsapp.AuthFailureEvent{Message: "bad scan"}
	f.client.events <- whatsapp.QREvent{Code: "NEXT"}

	env := receiveEnvelope(t, f.sub)
	require.Equal(t, events.TypeAuthFailure, env.Type)
	assert.Equal(t, events.AuthFailurePayload{Message: "bad scan"}, env.Payload)

	// No status envelope between auth_failure and the next trigger's output.
	env = receiveEnvelope(t, f.sub)
	assert.Equal(t, events.TypeQR, env.Type)

	assert.Equal(t, session.PhaseDisconnected, f.state.Phase())
}

func TestMessageEventBroadcastsAndCachesMedia(t *testing.T) {
	f := newSessionFixture(t)

	msg := chat.Message{
		ID:       "msg-1",
		From:     "5511888888888@c.us",
		Body:     "",
		Type:     "image",
		HasMedia: true,
		MediaKey: "msg-1",
	}
	f.client.media["msg-1"] = chat.MediaPayload{MimeType: "image/jpeg", Data: "YmxvYg=="}

	f.client.events <- whatsapp.MessageEvent{Message: msg, ChatName: "Cliente"}

	env := receiveEnvelope(t, f.sub)
	require.Equal(t, events.TypeMessage, env.Type)
	payload := env.Payload.(events.MessagePayload)
	assert.Equal(t, "msg-1", payload.Message.ID)
	assert.Equal(t, "Cliente", payload.ChatName)

	// The blob lands in the cache asynchronously.
	require.Eventually(t, func() bool {
		_, ok := f.cache.Get("msg-1")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTextMessageDoesNotTouchCache(t *testing.T) {
	f := newSessionFixture(t)

	f.client.events <- whatsapp.MessageEvent{
		Message:  chat.Message{ID: "msg-2", From: "x@c.us", Body: "oi", Type: "chat"},
		ChatName: "Cliente",
	}

	env := receiveEnvelope(t, f.sub)
	require.Equal(t, events.TypeMessage, env.Type)
	assert.Equal(t, 0, f.cache.Len())
}

func TestRestartResetsStateAndReinitializes(t *testing.T) {
	f := newSessionFixture(t)
	f.state.SetAwaitingScan("ABC123")
	f.cache.Put("m1", chat.MediaPayload{MimeType: "image/jpeg", Data: "blob"})

	require.NoError(t, f.service.Restart(context.Background()))

	inits, destroys, _ := f.client.calls()
	assert.Equal(t, 1, destroys)
	assert.Equal(t, 1, inits)
	assert.Equal(t, session.PhaseUninitialized, f.state.Phase())
	assert.Empty(t, f.state.Snapshot().PendingCode)
	assert.Equal(t, 0, f.cache.Len())
}

func TestRestartReportsClientRejection(t *testing.T) {
	f := newSessionFixture(t)
	f.client.destroyErr = errors.New("engine busy")

	err := f.service.Restart(context.Background())
	require.Error(t, err)

	var ext *bridge.ExternalError
	require.ErrorAs(t, err, &ext)
	assert.Equal(t, "restart_failed", ext.Code())
}

func TestLogoutClearsAndBroadcastsManualDisconnect(t *testing.T) {
	f := newSessionFixture(t)
	f.state.SetReady(nil)
	f.cache.Put("m1", chat.MediaPayload{MimeType: "image/jpeg", Data: "blob"})

	require.NoError(t, f.service.Logout(context.Background()))

	env := receiveEnvelope(t, f.sub)
	require.Equal(t, events.TypeDisconnected, env.Type)
	assert.Equal(t, events.DisconnectedPayload{Reason: "manual_logout"}, env.Payload)

	assert.Equal(t, session.PhaseDisconnected, f.state.Phase())
	assert.Equal(t, 0, f.cache.Len())
}

func TestLogoutReportsClientRejection(t *testing.T) {
	f := newSessionFixture(t)
	f.state.SetReady(nil)
	f.client.logoutErr = errors.New("engine gone")

	err := f.service.Logout(context.Background())
	require.Error(t, err)

	var ext *bridge.ExternalError
	require.ErrorAs(t, err, &ext)
	assert.Equal(t, "logout_failed", ext.Code())

	// A failed logout leaves the session state untouched.
	assert.True(t, f.state.Ready())
}

func TestIdentitySnapshotNeverFails(t *testing.T) {
	f := newSessionFixture(t)
	f.client.infoErr = errors.New("render process gone")

	assert.Nil(t, f.service.IdentitySnapshot())
}

func TestStatusFallsBackToUnknownState(t *testing.T) {
	f := newSessionFixture(t)
	f.client.stateErr = errors.New("not connected")

	status := f.service.Status(context.Background())
	assert.Equal(t, "unknown", status.State)
	assert.False(t, status.Ready)
}

func TestStatusReportsClientState(t *testing.T) {
	f := newSessionFixture(t)
	f.state.SetReady(&session.Identity{PushName: "Upper"})
	f.client.state = "CONNECTED"
	f.client.info = &session.Identity{PushName: "Upper"}

	status := f.service.Status(context.Background())
	assert.True(t, status.Ready)
	assert.Equal(t, "CONNECTED", status.State)
	require.NotNil(t, status.Info)
	assert.Equal(t, "Upper", status.Info.PushName)
}
