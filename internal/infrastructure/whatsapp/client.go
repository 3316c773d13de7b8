// Package whatsapp defines the boundary to the wrapped messaging client. The
// bridge treats the client as opaque: it consumes the closed event set below
// and calls the query/send operations, nothing more.
package whatsapp

import (
	"context"

	"github.com/UpperPublicidade/upperchat-go/internal/domain/chat"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/session"
)

// Client is the single stateful messaging session the bridge wraps. One
// physical account, one logical session per process.
//
// ChatByID returns an error wrapping bridge.ErrChatNotFound when the id does
// not resolve to a conversation. All other failures surface as-is and are
// wrapped by the caller.
type Client interface {
	// Initialize starts (or restarts) the session. The client reports
	// progress through Events.
	Initialize() error

	// Destroy tears the session down without logging out, keeping the
	// stored credentials usable for the next Initialize.
	Destroy() error

	// Logout terminates the session and invalidates stored credentials.
	Logout() error

	// State returns the client's own reported connectivity state string.
	State(ctx context.Context) (string, error)

	// Info returns the session identity. Only meaningful once authenticated.
	Info() (*session.Identity, error)

	// Chats lists all known conversations.
	Chats(ctx context.Context) ([]chat.Chat, error)

	// ChatByID resolves one conversation.
	ChatByID(ctx context.Context, id string) (chat.Chat, error)

	// Messages fetches up to limit messages of a conversation, oldest last
	// ordering is not guaranteed; callers sort.
	Messages(ctx context.Context, chatID string, limit int) ([]chat.Message, error)

	// DownloadMedia fetches the media blob attached to msg.
	DownloadMedia(ctx context.Context, msg chat.Message) (chat.MediaPayload, error)

	// Send delivers a text message to a conversation. No retries.
	Send(ctx context.Context, chatID, body string) error

	// ProfilePicURL returns the avatar URL of a conversation, or "" when the
	// conversation has none.
	ProfilePicURL(ctx context.Context, chatID string) (string, error)

	// Events is the stream of lifecycle and message events. The channel is
	// closed when the client shuts down for good.
	Events() <-chan Event
}

// Event is one occurrence reported by the client. The variant set is closed:
// exactly the types below, nothing else.
type Event interface {
	isEvent()
}

// QREvent is emitted when a new scannable login code is issued.
type QREvent struct {
	Code string
}

// AuthenticatedEvent is emitted when the scan is accepted.
type AuthenticatedEvent struct{}

// ReadyEvent is emitted when the session becomes fully usable.
type ReadyEvent struct{}

// DisconnectedEvent is emitted when the session drops, with the client's
// reason string.
type DisconnectedEvent struct {
	Reason string
}

// AuthFailureEvent is emitted when authentication fails during the scan flow.
type AuthFailureEvent struct {
	Message string
}

// MessageEvent is emitted for every inbound message. ChatName is the display
// name of the sending conversation when the client knows it.
type MessageEvent struct {
	Message  chat.Message
	ChatName string
}

func (QREvent) isEvent()            {}
func (AuthenticatedEvent) isEvent() {}
func (ReadyEvent) isEvent()         {}
func (DisconnectedEvent) isEvent()  {}
func (AuthFailureEvent) isEvent()   {}
func (MessageEvent) isEvent()       {}
