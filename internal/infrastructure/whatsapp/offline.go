package whatsapp

import (
	"context"
	"errors"

	"github.com/UpperPublicidade/upperchat-go/internal/domain/chat"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/session"
)

// ErrNoEngine is returned by every operation of the offline client.
var ErrNoEngine = errors.New("no messaging engine linked")

// Offline is the stand-in Client used when no engine binding is linked into
// the binary. The bridge boots, serves its event stream and health surface,
// and reports every session operation as unavailable. Real deployments swap
// this for an engine-backed Client at construction time.
type Offline struct {
	events chan Event
}

// NewOffline creates the stand-in client. Its event channel stays open and
// silent for the life of the process.
func NewOffline() *Offline {
	return &Offline{events: make(chan Event)}
}

func (o *Offline) Initialize() error { return nil }
func (o *Offline) Destroy() error    { return nil }
func (o *Offline) Logout() error     { return ErrNoEngine }

func (o *Offline) State(ctx context.Context) (string, error) { return "", ErrNoEngine }

func (o *Offline) Info() (*session.Identity, error) { return nil, ErrNoEngine }

func (o *Offline) Chats(ctx context.Context) ([]chat.Chat, error) { return nil, ErrNoEngine }

func (o *Offline) ChatByID(ctx context.Context, id string) (chat.Chat, error) {
	return chat.Chat{}, ErrNoEngine
}

func (o *Offline) Messages(ctx context.Context, chatID string, limit int) ([]chat.Message, error) {
	return nil, ErrNoEngine
}

func (o *Offline) DownloadMedia(ctx context.Context, msg chat.Message) (chat.MediaPayload, error) {
	return chat.MediaPayload{}, ErrNoEngine
}

func (o *Offline) Send(ctx context.Context, chatID, body string) error { return ErrNoEngine }

func (o *Offline) ProfilePicURL(ctx context.Context, chatID string) (string, error) {
	return "", ErrNoEngine
}

func (o *Offline) Events() <-chan Event { return o.events }

var _ Client = (*Offline)(nil)
