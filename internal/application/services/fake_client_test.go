package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/UpperPublicidade/upperchat-go/internal/domain/bridge"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/chat"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/session"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/whatsapp"
)

// fakeClient is the in-package test double for the wrapped messaging client.
type fakeClient struct {
	mu sync.Mutex

	events chan whatsapp.Event

	state    string
	stateErr error

	info    *session.Identity
	infoErr error

	chats    []chat.Chat
	chatsErr error

	// messages per chat id, oldest first
	messages    map[string][]chat.Message
	messagesErr map[string]error

	media    map[string]chat.MediaPayload
	mediaErr error

	avatars   map[string]string
	avatarErr error

	sendErr error

	initErr    error
	destroyErr error
	logoutErr  error

	// call records
	initCalls     int
	destroyCalls  int
	logoutCalls   int
	fetchedChats  []string
	sentMessages  []string
	downloadCalls []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		events:      make(chan whatsapp.Event, 16),
		messages:    make(map[string][]chat.Message),
		messagesErr: make(map[string]error),
		media:       make(map[string]chat.MediaPayload),
		avatars:     make(map[string]string),
	}
}

func (f *fakeClient) Initialize() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	return f.initErr
}

func (f *fakeClient) Destroy() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyCalls++
	return f.destroyErr
}

func (f *fakeClient) Logout() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeClient) State(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.stateErr
}

func (f *fakeClient) Info() (*session.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info, f.infoErr
}

func (f *fakeClient) Chats(ctx context.Context) ([]chat.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chats, f.chatsErr
}

func (f *fakeClient) ChatByID(ctx context.Context, id string) (chat.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.chats {
		if c.ID == id {
			return c, nil
		}
	}
	return chat.Chat{}, fmt.Errorf("%w: %s", bridge.ErrChatNotFound, id)
}

func (f *fakeClient) Messages(ctx context.Context, chatID string, limit int) ([]chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchedChats = append(f.fetchedChats, chatID)
	if err := f.messagesErr[chatID]; err != nil {
		return nil, err
	}
	msgs := f.messages[chatID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]chat.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (f *fakeClient) DownloadMedia(ctx context.Context, msg chat.Message) (chat.MediaPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloadCalls = append(f.downloadCalls, msg.ID)
	if f.mediaErr != nil {
		return chat.MediaPayload{}, f.mediaErr
	}
	return f.media[msg.ID], nil
}

func (f *fakeClient) Send(ctx context.Context, chatID, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentMessages = append(f.sentMessages, chatID+"|"+body)
	return nil
}

func (f *fakeClient) ProfilePicURL(ctx context.Context, chatID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.avatars[chatID], f.avatarErr
}

func (f *fakeClient) Events() <-chan whatsapp.Event {
	return f.events
}

func (f *fakeClient) fetchedChatIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.fetchedChats))
	copy(out, f.fetchedChats)
	return out
}

func (f *fakeClient) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sentMessages))
	copy(out, f.sentMessages)
	return out
}

func (f *fakeClient) calls() (init, destroy, logout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initCalls, f.destroyCalls, f.logoutCalls
}
