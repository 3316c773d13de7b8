package services

import (
	"context"
	"encoding/base64"
	"errors"
	"sort"
	"strings"

	"github.com/UpperPublicidade/upperchat-go/internal/domain/bridge"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/chat"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/session"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/caching/media"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/logging"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/whatsapp"
	"github.com/gabriel-vasile/mimetype"
)

// MessageService answers the on-demand queries against the wrapped session:
// recent messages across conversations, per-conversation history, media
// retrieval, sends, and avatar lookup. Group conversations are out of scope
// for every operation here.
type MessageService struct {
	client     whatsapp.Client
	state      *session.State
	mediaCache *media.Store
	logger     *logging.ChanneledLogger

	recentDefault  int
	recentMax      int
	historyDefault int
	historyMax     int
	mediaScanDepth int
}

// MessageLimits carries the clamping bounds for the query operations.
type MessageLimits struct {
	RecentDefault  int
	RecentMax      int
	HistoryDefault int
	HistoryMax     int
	MediaScanDepth int
}

// NewMessageService creates the query service.
func NewMessageService(client whatsapp.Client, state *session.State, mediaCache *media.Store, logger *logging.ChanneledLogger, limits MessageLimits) *MessageService {
	return &MessageService{
		client:         client,
		state:          state,
		mediaCache:     mediaCache,
		logger:         logger,
		recentDefault:  limits.RecentDefault,
		recentMax:      limits.RecentMax,
		historyDefault: limits.HistoryDefault,
		historyMax:     limits.HistoryMax,
		mediaScanDepth: limits.MediaScanDepth,
	}
}

func clampLimit(requested, def, max int) int {
	if requested <= 0 {
		return def
	}
	if requested > max {
		return max
	}
	return requested
}

// Recent collects the latest message of each direct conversation, newest
// first, optionally filtered by message type. Before the session is ready it
// returns an empty list rather than an error so pollers can run
// unconditionally. Conversations whose fetch fails are skipped, not fatal.
func (m *MessageService) Recent(ctx context.Context, limit int, typeFilter string) ([]chat.ChatMessage, error) {
	if !m.state.Ready() {
		return []chat.ChatMessage{}, nil
	}

	limit = clampLimit(limit, m.recentDefault, m.recentMax)

	chats, err := m.client.Chats(ctx)
	if err != nil {
		return nil, bridge.External("recent", err)
	}

	items := make([]chat.ChatMessage, 0, limit)
	for _, c := range chats {
		if c.IsGroup {
			continue
		}
		msgs, err := m.client.Messages(ctx, c.ID, 1)
		if err != nil {
			m.logger.WA().Debug("Skipping conversation in recent scan", "chatId", c.ID, "error", err.Error())
			continue
		}
		if len(msgs) == 0 {
			continue
		}
		latest := msgs[len(msgs)-1]
		if typeFilter != "" && latest.Type != typeFilter {
			continue
		}
		items = append(items, chat.ChatMessage{Chat: c, Message: latest})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Message.Timestamp > items[j].Message.Timestamp
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// History returns up to limit messages of one direct conversation, oldest
// first. Group conversations are rejected before any message fetch happens.
func (m *MessageService) History(ctx context.Context, chatID string, limit int) (chat.Chat, []chat.Message, error) {
	if !m.state.Ready() {
		return chat.Chat{}, nil, bridge.ErrNotReady
	}

	limit = clampLimit(limit, m.historyDefault, m.historyMax)

	c, err := m.client.ChatByID(ctx, chatID)
	if err != nil {
		return chat.Chat{}, nil, err
	}
	if c.IsGroup {
		return chat.Chat{}, nil, bridge.ErrGroupNotAllowed
	}

	msgs, err := m.client.Messages(ctx, chatID, limit)
	if err != nil {
		return chat.Chat{}, nil, bridge.External("history", err)
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp < msgs[j].Timestamp
	})
	return c, msgs, nil
}

// Media returns the cached blob for a message id, downloading on a cache miss
// by scanning recent messages of each direct conversation up to the
// configured depth. Successful downloads populate the cache for subsequent
// hits.
func (m *MessageService) Media(ctx context.Context, messageID string) (chat.MediaPayload, error) {
	if !m.state.Ready() {
		return chat.MediaPayload{}, bridge.ErrNotReady
	}

	if entry, ok := m.mediaCache.Get(messageID); ok {
		m.logger.Cache().Debug("Media cache hit", "messageId", messageID)
		return chat.MediaPayload{MimeType: entry.MimeType, Data: entry.Data}, nil
	}

	msg, found, err := m.findMessage(ctx, messageID)
	if err != nil {
		return chat.MediaPayload{}, err
	}
	if !found {
		return chat.MediaPayload{}, bridge.ErrMessageNotFound
	}
	if !msg.HasMedia {
		return chat.MediaPayload{}, bridge.ErrNoMedia
	}

	payload, err := m.client.DownloadMedia(ctx, msg)
	if err != nil {
		return chat.MediaPayload{}, bridge.External("download", err)
	}
	if payload.Data == "" {
		return chat.MediaPayload{}, bridge.External("download", errDecodedEmpty)
	}
	if payload.MimeType == "" {
		payload.MimeType = sniffMimeType(payload.Data)
	}

	m.mediaCache.Put(messageID, payload)
	m.logger.Cache().Debug("Media cached on demand", "messageId", messageID, "mimeType", payload.MimeType)
	return payload, nil
}

// findMessage scans direct conversations for a message id. The scan is
// bounded per conversation; messages older than the scan depth are simply
// not found.
func (m *MessageService) findMessage(ctx context.Context, messageID string) (chat.Message, bool, error) {
	chats, err := m.client.Chats(ctx)
	if err != nil {
		return chat.Message{}, false, bridge.External("download", err)
	}
	for _, c := range chats {
		if c.IsGroup {
			continue
		}
		msgs, err := m.client.Messages(ctx, c.ID, m.mediaScanDepth)
		if err != nil {
			continue
		}
		for _, msg := range msgs {
			if msg.ID == messageID {
				return msg, true, nil
			}
		}
	}
	return chat.Message{}, false, nil
}

// Send delivers a text message to one direct conversation.
func (m *MessageService) Send(ctx context.Context, chatID, body string) error {
	if !m.state.Ready() {
		return bridge.ErrNotReady
	}
	if strings.TrimSpace(chatID) == "" || strings.TrimSpace(body) == "" {
		return bridge.ErrInvalidRequest
	}

	c, err := m.client.ChatByID(ctx, chatID)
	if err != nil {
		return err
	}
	if c.IsGroup {
		return bridge.ErrGroupNotAllowed
	}

	if err := m.client.Send(ctx, chatID, body); err != nil {
		return bridge.External("send", err)
	}
	return nil
}

// AvatarURL resolves the avatar of a conversation.
func (m *MessageService) AvatarURL(ctx context.Context, chatID string) (string, error) {
	if !m.state.Ready() {
		return "", bridge.ErrNotReady
	}
	url, err := m.client.ProfilePicURL(ctx, chatID)
	if err != nil {
		return "", bridge.External("avatar", err)
	}
	if url == "" {
		return "", bridge.ErrNoAvatar
	}
	return url, nil
}

// sniffMimeType detects the content type of a base64 blob when the client did
// not report one. Detection failures fall back to a generic binary type.
func sniffMimeType(data string) string {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil || len(raw) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(raw).String()
}

var errDecodedEmpty = errors.New("client returned empty media payload")
