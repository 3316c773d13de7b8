// Package streamclient is the consumer-side SDK for the bridge's event
// stream and query surface. It mirrors what a browser client does: one
// long-lived subscription with automatic reconnection, a local conversation
// view rebuilt from envelopes plus on-demand pulls, and a bounded media
// cache.
package streamclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ConnState is the connection lifecycle of one consumer.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateStreaming
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	default:
		return "disconnected"
	}
}

// Envelope is one pushed event as it arrives on the wire. Payload stays raw
// until the type is known.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
	EventID   string          `json:"eventId"`
}

// Identity mirrors the session identity the bridge exposes.
type Identity struct {
	PushName string `json:"pushname"`
	WID      string `json:"wid"`
	Platform string `json:"platform"`
}

// Message mirrors the bridge's message shape.
type Message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	FromMe    bool   `json:"fromMe"`
	Ack       int    `json:"ack"`
	Type      string `json:"type"`
	HasMedia  bool   `json:"hasMedia"`
	MediaKey  string `json:"mediaKey,omitempty"`
}

// ChatSummary mirrors the bridge's conversation shape.
type ChatSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsGroup bool   `json:"isGroup"`
	Avatar  string `json:"avatar,omitempty"`
}

// ChatMessage pairs a message with its conversation in list responses.
type ChatMessage struct {
	Chat    ChatSummary `json:"chat"`
	Message Message     `json:"message"`
}

// Status is the bridge's point-in-time status answer.
type Status struct {
	Ready bool      `json:"ready"`
	State string    `json:"state"`
	Info  *Identity `json:"info"`
}

// Media is one fetched media blob, base64 as on the wire.
type Media struct {
	MimeType string `json:"mimetype"`
	Data     string `json:"data"`
}

type statusPayload struct {
	Ready bool      `json:"ready"`
	Info  *Identity `json:"info"`
}

type qrPayload struct {
	QR string `json:"qr"`
}

type disconnectedPayload struct {
	Reason string `json:"reason"`
}

type authFailurePayload struct {
	Message string `json:"message"`
}

type messagePayload struct {
	Message  Message `json:"message"`
	ChatName string  `json:"chatName"`
}

// Handlers are the optional callbacks a consumer can hook. All callbacks run
// on the stream goroutine; keep them short.
type Handlers struct {
	// OnQR fires when a fresh scannable login code arrives.
	OnQR func(code string)

	// OnReadyChange fires on every observed readiness flip.
	OnReadyChange func(ready bool, info *Identity)

	// OnMessage fires for every accepted (non-duplicate) message envelope.
	OnMessage func(msg Message, chatName string)

	// OnReauthRequired fires on disconnected and auth_failure envelopes; the
	// consumer should resurface the scannable code flow.
	OnReauthRequired func(reason string)
}

// Config configures a Client. BaseURL is required.
type Config struct {
	BaseURL        string
	HTTPClient     *http.Client
	ReconnectDelay time.Duration
	Logger         *slog.Logger

	// MessageHeight estimates the rendered height of a message bubble so
	// the transcript can keep its scroll anchor. Nil uses a flat estimate.
	MessageHeight func(TranscriptMessage) float64

	Handlers Handlers
}

const (
	defaultReconnectDelay = 3 * time.Second
	dedupWindow           = 512
	mediaCacheCapacity    = 100
	flatMessageHeight     = 48
)

// Client is one consumer instance: a subscription, a conversation view, an
// open-transcript anchor, and the query operations.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	reconnectDelay time.Duration
	logger         *slog.Logger
	handlers       Handlers
	messageHeight  func(TranscriptMessage) float64

	threads *ThreadSet

	mu           sync.Mutex
	state        ConnState
	lastReady    bool
	bootstrapped bool
	transcript   *Transcript
	seen         map[string]struct{}
	seenOrder    []string
	mediaCache   map[string]Media
	mediaOrder   []string
}

// New creates a Client. It does not connect; call Run.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("streamclient: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("streamclient: invalid BaseURL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = defaultReconnectDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	height := cfg.MessageHeight
	if height == nil {
		height = func(TranscriptMessage) float64 { return flatMessageHeight }
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		httpClient:     httpClient,
		reconnectDelay: delay,
		logger:         logger,
		handlers:       cfg.Handlers,
		messageHeight:  height,
		threads:        NewThreadSet(),
		seen:           make(map[string]struct{}),
		mediaCache:     make(map[string]Media),
	}, nil
}

// Threads exposes the conversation view.
func (c *Client) Threads() *ThreadSet {
	return c.threads
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Open marks a conversation as the one on screen. Incoming messages for it
// are appended to the returned transcript with scroll-anchor preservation;
// messages for other conversations only touch the thread set.
func (c *Client) Open(chatID string, view Viewport) *Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = &Transcript{ChatID: chatID, View: view}
	return c.transcript
}

// Close clears the open conversation.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = nil
}

var errStreamEnded = errors.New("streamclient: event stream ended")

// Run connects to the event stream and consumes it until ctx is cancelled,
// reconnecting after a constant delay on every stream failure or clean end.
func (c *Client) Run(ctx context.Context) error {
	bo := backoff.WithContext(backoff.NewConstantBackOff(c.reconnectDelay), ctx)

	err := backoff.Retry(func() error {
		c.setState(StateConnecting)
		err := c.stream(ctx)
		c.setState(StateDisconnected)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		c.logger.Warn("Event stream dropped, reconnecting", "error", err.Error(), "delay", c.reconnectDelay)
		return err
	}, bo)

	c.setState(StateDisconnected)
	return err
}

func (c *Client) stream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("streamclient: subscription rejected with status %d", resp.StatusCode)
	}

	c.setState(StateStreaming)
	c.logger.Info("Event stream connected")

	scanner := newSSEScanner(resp.Body)
	for scanner.Next() {
		var envelope Envelope
		if err := json.Unmarshal([]byte(scanner.Frame().Data), &envelope); err != nil {
			// Malformed frames are skipped, not fatal.
			continue
		}
		c.apply(ctx, envelope)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errStreamEnded
}

// apply routes one envelope into the local view. Duplicate eventIds within
// the dedup window are dropped.
func (c *Client) apply(ctx context.Context, envelope Envelope) {
	if envelope.EventID != "" && c.isDuplicate(envelope.EventID) {
		return
	}

	switch envelope.Type {
	case "init":
		var p statusPayload
		if json.Unmarshal(envelope.Payload, &p) == nil {
			c.applyReady(ctx, p.Ready, p.Info)
		}
	case "status":
		var p statusPayload
		if json.Unmarshal(envelope.Payload, &p) == nil {
			c.applyReady(ctx, p.Ready, p.Info)
		}
	case "ready":
		c.applyReady(ctx, true, nil)
	case "qr":
		var p qrPayload
		if json.Unmarshal(envelope.Payload, &p) == nil && p.QR != "" && c.handlers.OnQR != nil {
			c.handlers.OnQR(p.QR)
		}
	case "message":
		var p messagePayload
		if json.Unmarshal(envelope.Payload, &p) == nil {
			c.applyMessage(p)
		}
	case "disconnected":
		var p disconnectedPayload
		json.Unmarshal(envelope.Payload, &p)
		c.applyReady(ctx, false, nil)
		if c.handlers.OnReauthRequired != nil {
			c.handlers.OnReauthRequired(p.Reason)
		}
	case "auth_failure":
		var p authFailurePayload
		json.Unmarshal(envelope.Payload, &p)
		c.applyReady(ctx, false, nil)
		if c.handlers.OnReauthRequired != nil {
			c.handlers.OnReauthRequired(p.Message)
		}
	}
}

func (c *Client) isDuplicate(eventID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[eventID]; ok {
		return true
	}
	c.seen[eventID] = struct{}{}
	c.seenOrder = append(c.seenOrder, eventID)
	if len(c.seenOrder) > dedupWindow {
		oldest := c.seenOrder[0]
		c.seenOrder = c.seenOrder[1:]
		delete(c.seen, oldest)
	}
	return false
}

// applyReady tracks readiness flips. The first observed transition to ready
// triggers exactly one recent-messages pull; reconnects within the same
// client lifetime do not repeat it.
func (c *Client) applyReady(ctx context.Context, ready bool, info *Identity) {
	c.mu.Lock()
	transitioned := ready && !c.lastReady
	needsBootstrap := transitioned && !c.bootstrapped
	if needsBootstrap {
		c.bootstrapped = true
	}
	c.lastReady = ready
	c.mu.Unlock()

	if c.handlers.OnReadyChange != nil {
		c.handlers.OnReadyChange(ready, info)
	}

	if needsBootstrap {
		if err := c.bootstrap(ctx); err != nil {
			c.logger.Warn("Recent messages bootstrap failed", "error", err.Error())
		}
	}
}

func (c *Client) bootstrap(ctx context.Context) error {
	items, err := c.Recent(ctx, 0, "")
	if err != nil {
		return err
	}
	for _, item := range items {
		c.threads.Upsert(
			item.Chat.ID,
			item.Chat.Name,
			item.Message.Timestamp,
			previewFor(item.Message.Type, item.Message.Body),
			item.Chat.Avatar,
		)
	}
	return nil
}

func (c *Client) applyMessage(p messagePayload) {
	m := p.Message
	chatID := m.From
	if m.FromMe {
		chatID = m.To
	}

	name := p.ChatName
	if name == "" {
		name = chatID
	}
	c.threads.Upsert(chatID, name, m.Timestamp, previewFor(m.Type, m.Body), "")

	c.mu.Lock()
	if c.transcript != nil && c.transcript.ChatID == chatID {
		bubble := TranscriptMessage{
			ID:        m.ID,
			FromMe:    m.FromMe,
			Body:      m.Body,
			Timestamp: m.Timestamp,
			Type:      m.Type,
			HasMedia:  m.HasMedia,
		}
		c.transcript.Append(bubble, c.messageHeight(bubble))
	}
	c.mu.Unlock()

	if c.handlers.OnMessage != nil {
		c.handlers.OnMessage(m, p.ChatName)
	}
}

// ===== Query surface =====

// Status fetches the bridge's point-in-time status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var out Status
	err := c.getJSON(ctx, "/status", nil, &out)
	return out, err
}

// Recent fetches the latest message per direct conversation, newest first.
// A non-positive limit uses the server default; typeFilter "" means all.
func (c *Client) Recent(ctx context.Context, limit int, typeFilter string) ([]ChatMessage, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if typeFilter != "" {
		query.Set("type", typeFilter)
	}

	var out struct {
		Count int           `json:"count"`
		Items []ChatMessage `json:"items"`
	}
	if err := c.getJSON(ctx, "/messages/recent", query, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// History fetches one conversation's messages, oldest first.
func (c *Client) History(ctx context.Context, chatID string, limit int) ([]ChatMessage, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var out struct {
		Success bool          `json:"success"`
		Error   string        `json:"error"`
		Count   int           `json:"count"`
		Items   []ChatMessage `json:"items"`
	}
	if err := c.getJSON(ctx, "/messages/chat/"+url.PathEscape(chatID), query, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("streamclient: history failed: %s", out.Error)
	}
	return out.Items, nil
}

// FetchMedia returns the media blob for a message, consulting the local
// cache first. Successful fetches populate the cache.
func (c *Client) FetchMedia(ctx context.Context, messageID string) (Media, error) {
	c.mu.Lock()
	if cached, ok := c.mediaCache[messageID]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	var out struct {
		OK       bool   `json:"ok"`
		Error    string `json:"error"`
		MimeType string `json:"mimetype"`
		Data     string `json:"data"`
	}
	if err := c.getJSON(ctx, "/messages/media/"+url.PathEscape(messageID), nil, &out); err != nil {
		return Media{}, err
	}
	if !out.OK {
		return Media{}, fmt.Errorf("streamclient: media fetch failed: %s", out.Error)
	}

	media := Media{MimeType: out.MimeType, Data: out.Data}
	c.mu.Lock()
	if _, exists := c.mediaCache[messageID]; !exists {
		if len(c.mediaCache) >= mediaCacheCapacity {
			oldest := c.mediaOrder[0]
			c.mediaOrder = c.mediaOrder[1:]
			delete(c.mediaCache, oldest)
		}
		c.mediaOrder = append(c.mediaOrder, messageID)
	}
	c.mediaCache[messageID] = media
	c.mu.Unlock()

	return media, nil
}

// Send delivers a text message through the bridge.
func (c *Client) Send(ctx context.Context, chatID, body string) error {
	payload, err := json.Marshal(map[string]string{"chatId": chatID, "message": body})
	if err != nil {
		return err
	}

	var out struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := c.postJSON(ctx, "/messages/send", payload, &out); err != nil {
		return err
	}
	if !out.OK {
		return fmt.Errorf("streamclient: send failed: %s", out.Error)
	}
	return nil
}

// Restart asks the bridge to re-initialize the wrapped session. The local
// bootstrap guard is intentionally left set: the next ready transition will
// not refetch conversations already on screen.
func (c *Client) Restart(ctx context.Context) error {
	return c.control(ctx, "/session/restart")
}

// Logout terminates the wrapped session.
func (c *Client) Logout(ctx context.Context) error {
	return c.control(ctx, "/disconnect")
}

func (c *Client) control(ctx context.Context, path string) error {
	var out struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := c.postJSON(ctx, path, nil, &out); err != nil {
		return err
	}
	if !out.OK {
		return fmt.Errorf("streamclient: %s failed: %s", path, out.Error)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Error responses carry the same JSON shapes; decode regardless of
	// status so the caller sees the structured code.
	return json.NewDecoder(resp.Body).Decode(out)
}
