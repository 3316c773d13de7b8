// Package chat defines the wire types for conversations and messages as the
// browser clients consume them.
package chat

// Chat is one conversation as presented to subscribers.
type Chat struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsGroup bool   `json:"isGroup"`
	Avatar  string `json:"avatar,omitempty"`
}

// Message is one message as presented to subscribers. Timestamp is unix
// seconds, matching the upstream client.
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
	// MediaKey is the key under which this message's media is cached; set to
	// the message id for media-bearing messages, empty otherwise.
	MediaKey string `json:"mediaKey,omitempty"`
}

// ChatMessage pairs a message with its conversation for list responses.
type ChatMessage struct {
	Chat    Chat    `json:"chat"`
	Message Message `json:"message"`
}

// MediaPayload is a downloaded media blob. Data is base64-encoded, exactly as
// it travels on the wire; the bridge never decodes it.
type MediaPayload struct {
	MimeType string `json:"mimetype"`
	Data     string `json:"data"`
}
