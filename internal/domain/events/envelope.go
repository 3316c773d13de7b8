// Package events defines the envelope pushed to subscribers and its closed
// set of payload types.
package events

import (
	"time"

	"github.com/UpperPublicidade/upperchat-go/internal/domain/chat"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/session"
	"github.com/oklog/ulid/v2"
)

// Type tags an envelope. The set is closed; consumers ignore unknown tags.
type Type string

const (
	TypeInit          Type = "init"
	TypeQR            Type = "qr"
	TypeAuthenticated Type = "authenticated"
	TypeReady         Type = "ready"
	TypeStatus        Type = "status"
	TypeDisconnected  Type = "disconnected"
	TypeAuthFailure   Type = "auth_failure"
	TypeMessage       Type = "message"
)

// Envelope is one typed, timestamped unit of pushed information. Envelopes are
// immutable after creation and are not retained anywhere: late subscribers get
// a fresh init snapshot, never a replay.
type Envelope struct {
	Type      Type  `json:"type"`
	Payload   any   `json:"payload"`
	Timestamp int64 `json:"timestamp"` // unix milliseconds at emission

	// EventID is an opaque unique token subscribers use for de-duplication.
	EventID string `json:"eventId"`
}

// New creates an envelope for payload, stamping it with the current time and
// a fresh ULID.
func New(t Type, payload any) Envelope {
	return Envelope{
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
		EventID:   ulid.Make().String(),
	}
}

// QRPayload carries a freshly issued scannable login code.
type QRPayload struct {
	QR string `json:"qr"`
}

// StatusPayload reflects the session's readiness and advisory identity.
type StatusPayload struct {
	Ready bool              `json:"ready"`
	Info  *session.Identity `json:"info"`
}

// DisconnectedPayload carries the reason reported by the upstream client.
type DisconnectedPayload struct {
	Reason string `json:"reason"`
}

// AuthFailurePayload carries the upstream authentication failure message.
type AuthFailurePayload struct {
	Message string `json:"message"`
}

// MessagePayload carries one inbound message plus the display name of its
// conversation when the upstream client knows it.
type MessagePayload struct {
	Message  chat.Message `json:"message"`
	ChatName string       `json:"chatName,omitempty"`
}

// InitPayload is the snapshot delivered as every subscriber's first envelope.
type InitPayload struct {
	Ready    bool              `json:"ready"`
	Info     *session.Identity `json:"info"`
	ClientID string            `json:"clientId"`
}
