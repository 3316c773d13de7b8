// Package bridge defines the error taxonomy shared by the bridge services and
// the HTTP boundary.
package bridge

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions the HTTP layer maps to stable error codes.
// Failures from the wrapped client are wrapped with %w so callers can match
// the category while the response carries the underlying detail.
var (
	// ErrNotReady is returned by every operation that requires the session
	// to be in the ready phase.
	ErrNotReady = errors.New("client_not_ready")

	// ErrGroupNotAllowed rejects operations on group chats. The bridge only
	// serves one-to-one conversations.
	ErrGroupNotAllowed = errors.New("group_chat_not_allowed")

	// ErrChatNotFound indicates the referenced conversation does not exist.
	ErrChatNotFound = errors.New("chat_not_found")

	// ErrMessageNotFound indicates the referenced message does not exist.
	ErrMessageNotFound = errors.New("message_not_found")

	// ErrNoMedia indicates the referenced message carries no media.
	ErrNoMedia = errors.New("message_has_no_media")

	// ErrNoAvatar indicates the chat has no profile picture to redirect to.
	ErrNoAvatar = errors.New("no_avatar")

	// ErrInvalidRequest indicates malformed or out-of-range input.
	ErrInvalidRequest = errors.New("missing_params")
)

// ExternalError wraps a failure reported by the wrapped messaging client so
// no raw client error escapes to the transport uninterpreted.
type ExternalError struct {
	Op  string // operation that called into the client, e.g. "restart"
	Err error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s_failed: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

// Code returns the stable error code for the wrapped operation.
func (e *ExternalError) Code() string { return e.Op + "_failed" }

// External wraps err as an ExternalError for op. Returns nil when err is nil.
func External(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ExternalError{Op: op, Err: err}
}
