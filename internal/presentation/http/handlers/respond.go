// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"

	"github.com/UpperPublicidade/upperchat-go/internal/domain/bridge"
)

// errorStatus maps an error from the application layer to the HTTP status and
// stable error code the browser clients key on.
func errorStatus(err error) (int, string) {
	var ext *bridge.ExternalError
	switch {
	case errors.Is(err, bridge.ErrNotReady):
		return http.StatusBadRequest, bridge.ErrNotReady.Error()
	case errors.Is(err, bridge.ErrGroupNotAllowed):
		return http.StatusBadRequest, bridge.ErrGroupNotAllowed.Error()
	case errors.Is(err, bridge.ErrChatNotFound):
		return http.StatusNotFound, bridge.ErrChatNotFound.Error()
	case errors.Is(err, bridge.ErrMessageNotFound):
		return http.StatusNotFound, bridge.ErrMessageNotFound.Error()
	case errors.Is(err, bridge.ErrNoMedia):
		return http.StatusBadRequest, bridge.ErrNoMedia.Error()
	case errors.Is(err, bridge.ErrNoAvatar):
		return http.StatusNotFound, bridge.ErrNoAvatar.Error()
	case errors.Is(err, bridge.ErrInvalidRequest):
		return http.StatusBadRequest, bridge.ErrInvalidRequest.Error()
	case errors.As(err, &ext):
		return http.StatusInternalServerError, ext.Code()
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
