package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/UpperPublicidade/upperchat-go/internal/application/services"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/bridge"
	"github.com/UpperPublicidade/upperchat-go/internal/domain/chat"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/logging"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// MessageHandlers serves the message query and send surface.
type MessageHandlers struct {
	messageService *services.MessageService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewMessageHandlers creates message handlers with injected dependencies.
func NewMessageHandlers(messageService *services.MessageService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *MessageHandlers {
	return &MessageHandlers{
		messageService: messageService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// GetRecent handles GET /messages/recent
func (h *MessageHandlers) GetRecent(c *gin.Context) {
	marker := h.perfTracker.StartOperation("get_recent_messages_request")
	defer marker.Complete()

	limit, _ := strconv.Atoi(c.Query("limit"))
	typeFilter := strings.ToLower(c.DefaultQuery("type", "all"))
	if typeFilter == "all" {
		typeFilter = ""
	}

	items, err := h.messageService.Recent(c.Request.Context(), limit, typeFilter)
	if err != nil {
		h.logger.WA().Error("Recent messages fetch failed", "error", err.Error())
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_fetch_recent_messages"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

// GetChatHistory handles GET /messages/chat/:chatId
func (h *MessageHandlers) GetChatHistory(c *gin.Context) {
	marker := h.perfTracker.StartOperation("get_chat_history_request")
	defer marker.Complete()

	chatID := c.Param("chatId")
	limit, _ := strconv.Atoi(c.Query("limit"))

	conversation, messages, err := h.messageService.History(c.Request.Context(), chatID, limit)
	if err != nil {
		h.logger.WA().Error("Chat history fetch failed", "chatId", chatID, "error", err.Error())
		marker.SetError(err)
		status, code := errorStatus(err)
		c.JSON(status, gin.H{"success": false, "error": code})
		return
	}

	items := make([]chat.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		items = append(items, chat.ChatMessage{Chat: conversation, Message: msg})
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "items": items})
}

// GetMedia handles GET /messages/media/:messageId
func (h *MessageHandlers) GetMedia(c *gin.Context) {
	marker := h.perfTracker.StartOperation("get_media_request")
	defer marker.Complete()

	messageID := strings.TrimSpace(c.Param("messageId"))
	if messageID == "" {
		marker.SetError(bridge.ErrInvalidRequest)
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing_message_id"})
		return
	}

	payload, err := h.messageService.Media(c.Request.Context(), messageID)
	if err != nil {
		h.logger.WA().Error("Media fetch failed", "messageId", messageID, "error", err.Error())
		marker.SetError(err)
		status, code := errorStatus(err)
		c.JSON(status, gin.H{"ok": false, "error": code})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"ok": true, "mimetype": payload.MimeType, "data": payload.Data})
}

// SendMessage handles POST /messages/send
func (h *MessageHandlers) SendMessage(c *gin.Context) {
	marker := h.perfTracker.StartOperation("send_message_request")
	defer marker.Complete()

	var req struct {
		ChatID  string `json:"chatId"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing_params"})
		return
	}

	if err := h.messageService.Send(c.Request.Context(), req.ChatID, req.Message); err != nil {
		h.logger.WA().Error("Send failed", "chatId", req.ChatID, "error", err.Error())
		marker.SetError(err)
		status, code := errorStatus(err)
		c.JSON(status, gin.H{"ok": false, "error": code})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetAvatar handles GET /avatar/:chatId
func (h *MessageHandlers) GetAvatar(c *gin.Context) {
	marker := h.perfTracker.StartOperation("get_avatar_request")
	defer marker.Complete()

	chatID := strings.TrimSpace(c.Param("chatId"))
	url, err := h.messageService.AvatarURL(c.Request.Context(), chatID)
	if err != nil {
		marker.SetError(err)
		status, code := errorStatus(err)
		c.JSON(status, gin.H{"ok": false, "error": code})
		return
	}

	marker.SetSuccess(true)
	c.Redirect(http.StatusFound, url)
}
