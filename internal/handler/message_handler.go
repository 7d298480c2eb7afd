package handler

import (
	"messagely/internal/middleware"
	"messagely/internal/service"
	"messagely/pkg/response"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messages *service.MessageService
}

func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Create POST /messages {to_username, body}. The sender is the verified
// caller, never a body field.
func (h *MessageHandler) Create(c *gin.Context) {
	var req struct {
		ToUsername string `json:"to_username" binding:"required"`
		Body       string `json:"body" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.messages.Create(c.Request.Context(), middleware.Username(c), req.ToUsername, req.Body)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"message": response.FilterCreatedMessage(message)})
}

// Get GET /messages/:id
func (h *MessageHandler) Get(c *gin.Context) {
	message, err := h.messages.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"message": response.FilterMessageDetail(message)})
}

// MarkRead POST /messages/:id/read => {message: {id, read_at}}
func (h *MessageHandler) MarkRead(c *gin.Context) {
	message, err := h.messages.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"message": response.FilterReadReceipt(message)})
}
