package handler

import (
	"messagely/internal/service"
	"messagely/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users    *service.UserService
	messages *service.MessageService
}

func NewUserHandler(users *service.UserService, messages *service.MessageService) *UserHandler {
	return &UserHandler{users: users, messages: messages}
}

// List GET /users => {users: [{username, first_name, last_name, phone}]}
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"users": response.FilterUserSummaries(users)})
}

// Get GET /users/:username
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"user": response.FilterUserDetail(user)})
}

// MessagesTo GET /users/:username/to
func (h *UserHandler) MessagesTo(c *gin.Context) {
	messages, err := h.messages.MessagesTo(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"messages": response.FilterReceivedMessages(messages)})
}

// MessagesFrom GET /users/:username/from
func (h *UserHandler) MessagesFrom(c *gin.Context) {
	messages, err := h.messages.MessagesFrom(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"messages": response.FilterSentMessages(messages)})
}
