package router

import (
	"messagely/internal/handler"
	"messagely/internal/middleware"
	"messagely/pkg/logger"
	"messagely/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// Deps is everything the HTTP surface is assembled from.
type Deps struct {
	Guards    *middleware.Authenticator
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Messages  *handler.MessageHandler
	Health    *handler.HealthHandler
	WebSocket *websocket.Handler // optional
}

// New builds the gin engine with the logging middlewares and every route.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(logger.LoggerMiddleware())
	r.Use(logger.ErrorLoggerMiddleware())

	if d.Health != nil {
		r.GET("/health", d.Health.Health)
	}

	auth := r.Group("/auth")
	{
		auth.POST("/login", d.Auth.Login)
		auth.POST("/register", d.Auth.Register)
	}

	users := r.Group("/users")
	{
		users.GET("", d.Guards.LoggedIn(), d.Users.List)
		users.GET("/:username", d.Guards.CorrectUser(), d.Users.Get)
		users.GET("/:username/to", d.Guards.CorrectUser(), d.Users.MessagesTo)
		users.GET("/:username/from", d.Guards.CorrectUser(), d.Users.MessagesFrom)
	}

	messages := r.Group("/messages")
	{
		messages.POST("", d.Guards.LoggedIn(), d.Messages.Create)
		messages.GET("/:id", d.Guards.SenderOrRecipient(), d.Guards.CorrectUser(), d.Messages.Get)
		messages.POST("/:id/read", d.Guards.Recipient(), d.Guards.LoggedIn(), d.Messages.MarkRead)
	}

	if d.WebSocket != nil {
		r.GET("/ws", d.Guards.LoggedIn(), d.WebSocket.Serve)
	}

	return r
}
