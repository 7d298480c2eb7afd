package middleware

import (
	"context"
	"errors"

	"messagely/config"
	"messagely/internal/model"
	"messagely/pkg/errs"
	"messagely/pkg/logger"
	"messagely/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// rejection reasons, logged and never sent to the client
const (
	reasonMissingToken   = "missing_token"
	reasonInvalidToken   = "invalid_token"
	reasonUserMismatch   = "user_mismatch"
	reasonNotParticipant = "not_participant"
	reasonNotRecipient   = "not_recipient"
	reasonLookupFailed   = "message_lookup_failed"
)

// TokenVerifier maps a token to the username it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// ParticipantSource resolves the sender and recipient of a message.
type ParticipantSource interface {
	Participants(ctx context.Context, id string) (model.Participants, error)
}

// Authenticator builds the route guards. Guards on one route are ANDed; the
// token is verified once and the result reused by the guards that follow.
type Authenticator struct {
	tokens      TokenVerifier
	messages    ParticipantSource
	field       string
	allowBearer bool
}

func NewAuthenticator(tokens TokenVerifier, messages ParticipantSource, cfg config.AuthConfig) *Authenticator {
	return &Authenticator{
		tokens:      tokens,
		messages:    messages,
		field:       cfg.TokenField,
		allowBearer: cfg.AllowBearer,
	}
}

// Username returns the verified identity set by a guard, or "".
func Username(c *gin.Context) string {
	return c.GetString(logger.UsernameKey)
}

// LoggedIn admits any request carrying a valid token.
func (a *Authenticator) LoggedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.identify(c); !ok {
			return
		}
		c.Next()
	}
}

// CorrectUser admits the user named by the :username path parameter. On a
// route without that parameter it behaves like LoggedIn.
func (a *Authenticator) CorrectUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := a.identify(c)
		if !ok {
			return
		}
		if target := c.Param("username"); target != "" && target != username {
			reject(c, reasonUserMismatch, zap.String("username", username), zap.String("target", target))
			return
		}
		c.Next()
	}
}

// SenderOrRecipient admits the sender or the recipient of message :id.
func (a *Authenticator) SenderOrRecipient() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := a.identify(c)
		if !ok {
			return
		}
		p, ok := a.participants(c, username)
		if !ok {
			return
		}
		if !p.Includes(username) {
			reject(c, reasonNotParticipant, zap.String("username", username), zap.String("message_id", c.Param("id")))
			return
		}
		c.Next()
	}
}

// Recipient admits only the recipient of message :id.
func (a *Authenticator) Recipient() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := a.identify(c)
		if !ok {
			return
		}
		p, ok := a.participants(c, username)
		if !ok {
			return
		}
		if !p.IsRecipient(username) {
			reject(c, reasonNotRecipient, zap.String("username", username), zap.String("message_id", c.Param("id")))
			return
		}
		c.Next()
	}
}

func (a *Authenticator) identify(c *gin.Context) (string, bool) {
	if username := Username(c); username != "" {
		return username, true
	}

	token := a.extractToken(c)
	if token == "" {
		reject(c, reasonMissingToken)
		return "", false
	}
	username, err := a.tokens.Verify(token)
	if err != nil {
		reject(c, reasonInvalidToken, zap.Error(err))
		return "", false
	}
	c.Set(logger.UsernameKey, username)
	return username, true
}

func (a *Authenticator) participants(c *gin.Context, username string) (model.Participants, bool) {
	id := c.Param("id")
	p, err := a.messages.Participants(c.Request.Context(), id)
	if err == nil {
		return p, true
	}
	if errors.Is(err, errs.ErrMessageNotFound) {
		reject(c, reasonLookupFailed, zap.String("username", username), zap.String("message_id", id))
		return model.Participants{}, false
	}
	response.FromError(c, err)
	return model.Participants{}, false
}

func reject(c *gin.Context, reason string, fields ...zap.Field) {
	fields = append(fields,
		zap.String("reason", reason),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(logger.RequestIDKey)),
	)
	logger.Warn("authorization rejected", fields...)
	response.Unauthorized(c)
}
