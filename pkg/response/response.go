package response

import (
	"net/http"

	"messagely/pkg/errs"
	"messagely/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorBody is the body of every non-2xx response.
type ErrorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// OK writes data with 200.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error aborts the chain and writes {message, status}.
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{Message: message, Status: status})
}

// Unauthorized writes the uniform 401 every rejected request receives.
func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "internal error")
}

// FromError maps err onto a status through its errs.Code and writes the
// client-safe message. The full error is attached to the gin context for
// the request logger.
func FromError(c *gin.Context, err error) {
	_ = c.Error(err)
	code := errs.CodeOf(err)
	if code == errs.CodeInternal {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(logger.RequestIDKey)),
			zap.Error(err),
		)
	}
	if code == errs.CodeUnauthorized {
		Unauthorized(c)
		return
	}
	Error(c, StatusOf(code), errs.MessageOf(err))
}

// StatusOf returns the HTTP status for code.
func StatusOf(code errs.Code) int {
	switch code {
	case errs.CodeUnauthorized:
		return http.StatusUnauthorized
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeConflict:
		return http.StatusConflict
	case errs.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
