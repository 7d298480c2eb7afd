package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const bearerPrefix = "bearer "

// extractToken looks for the identity token in the Authorization header,
// then the JSON body field, then the query field.
func (a *Authenticator) extractToken(c *gin.Context) string {
	if a.allowBearer {
		if h := c.GetHeader("Authorization"); len(h) > len(bearerPrefix) && strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
			return strings.TrimSpace(h[len(bearerPrefix):])
		}
	}
	if a.field == "" {
		return ""
	}
	if token := bodyToken(c, a.field); token != "" {
		return token
	}
	return c.Query(a.field)
}

// bodyToken reads field from a JSON body. The body is cached on the context
// so handlers bind it again with ShouldBindBodyWith.
func bodyToken(c *gin.Context, field string) string {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return ""
	}
	if c.ContentType() != binding.MIMEJSON {
		return ""
	}
	var body map[string]interface{}
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		return ""
	}
	token, _ := body[field].(string)
	return token
}
