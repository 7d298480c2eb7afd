package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"messagely/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// report json field names in validation errors
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	}
}

// bindJSON binds the JSON body into obj and writes a 400 on failure. The
// body may already have been read by an auth guard, so it always goes
// through the context cache.
func bindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindBodyWith(obj, binding.JSON)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		response.BadRequest(c, fmt.Sprintf("%s is %s", verrs[0].Field(), verrs[0].Tag()))
		return false
	}
	response.BadRequest(c, "invalid request body")
	return false
}
