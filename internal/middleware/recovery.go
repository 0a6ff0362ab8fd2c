package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/userprofile/pkg/errors"
	"github.com/charlesng35/userprofile/pkg/logger"
	"github.com/charlesng35/userprofile/pkg/response"
)

// Recovery turns a handler panic into a 500 envelope. Installed ahead of Logger it
// still sees the request logger, because Logger swaps c.Request before calling Next.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			logger.For(c.Request.Context(), "http").Error("panic",
				zap.String("path", c.Request.URL.Path),
				zap.Any("error", recovered),
				zap.Stack("stack"),
			)
			if !c.Writer.Written() {
				response.Error(c, errors.ErrInternalServer)
			}
			c.Abort()
		}()
		c.Next()
	}
}

// NotFoundHandler answers unknown routes with a JSON 404 naming the path.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, errors.ErrNotFound.WithMessage("route "+c.Request.URL.Path+" not found"))
}
