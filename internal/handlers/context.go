package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/middleware"
	"github.com/charlesng35/userprofile/pkg/errors"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID returns the authenticated user id stored by middleware.Auth.
func currentUserID(c *gin.Context) (string, bool) {
	id := c.GetString(middleware.CtxUserIDKey)
	return id, id != ""
}

// contextQuery reads the "context" query parameter, falling back to def when absent.
func contextQuery(c *gin.Context, def fields.Context) (fields.Context, error) {
	raw := strings.TrimSpace(c.Query("context"))
	if raw == "" {
		return def, nil
	}
	ctx, err := fields.ParseContext(raw)
	if err != nil {
		return "", errors.NewBadRequest(err.Error())
	}
	return ctx, nil
}
