package middleware

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/userprofile/internal/auditctx"
	iauth "github.com/charlesng35/userprofile/internal/auth"
	"github.com/charlesng35/userprofile/internal/models"
	"github.com/charlesng35/userprofile/pkg/errors"
	"github.com/charlesng35/userprofile/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
	CtxRoleKey   = "userRole"
)

var errTokenExpired = errors.New("TOKEN_EXPIRED", "Access token has expired", http.StatusUnauthorized)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.ValidateAccessToken(strings.TrimSpace(authz[7:]))
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			if stderrors.Is(err, iauth.ErrTokenExpired) {
				response.Error(c, errTokenExpired)
			} else {
				response.Error(c, errors.ErrUnauthorized)
			}
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxRoleKey, claims.Role)
		c.Request = c.Request.WithContext(auditctx.WithActor(c.Request.Context(), auditctx.Actor{
			UserID:    claims.UserID,
			Role:      claims.Role,
			IPAddress: c.ClientIP(),
		}))
		c.Next()
	}
}

// RequireRole allows the request through only when the token carries one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(CtxUserIDKey); !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		role := c.GetString(CtxRoleKey)
		for _, allowed := range roles {
			if strings.EqualFold(role, allowed) {
				c.Next()
				return
			}
		}
		response.Error(c, errors.ErrForbidden)
		c.Abort()
	}
}

// RequireAdmin is RequireRole for administrators.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
