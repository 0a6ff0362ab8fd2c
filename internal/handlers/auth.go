package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/userprofile/internal/auth"
	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/hooks"
	"github.com/charlesng35/userprofile/internal/services"
	"github.com/charlesng35/userprofile/pkg/errors"
	"github.com/charlesng35/userprofile/pkg/response"
)

// AuthHandler issues access tokens and reports the current user.
type AuthHandler struct {
	users *services.UserService
	jwt   *iauth.JWTService
	hooks *hooks.Manager
}

func NewAuthHandler(users *services.UserService, jwt *iauth.JWTService, hookManager *hooks.Manager) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt, hooks: hookManager}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int            `json:"expires_in"`
	User        map[string]any `json:"user"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), strings.TrimSpace(req.Email), req.Password, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: user.ID, Role: user.Role})
	if err != nil {
		respondError(c, err)
		return
	}

	rep, err := userRepresentation(requestContext(c), h.hooks, user, fields.PublicShow)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.jwt.TTL().Seconds()),
		User:        rep,
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	rep, err := userRepresentation(requestContext(c), h.hooks, user, fields.PublicShow)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rep)
}
