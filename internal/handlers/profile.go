package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/hooks"
	"github.com/charlesng35/userprofile/internal/services"
	"github.com/charlesng35/userprofile/pkg/errors"
	"github.com/charlesng35/userprofile/pkg/response"
)

// ProfileHandler lets the authenticated user read and edit their own profile through
// the public contexts.
type ProfileHandler struct {
	users    *services.UserService
	settings *services.UserSettingsService
	hooks    *hooks.Manager
}

func NewProfileHandler(users *services.UserService, settings *services.UserSettingsService, hookManager *hooks.Manager) *ProfileHandler {
	return &ProfileHandler{users: users, settings: settings, hooks: hookManager}
}

type updateProfileRequest struct {
	Name    *string        `json:"o:name" validate:"omitempty,max=190"`
	Setting map[string]any `json:"o:setting"`
}

type profileResponse struct {
	User    map[string]any        `json:"user"`
	Display []fields.DisplayValue `json:"display"`
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	h.respond(c, userID)
}

// PATCH /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body updateProfileRequest
	if !bindAndValidate(c, &body) {
		return
	}

	_, err := h.users.Update(requestContext(c), userID, services.UpdateUserInput{
		Name:     body.Name,
		Settings: body.Setting,
		Context:  fields.PublicEdit,
		Actor:    userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, userID)
}

// PUT /api/profile/settings stores only profile values, leaving the account alone.
func (h *ProfileHandler) UpdateSettings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.NewBadRequest("invalid JSON payload"))
		return
	}
	if body == nil {
		body = map[string]any{}
	}

	values, err := h.settings.Apply(requestContext(c), userID, fields.PublicEdit, body, fields.ModeUpdate)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, values)
}

// GET /api/profile/fieldset
func (h *ProfileHandler) Fieldset(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	form, err := h.settings.Fieldset(requestContext(c), userID, fields.PublicEdit)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, form)
}

func (h *ProfileHandler) respond(c *gin.Context, userID string) {
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
	display, err := h.settings.Display(requestContext(c), userID, fields.PublicShow)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profileResponse{User: rep, Display: display})
}
