package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/hooks"
	"github.com/charlesng35/userprofile/internal/services"
	"github.com/charlesng35/userprofile/pkg/response"
)

// UserHandler exposes user administration. Profile values travel as "o:setting" and
// are checked against the admin contexts.
type UserHandler struct {
	users    *services.UserService
	settings *services.UserSettingsService
	hooks    *hooks.Manager
}

func NewUserHandler(users *services.UserService, settings *services.UserSettingsService, hookManager *hooks.Manager) *UserHandler {
	return &UserHandler{users: users, settings: settings, hooks: hookManager}
}

type createUserRequest struct {
	Email    string         `json:"o:email" validate:"required,email,max=190"`
	Name     string         `json:"o:name" validate:"required,max=190"`
	Password string         `json:"password" validate:"required,min=8"`
	Role     string         `json:"o:role" validate:"omitempty,oneof=admin editor author researcher guest"`
	IsActive *bool          `json:"o:is_active"`
	Setting  map[string]any `json:"o:setting"`
}

type updateUserRequest struct {
	Email    *string        `json:"o:email" validate:"omitempty,email,max=190"`
	Name     *string        `json:"o:name" validate:"omitempty,max=190"`
	Password *string        `json:"password" validate:"omitempty,min=8"`
	Role     *string        `json:"o:role" validate:"omitempty,oneof=admin editor author researcher guest"`
	IsActive *bool          `json:"o:is_active"`
	Setting  map[string]any `json:"o:setting"`
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	per := parseIntQuery(c, "per_page", 20)

	opts := services.ListUsersOptions{
		Page:     page,
		PageSize: per,
		Filters: services.UserFilters{
			Role:  c.Query("role"),
			Query: c.Query("q"),
		},
	}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			opts.Filters.IsActive = &active
		}
	}

	users, total, err := h.users.List(requestContext(c), opts)
	if err != nil {
		respondError(c, err)
		return
	}

	reps := make([]map[string]any, 0, len(users))
	for i := range users {
		rep, err := userRepresentation(requestContext(c), h.hooks, &users[i], fields.AdminShow)
		if err != nil {
			respondError(c, err)
			return
		}
		reps = append(reps, rep)
	}

	response.Paginated(c, reps, page, per, total)
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondUser(c, http.StatusOK, user.ID)
}

// POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var body createUserRequest
	if !bindAndValidate(c, &body) {
		return
	}
	actor, _ := currentUserID(c)

	user, err := h.users.Create(requestContext(c), services.CreateUserInput{
		Email:    body.Email,
		Name:     body.Name,
		Password: body.Password,
		Role:     body.Role,
		IsActive: body.IsActive,
		Settings: body.Setting,
		Context:  fields.AdminEdit,
		Actor:    actor,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondUser(c, http.StatusCreated, user.ID)
}

// PATCH /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var body updateUserRequest
	if !bindAndValidate(c, &body) {
		return
	}
	actor, _ := currentUserID(c)

	user, err := h.users.Update(requestContext(c), c.Param("id"), services.UpdateUserInput{
		Email:    body.Email,
		Name:     body.Name,
		Password: body.Password,
		Role:     body.Role,
		IsActive: body.IsActive,
		Settings: body.Setting,
		Context:  fields.AdminEdit,
		Actor:    actor,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondUser(c, http.StatusOK, user.ID)
}

// DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	actor, _ := currentUserID(c)
	if err := h.users.Delete(requestContext(c), c.Param("id"), actor); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/users/:id/fieldset
func (h *UserHandler) Fieldset(c *gin.Context) {
	id := c.Param("id")
	if id != "new" {
		if _, err := h.users.GetByID(requestContext(c), id); err != nil {
			respondError(c, err)
			return
		}
	} else {
		id = ""
	}

	form, err := h.settings.Fieldset(requestContext(c), id, fields.AdminEdit)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, form)
}

func (h *UserHandler) respondUser(c *gin.Context, status int, id string) {
	user, err := h.users.GetByID(requestContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	rep, err := userRepresentation(requestContext(c), h.hooks, user, fields.AdminShow)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, status, rep)
}
