package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/middleware"
	"github.com/charlesng35/userprofile/internal/services"
	"github.com/charlesng35/userprofile/pkg/response"
)

// ProfileConfigHandler manages the list of profile elements.
type ProfileConfigHandler struct {
	config *services.FieldConfigService
}

func NewProfileConfigHandler(config *services.FieldConfigService) *ProfileConfigHandler {
	return &ProfileConfigHandler{config: config}
}

type saveConfigRequest struct {
	Elements string `json:"elements"`
	Format   string `json:"format" validate:"omitempty,oneof=auto ini xml json yaml yml"`
}

type configResponse struct {
	Elements string           `json:"elements"`
	Format   fields.Format    `json:"format"`
	Fields   fields.FieldList `json:"fields"`
	Message  string           `json:"message,omitempty"`
}

// GET /api/admin/profile/config
func (h *ProfileConfigHandler) Get(c *gin.Context) {
	def, err := h.config.Get(requestContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, configResponse{Elements: def.Source, Format: def.Format, Fields: def.Fields})
}

// PUT /api/admin/profile/config
func (h *ProfileConfigHandler) Save(c *gin.Context) {
	var body saveConfigRequest
	if !bindAndValidate(c, &body) {
		return
	}
	actor, _ := currentUserID(c)

	def, err := h.config.Save(requestContext(c), actor, body.Elements, body.Format)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, configResponse{
		Elements: def.Source,
		Format:   def.Format,
		Fields:   def.Fields,
		Message:  middleware.Translate(c, "profile.config.saved"),
	})
}

// GET /api/admin/profile/fields?context=admin_edit
func (h *ProfileConfigHandler) Fields(c *gin.Context) {
	list, err := h.config.Fields(requestContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("context") == "" {
		response.Success(c, http.StatusOK, list)
		return
	}
	fieldCtx, err := contextQuery(c, fields.AdminShow)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, list.Visible(fieldCtx))
}
