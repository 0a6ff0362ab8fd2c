package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/userprofile/internal/services"
	"github.com/charlesng35/userprofile/pkg/errors"
	"github.com/charlesng35/userprofile/pkg/response"
)

type SiteSettingsHandler struct {
	svc *services.SiteSettingsService
}

func NewSiteSettingsHandler(svc *services.SiteSettingsService) *SiteSettingsHandler {
	return &SiteSettingsHandler{svc: svc}
}

// GET /api/sites/:site/settings
func (h *SiteSettingsHandler) Get(c *gin.Context) {
	values, err := h.svc.Get(requestContext(c), c.Param("site"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, values)
}

// PUT /api/sites/:site/settings
func (h *SiteSettingsHandler) Update(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.NewBadRequest("invalid JSON payload"))
		return
	}
	actor, _ := currentUserID(c)

	values, err := h.svc.Update(requestContext(c), c.Param("site"), actor, body)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, values)
}
