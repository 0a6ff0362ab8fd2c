package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/userprofile/internal/middleware"
	"github.com/charlesng35/userprofile/internal/modules"
	"github.com/charlesng35/userprofile/pkg/response"
)

type ModuleHandler struct {
	installer *modules.Installer
}

func NewModuleHandler(installer *modules.Installer) *ModuleHandler {
	return &ModuleHandler{installer: installer}
}

type moduleStatus struct {
	Modules      any    `json:"modules"`
	Dependencies string `json:"dependencies"`
	Message      string `json:"message,omitempty"`
}

// GET /api/modules
func (h *ModuleHandler) List(c *gin.Context) {
	ctx := requestContext(c)
	list, err := h.installer.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	status := moduleStatus{Modules: list, Dependencies: "ok"}
	if err := h.installer.CheckDependencies(ctx); err != nil {
		var derr *modules.DependencyError
		if !errors.As(err, &derr) {
			respondError(c, err)
			return
		}
		status.Dependencies = "unsatisfied"
		status.Message = middleware.Translate(c, derr.MessageKey(), derr.Module, derr.MinVersion)
	}
	response.Success(c, http.StatusOK, status)
}
