package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/middleware"
	"github.com/charlesng35/userprofile/internal/modules"
	"github.com/charlesng35/userprofile/internal/services"
	appErrors "github.com/charlesng35/userprofile/pkg/errors"
	"github.com/charlesng35/userprofile/pkg/logger"
	"github.com/charlesng35/userprofile/pkg/response"
	appValidator "github.com/charlesng35/userprofile/pkg/validator"
)

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// When validation fails, an error response is automatically written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest(formatValidationError(err)))
		return false
	}

	return true
}

func formatValidationError(err error) string {
	var ve appValidator.ValidationErrors
	if !stderrors.As(err, &ve) || len(ve) == 0 {
		return "invalid request payload"
	}
	return ve.Error()
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// respondError writes err as an envelope. Profile validation failures, broken field
// lists and dependency failures are rendered in the request locale.
func respondError(c *gin.Context, err error) {
	var verr *fields.ValidationErrors
	if stderrors.As(err, &verr) {
		response.Error(c, appErrors.NewValidation(
			middleware.Translate(c, "profile.validation.failed"),
			verr.Messages(middleware.Translator(c)),
		))
		return
	}

	var derr *modules.DependencyError
	if stderrors.As(err, &derr) {
		response.Error(c, appErrors.New(
			"MODULE_CANNOT_INSTALL",
			middleware.Translate(c, derr.MessageKey(), derr.Module, derr.MinVersion),
			http.StatusConflict,
		))
		return
	}

	var appErr *appErrors.AppError
	if stderrors.As(err, &appErr) {
		if appErr.Code == services.ErrInvalidFieldList.Code {
			response.Error(c, appErrors.New(appErr.Code,
				middleware.Translate(c, "profile.config.invalid", appErr.Message),
				appErr.StatusCode))
			return
		}
		if appErr.StatusCode >= http.StatusInternalServerError {
			logError(c, err)
		}
		response.Error(c, appErr)
		return
	}

	logError(c, err)
	response.Error(c, appErrors.ErrInternalServer)
}

func logError(c *gin.Context, err error) {
	logger.For(c.Request.Context(), "handlers").Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
}
