package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/userprofile/internal/handlers"
)

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler) {
	users := api.Group("/users")
	{
		users.GET("", handler.List)
		users.POST("", handler.Create)
		users.GET("/:id", handler.Get)
		users.PATCH("/:id", handler.Update)
		users.DELETE("/:id", handler.Delete)
		users.GET("/:id/fieldset", handler.Fieldset)
	}
}

func registerProfileRoutes(api *gin.RouterGroup, handler *handlers.ProfileHandler) {
	profile := api.Group("/profile")
	{
		profile.GET("", handler.Get)
		profile.PATCH("", handler.Update)
		profile.PUT("/settings", handler.UpdateSettings)
		profile.GET("/fieldset", handler.Fieldset)
	}
}

func registerProfileConfigRoutes(api *gin.RouterGroup, handler *handlers.ProfileConfigHandler) {
	cfg := api.Group("/admin/profile")
	{
		cfg.GET("/config", handler.Get)
		cfg.PUT("/config", handler.Save)
		cfg.GET("/fields", handler.Fields)
	}
}

func registerSiteRoutes(api *gin.RouterGroup, handler *handlers.SiteSettingsHandler) {
	sites := api.Group("/sites/:site")
	{
		sites.GET("/settings", handler.Get)
		sites.PUT("/settings", handler.Update)
	}
}
