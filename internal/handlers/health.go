package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/modules"
	"github.com/charlesng35/userprofile/internal/monitoring"
	"github.com/charlesng35/userprofile/pkg/errors"
	"github.com/charlesng35/userprofile/pkg/response"
)

// Health returns a simple status payload useful for readiness checks. When db is set
// the database is pinged as well.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(requestContext(c))
			}
			if err != nil {
				response.Error(c, errors.New("UNAVAILABLE", "database unavailable", http.StatusServiceUnavailable))
				return
			}
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "module": modules.ModuleID, "version": modules.Version})
	}
}

// Readiness runs the registered probes. A degraded service still answers 200 so
// load balancers keep routing to it; a failed probe answers 503.
func Readiness(manager *monitoring.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := manager.Evaluate(requestContext(c))
		status := http.StatusOK
		if report.Status == monitoring.StatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, response.Response{Success: report.Status != monitoring.StatusDown, Data: report})
	}
}
