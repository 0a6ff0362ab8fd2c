package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/app"
	iauth "github.com/charlesng35/userprofile/internal/auth"
	"github.com/charlesng35/userprofile/internal/handlers"
	"github.com/charlesng35/userprofile/internal/i18n"
	"github.com/charlesng35/userprofile/internal/middleware"
	"github.com/charlesng35/userprofile/internal/monitoring"
	"github.com/charlesng35/userprofile/internal/monitoring/checks"
)

// NewRouter builds the Gin engine, wires middleware and registers the API routes.
// rateStore may be nil to disable rate limiting.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, svc *Services, rateStore middleware.RateStore) (*gin.Engine, error) {
	if db == nil {
		return nil, errors.New("database handle must be provided")
	}
	if jwt == nil {
		return nil, errors.New("jwt service must be provided")
	}
	if cfg == nil {
		return nil, errors.New("config must be provided")
	}
	if svc == nil {
		return nil, errors.New("services must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Locale(i18n.Default(), cfg.Profile.DefaultLocale))
	window := cfg.Auth.RateLimit.RateWindow()
	r.Use(middleware.RateLimit(rateStore, cfg.Auth.RateLimit.Requests, window))

	r.GET("/health", handlers.Health(db))
	r.GET("/health/ready", handlers.Readiness(readinessChecks(db, svc)))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(svc.Users, jwt, svc.Hooks)

	// Public auth routes
	r.POST("/api/auth/login",
		middleware.RateLimit(loginRateStore(rateStore), cfg.Auth.RateLimit.LoginRequests, window),
		authHandler.Login)

	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	api.GET("/auth/me", authHandler.Me)

	registerProfileRoutes(api, handlers.NewProfileHandler(svc.Users, svc.Settings, svc.Hooks))

	admin := api.Group("")
	admin.Use(middleware.RequireAdmin())

	registerUserRoutes(admin, handlers.NewUserHandler(svc.Users, svc.Settings, svc.Hooks))
	registerProfileConfigRoutes(admin, handlers.NewProfileConfigHandler(svc.FieldConfig))
	registerSiteRoutes(admin, handlers.NewSiteSettingsHandler(svc.Sites))

	admin.GET("/modules", handlers.NewModuleHandler(svc.Installer).List)
	admin.GET("/audit", handlers.NewAuditHandler(svc.Audit).List)

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

// loginRateStore keeps login counters apart from the global ones by prefixing keys.
func loginRateStore(store middleware.RateStore) middleware.RateStore {
	if store == nil {
		return nil
	}
	return middleware.PrefixRateStore(store, "login:")
}

func readinessChecks(db *gorm.DB, svc *Services) *monitoring.Manager {
	// Only the Redis client answers pings; the database-backed cache is covered by
	// the database probe.
	pinger, _ := svc.Cache.(checks.Pinger)
	return monitoring.NewManager(
		checks.Database(db, 0),
		checks.Cache(pinger, 0),
		checks.FieldList(svc.FieldConfig),
		checks.Dependencies(svc.Installer),
	)
}
