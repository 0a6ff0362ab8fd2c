package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/api"
	"github.com/charlesng35/userprofile/internal/app"
	"github.com/charlesng35/userprofile/internal/app/maintenance"
	iauth "github.com/charlesng35/userprofile/internal/auth"
	"github.com/charlesng35/userprofile/internal/cache"
	"github.com/charlesng35/userprofile/internal/database"
	"github.com/charlesng35/userprofile/internal/middleware"
	"github.com/charlesng35/userprofile/internal/modules"
	"github.com/charlesng35/userprofile/internal/services"
	"github.com/charlesng35/userprofile/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Redis     *cache.RedisClient
	Services  *api.Services
	Cleaner   *maintenance.Cleaner
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, caches, services, module install state
// and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	dbStore := cache.NewDatabaseStore(stack.DB)
	var cacheStore cache.Store = dbStore

	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisClient(cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(err))
			stack.Redis = nil
		} else {
			cacheStore = stack.Redis
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	stack.Services, err = api.NewServices(stack.DB, cacheStore, cfg)
	if err != nil {
		return nil, err
	}

	if err := installModule(ctx, stack.Services.Installer, cfg, log); err != nil {
		return nil, err
	}

	created, err := services.EnsureBootstrapAdmin(ctx, stack.Services.Users, cfg.Auth.BootstrapAdmin())
	if err != nil {
		return nil, fmt.Errorf("bootstrap administrator: %w", err)
	}
	if created {
		log.Info("bootstrap administrator created", zap.String("email", cfg.Auth.Bootstrap.Email))
	}

	stack.Cleaner = maintenance.NewCleaner(dbStore, stack.Services.Audit,
		maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
		maintenance.WithCacheSchedule(cfg.Maintenance.CacheSchedule),
		maintenance.WithAuditSchedule(cfg.Maintenance.AuditSchedule),
	)
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.RateStore = middleware.NewCacheRateStore(cacheStore)

	stack.Router, err = api.NewRouter(stack.DB, jwtSvc, cfg, stack.Services, stack.RateStore)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// installModule records companion modules, then installs or upgrades the profile
// module. A failed dependency check stops the boot.
func installModule(ctx context.Context, installer *modules.Installer, cfg *app.Config, log *zap.Logger) error {
	if err := installer.RegisterCompanions(ctx, cfg.Modules.CompanionModules()); err != nil {
		return fmt.Errorf("register companion modules: %w", err)
	}

	result, err := installer.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("install module %s: %w", modules.ModuleID, err)
	}

	switch {
	case result.Installed:
		log.Info("module installed", zap.String("module", modules.ModuleID), zap.String("version", result.To))
	case result.From != result.To:
		log.Info("module upgraded", zap.String("module", modules.ModuleID), zap.String("from", result.From), zap.String("to", result.To))
	}
	for _, msg := range result.Messages {
		log.Info("module message", zap.String("level", string(msg.Level)), zap.String("key", msg.Key))
	}
	return nil
}

// Shutdown stops the maintenance jobs, runs them once more, then closes Redis and
// the database.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		// wait for in-flight jobs before the final pass
		select {
		case <-s.Cleaner.Stop().Done():
		case <-ctx.Done():
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		closeDatabase(db, logger.WithModule("database"))
		return nil, err
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	var hosted app.DBAuthConfig
	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
		return dbCfg
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		hosted = cfg.Database.Postgres
	case "mysql":
		hosted = cfg.Database.MySQL
	default:
		// Unsupported drivers surface their error from database.Open.
		return dbCfg
	}

	dbCfg.Host = strings.TrimSpace(hosted.Host)
	dbCfg.Port = hosted.Port
	dbCfg.Name = strings.TrimSpace(hosted.Database)
	dbCfg.User = strings.TrimSpace(hosted.Username)
	dbCfg.Password = hosted.Password
	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
