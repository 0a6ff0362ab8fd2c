package api

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/app"
	"github.com/charlesng35/userprofile/internal/cache"
	"github.com/charlesng35/userprofile/internal/hooks"
	"github.com/charlesng35/userprofile/internal/modules"
	"github.com/charlesng35/userprofile/internal/services"
)

// Services bundles the domain services shared by the router and the server bootstrap.
type Services struct {
	Cache       cache.Store
	Hooks       *hooks.Manager
	Audit       *services.AuditService
	FieldConfig *services.FieldConfigService
	Settings    *services.UserSettingsService
	Users       *services.UserService
	Sites       *services.SiteSettingsService
	Installer   *modules.Installer
}

// NewServices wires the services on db. cacheStore may be nil, in which case the
// field list is read from the database on every request.
func NewServices(db *gorm.DB, cacheStore cache.Store, cfg *app.Config) (*Services, error) {
	if db == nil {
		return nil, errors.New("database handle must be provided")
	}
	if cfg == nil {
		return nil, errors.New("config must be provided")
	}

	svc := &Services{Cache: cacheStore, Hooks: hooks.NewManager()}
	var err error

	if svc.Audit, err = services.NewAuditService(db); err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}
	if svc.FieldConfig, err = services.NewFieldConfigService(db, svc.Audit, cacheStore, svc.Hooks); err != nil {
		return nil, fmt.Errorf("initialise field config service: %w", err)
	}
	if svc.Settings, err = services.NewUserSettingsService(db, svc.FieldConfig); err != nil {
		return nil, fmt.Errorf("initialise user settings service: %w", err)
	}
	svc.Settings.Register(svc.Hooks)

	if svc.Users, err = services.NewUserService(db, svc.Audit, svc.Hooks); err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}
	if svc.Sites, err = services.NewSiteSettingsService(db, svc.Audit); err != nil {
		return nil, fmt.Errorf("initialise site settings service: %w", err)
	}

	opts, err := cfg.InstallerOptions()
	if err != nil {
		return nil, err
	}
	if svc.Installer, err = modules.NewInstaller(db, svc.FieldConfig, svc.Audit, opts); err != nil {
		return nil, fmt.Errorf("initialise installer: %w", err)
	}

	return svc, nil
}
