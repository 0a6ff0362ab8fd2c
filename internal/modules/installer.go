// Package modules tracks installed extensions and runs the install and upgrade
// routines of the profile module.
package modules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/userprofile/internal/models"
	"github.com/charlesng35/userprofile/internal/services"
	"github.com/charlesng35/userprofile/pkg/logger"
)

const (
	// ModuleID identifies the profile module in the registry.
	ModuleID = "UserProfile"
	// Version is the schema version this build installs.
	Version = "3.4.8"
)

// ErrModuleCannotInstall blocks installation or upgrade.
var ErrModuleCannotInstall = errors.New("module cannot be installed")

// DependencyError explains which companion module blocked installation.
type DependencyError struct {
	Module     string
	MinVersion string
	Found      string
}

func (e *DependencyError) Error() string {
	if e.Found == "" {
		return fmt.Sprintf("module %s %s or later is required", e.Module, e.MinVersion)
	}
	return fmt.Sprintf("module %s should be upgraded from %s to %s or later", e.Module, e.Found, e.MinVersion)
}

func (e *DependencyError) Unwrap() error { return ErrModuleCannotInstall }

// MessageKey is the catalog key describing the failure.
func (e *DependencyError) MessageKey() string {
	if e.Found == "" {
		return "module.install.missing_dependency"
	}
	return "module.install.outdated_dependency"
}

// Dependency is a module that must be active at MinVersion or later.
type Dependency struct {
	Module     string `mapstructure:"module"`
	MinVersion string `mapstructure:"min_version"`
}

// Companion is a module known to be present alongside this one.
type Companion struct {
	ID      string `mapstructure:"id"`
	Version string `mapstructure:"version"`
	Active  bool   `mapstructure:"active"`
}

// Options configures the installer.
type Options struct {
	Dependencies    []Dependency
	DefaultElements string
	DefaultFormat   string
}

// Level tells how an upgrade message should be presented.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
)

// Message is a translatable note produced by an upgrade step.
type Message struct {
	Level Level  `json:"level"`
	Key   string `json:"key"`
}

// Result summarises an install or upgrade run.
type Result struct {
	Installed bool      `json:"installed"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Messages  []Message `json:"messages,omitempty"`
}

type upgradeStep struct {
	before string
	run    func(ctx context.Context) ([]Message, error)
}

// Installer installs and upgrades the profile module.
type Installer struct {
	db     *gorm.DB
	config *services.FieldConfigService
	audit  *services.AuditService
	opts   Options
	steps  []upgradeStep
}

// NewInstaller constructs an Installer.
func NewInstaller(db *gorm.DB, fieldConfig *services.FieldConfigService, auditService *services.AuditService, opts Options) (*Installer, error) {
	if db == nil {
		return nil, errors.New("installer: db is required")
	}
	if fieldConfig == nil {
		return nil, errors.New("installer: field config service is required")
	}
	for _, dep := range opts.Dependencies {
		if _, err := version.NewVersion(dep.MinVersion); err != nil {
			return nil, fmt.Errorf("installer: dependency %s: %w", dep.Module, err)
		}
	}

	inst := &Installer{db: db, config: fieldConfig, audit: auditService, opts: opts}
	inst.steps = []upgradeStep{
		{before: "3.4.4.6", run: inst.enableExclusions},
		{before: "3.4.7", run: inst.refreshFieldList},
	}
	return inst, nil
}

// RegisterCompanions records the companion modules declared in configuration.
func (i *Installer) RegisterCompanions(ctx context.Context, companions []Companion) error {
	if len(companions) == 0 {
		return nil
	}
	rows := make([]models.Module, 0, len(companions))
	for _, c := range companions {
		id := strings.TrimSpace(c.ID)
		if id == "" || id == ModuleID {
			continue
		}
		if _, err := version.NewVersion(c.Version); err != nil {
			return fmt.Errorf("installer: companion %s: %w", id, err)
		}
		rows = append(rows, models.Module{ID: id, Version: c.Version, Active: c.Active})
	}
	if len(rows) == 0 {
		return nil
	}
	return i.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"version", "active", "updated_at"}),
		}).
		Create(&rows).Error
}

// List returns every registered module.
func (i *Installer) List(ctx context.Context) ([]models.Module, error) {
	var out []models.Module
	if err := i.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("installer: list modules: %w", err)
	}
	return out, nil
}

// CheckDependencies returns a *DependencyError for the first dependency that is
// missing, inactive or too old.
func (i *Installer) CheckDependencies(ctx context.Context) error {
	for _, dep := range i.opts.Dependencies {
		var mod models.Module
		err := i.db.WithContext(ctx).Take(&mod, "id = ?", dep.Module).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &DependencyError{Module: dep.Module, MinVersion: dep.MinVersion}
		}
		if err != nil {
			return fmt.Errorf("installer: load %s: %w", dep.Module, err)
		}
		if !mod.Active {
			return &DependencyError{Module: dep.Module, MinVersion: dep.MinVersion}
		}

		found, err := version.NewVersion(mod.Version)
		if err != nil {
			return &DependencyError{Module: dep.Module, MinVersion: dep.MinVersion, Found: mod.Version}
		}
		if found.LessThan(version.Must(version.NewVersion(dep.MinVersion))) {
			return &DependencyError{Module: dep.Module, MinVersion: dep.MinVersion, Found: mod.Version}
		}
	}
	return nil
}

// Install checks dependencies, stores the default field list and registers the module.
func (i *Installer) Install(ctx context.Context) (Result, error) {
	if err := i.CheckDependencies(ctx); err != nil {
		return Result{}, err
	}
	if err := i.config.Initialize(ctx, i.opts.DefaultElements, i.opts.DefaultFormat); err != nil {
		return Result{}, fmt.Errorf("installer: default field list: %w", err)
	}
	mod := models.Module{ID: ModuleID, Version: Version, Active: true}
	if err := i.db.WithContext(ctx).Save(&mod).Error; err != nil {
		return Result{}, fmt.Errorf("installer: register module: %w", err)
	}

	i.log(ctx, "module.install", map[string]any{"version": Version})
	return Result{Installed: true, To: Version}, nil
}

// Upgrade runs every step newer than from and records the new version.
func (i *Installer) Upgrade(ctx context.Context, from string) (Result, error) {
	old, err := version.NewVersion(from)
	if err != nil {
		return Result{}, fmt.Errorf("installer: stored version %q: %w", from, err)
	}
	if err := i.CheckDependencies(ctx); err != nil {
		return Result{}, err
	}

	result := Result{From: from, To: Version}
	for _, step := range i.steps {
		if !old.LessThan(version.Must(version.NewVersion(step.before))) {
			continue
		}
		messages, err := step.run(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("installer: upgrade step %s: %w", step.before, err)
		}
		result.Messages = append(result.Messages, messages...)
	}

	if err := i.db.WithContext(ctx).
		Model(&models.Module{}).
		Where("id = ?", ModuleID).
		Updates(map[string]any{"version": Version, "active": true}).Error; err != nil {
		return Result{}, fmt.Errorf("installer: record version: %w", err)
	}

	i.log(ctx, "module.upgrade", map[string]any{"from": from, "to": Version})
	return result, nil
}

// Ensure installs the module on first boot and upgrades it when the stored version
// is older than this build.
func (i *Installer) Ensure(ctx context.Context) (Result, error) {
	var mod models.Module
	err := i.db.WithContext(ctx).Take(&mod, "id = ?", ModuleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return i.Install(ctx)
	}
	if err != nil {
		return Result{}, fmt.Errorf("installer: load module: %w", err)
	}

	stored, err := version.NewVersion(mod.Version)
	if err != nil || stored.LessThan(version.Must(version.NewVersion(Version))) {
		return i.Upgrade(ctx, mod.Version)
	}
	return Result{From: mod.Version, To: mod.Version}, nil
}

func (i *Installer) enableExclusions(ctx context.Context) ([]Message, error) {
	if _, err := i.config.Regenerate(ctx); err != nil {
		return nil, err
	}
	return []Message{{Level: LevelSuccess, Key: "module.upgrade.exclusions"}}, nil
}

func (i *Installer) refreshFieldList(ctx context.Context) ([]Message, error) {
	ok, err := i.config.Regenerate(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Message{{Level: LevelWarning, Key: "module.upgrade.fix_config"}}, nil
	}
	return []Message{{Level: LevelSuccess, Key: "module.upgrade.regenerated"}}, nil
}

func (i *Installer) log(ctx context.Context, action string, metadata map[string]any) {
	logger.For(ctx, "modules").Info("module lifecycle", zap.String("action", action), zap.Any("metadata", metadata))
	if i.audit == nil {
		return
	}
	if err := i.audit.Log(ctx, services.AuditEntry{
		Action:   action,
		Resource: ModuleID,
		Result:   "success",
		Metadata: metadata,
	}); err != nil {
		logger.For(ctx, "modules").Warn("failed to audit module lifecycle", zap.Error(err))
	}
}
