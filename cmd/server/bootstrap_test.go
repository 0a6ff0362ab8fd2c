package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/userprofile/internal/app"
	"github.com/charlesng35/userprofile/internal/models"
	"github.com/charlesng35/userprofile/internal/modules"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()
	cfg := &app.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "userprofile.sqlite")
	cfg.Auth.JWT.Secret = "bootstrap-test-secret"
	cfg.Auth.Bootstrap.Email = "admin@example.com"
	cfg.Auth.Bootstrap.Password = "S3cure-pass"
	cfg.Profile.ElementsFormat = "ini"
	return cfg
}

func TestBootstrapRuntimeInstallsModule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Modules.Companions = []app.CompanionConfig{{ID: "Common", Version: "3.4.60", Active: true}}
	cfg.Modules.Dependencies = []app.DependencyConfig{{Module: "Common", MinVersion: "3.4.54"}}

	stack, err := bootstrapRuntime(t.Context(), cfg, zap.NewNop())
	require.NoError(t, err)

	var mod models.Module
	require.NoError(t, stack.DB.Take(&mod, "id = ?", modules.ModuleID).Error)
	require.Equal(t, modules.Version, mod.Version)
	require.True(t, mod.Active)

	admin, err := stack.Services.Users.GetByEmail(t.Context(), "admin@example.com")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, admin.Role)
	require.Equal(t, "Administrator", admin.Name)

	w := httptest.NewRecorder()
	stack.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	// A second boot against the same database keeps the installed state.
	stack.Shutdown(context.Background(), zap.NewNop())
	again, err := bootstrapRuntime(t.Context(), cfg, zap.NewNop())
	require.NoError(t, err)
	again.Shutdown(context.Background(), zap.NewNop())
}

func TestBootstrapRuntimeStopsOnMissingDependency(t *testing.T) {
	cfg := testConfig(t)
	cfg.Modules.Dependencies = []app.DependencyConfig{{Module: "Common", MinVersion: "3.4.54"}}

	_, err := bootstrapRuntime(t.Context(), cfg, zap.NewNop())
	require.Error(t, err)

	var depErr *modules.DependencyError
	require.True(t, errors.As(err, &depErr))
	require.Equal(t, "Common", depErr.Module)
}

func TestConvertDatabaseConfig(t *testing.T) {
	cfg := &app.Config{}
	require.Equal(t, "sqlite", convertDatabaseConfig(cfg).Driver)

	cfg.Database.Driver = "PostgreSQL"
	cfg.Database.Postgres = app.DBAuthConfig{Host: " db ", Port: 5432, Database: "profiles", Username: "omeka", Password: "secret"}
	dbCfg := convertDatabaseConfig(cfg)
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "db", dbCfg.Host)
	require.Equal(t, 5432, dbCfg.Port)
	require.Equal(t, "profiles", dbCfg.Name)
	require.Equal(t, "omeka", dbCfg.User)

	cfg.Database.Driver = "oracle"
	require.Equal(t, "oracle", convertDatabaseConfig(cfg).Driver)
}

func TestLoadApplicationConfigMissingPath(t *testing.T) {
	_, err := loadApplicationConfig(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}
