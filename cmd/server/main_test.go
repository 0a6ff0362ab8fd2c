package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/models"
	"github.com/charlesng35/userprofile/internal/modules"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-config", "deploy", "-port", "9090", "-elements", "fields.yaml", "-install-only"})
	require.NoError(t, err)
	require.Equal(t, options{configPath: "deploy", port: 9090, elements: "fields.yaml", installOnly: true}, opts)

	_, err = parseOptions([]string{"-port", "nope"})
	require.Error(t, err)
}

func TestRunInstallOnly(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "userprofile.sqlite")
	elements := filepath.Join(dir, "elements.yaml")
	require.NoError(t, os.WriteFile(elements, []byte("elements:\n  userprofile_phone:\n    name: userprofile_phone\n    type: text\n"), 0o600))
	config := fmt.Sprintf("database:\n  driver: sqlite\n  path: %q\nauth:\n  jwt:\n    secret: run-test-secret\n", dbPath)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(config), 0o600))

	require.NoError(t, run(t.Context(), []string{"-config", dir, "-elements", elements, "-install-only"}))

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	var mod models.Module
	require.NoError(t, db.Take(&mod, "id = ?", modules.ModuleID).Error)
	require.Equal(t, modules.Version, mod.Version)
}

func TestServeStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, server, zap.NewNop()) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}

func TestServeReportsListenFailure(t *testing.T) {
	server := &http.Server{Addr: "127.0.0.1:-1", Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	err := serve(t.Context(), server, zap.NewNop())
	require.ErrorContains(t, err, "server error")
}
