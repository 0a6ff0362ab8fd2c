// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/database"
)

// Option adjusts the database returned by MustOpenTestDB.
type Option func(*options)

type options struct {
	migrate bool
	rows    []any
}

// WithAutoMigrate creates every application table.
func WithAutoMigrate() Option {
	return func(o *options) { o.migrate = true }
}

// WithRows migrates the schema and inserts rows, in order, before the handle is returned.
func WithRows(rows ...any) Option {
	return func(o *options) {
		o.migrate = true
		o.rows = append(o.rows, rows...)
	}
}

// MustOpenTestDB opens a private in-memory SQLite database that is closed when the
// test ends.
func MustOpenTestDB(t *testing.T, opts ...Option) *gorm.DB {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := database.Open(database.Config{Driver: "sqlite"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if o.migrate {
		require.NoError(t, database.AutoMigrate(db))
	}
	for _, row := range o.rows {
		require.NoError(t, db.Create(row).Error, "seed %T", row)
	}
	return db
}
