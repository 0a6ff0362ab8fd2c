package database

import (
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func isMemoryPath(path string) bool {
	return path == "" || strings.EqualFold(path, ":memory:")
}

// sqliteDSN returns the connection string for path. File databases run in WAL mode
// with a busy timeout so the maintenance jobs do not trip over API writes.
func sqliteDSN(path string) string {
	if isMemoryPath(path) {
		return "file::memory:?_foreign_keys=1"
	}
	return "file:" + filepath.ToSlash(path) + "?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000"
}

func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		path := strings.TrimSpace(cfg.Path)
		if !isMemoryPath(path) {
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, err
				}
			}
		}
		dsn = sqliteDSN(path)
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(cfg))
	if err != nil {
		return nil, err
	}
	if strings.Contains(dsn, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// a second pooled connection would open its own empty database
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}
