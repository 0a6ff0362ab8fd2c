package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/models"
)

// Models lists every table the service owns, parents first.
func Models() []any {
	return []any{
		&models.User{},
		&models.Setting{},
		&models.Module{},
		&models.AuditLog{},
		&models.CacheEntry{},
	}
}

// AutoMigrate brings the schema of every model up to date. The error names the
// model whose migration failed.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("auto migrate: nil database handle")
	}
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("auto migrate %T: %w", model, err)
		}
	}
	return nil
}
