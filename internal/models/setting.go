package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting is one key/value pair in the scoped settings store. Global settings use an
// empty ScopeID.
type Setting struct {
	Scope     string         `gorm:"primaryKey;size:16"`
	ScopeID   string         `gorm:"primaryKey;size:64"`
	Key       string         `gorm:"primaryKey;column:setting_key;size:190"`
	Value     datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
