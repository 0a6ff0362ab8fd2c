package models

import "time"

// Module records an installed extension and the schema version it was installed at.
type Module struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Version   string    `gorm:"not null" json:"version"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"installed_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
