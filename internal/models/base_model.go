package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides shared fields for persistent models keyed by UUID.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"o:id"`
	CreatedAt time.Time `gorm:"index" json:"o:created"`
	UpdatedAt time.Time `json:"o:modified"`
}

// BeforeCreate ensures UUID identifiers are generated automatically.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
