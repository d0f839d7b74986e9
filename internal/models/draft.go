package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Draft is an in-progress form snapshot, one per user and purpose
type Draft struct {
	ID        string         `gorm:"size:36;primaryKey" json:"id"`
	Purpose   string         `gorm:"size:50;not null;uniqueIndex:idx_draft_owner" json:"purpose"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_draft_owner" json:"user_id"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (d *Draft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Draft model
func (Draft) TableName() string {
	return "drafts"
}
