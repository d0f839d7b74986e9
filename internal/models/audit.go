package models

import "time"

// AuditLog represents the audit_logs table
// Used for security tracking and admin action logging
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:100;not null" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

const (
	EntitySample = "sample"
	EntityUnit   = "unit"
)

// EditHistory records one field change made to a persisted sample or unit
type EditHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EntityType string    `gorm:"size:20;not null;index" json:"entity_type"`
	EntityID   uint      `gorm:"not null;index" json:"entity_id"`
	FieldName  string    `gorm:"size:100;not null" json:"field_name"`
	OldValue   string    `gorm:"type:text" json:"old_value"`
	NewValue   string    `gorm:"type:text" json:"new_value"`
	EditedBy   string    `gorm:"size:50;not null" json:"edited_by"`
	EditedAt   time.Time `gorm:"autoCreateTime" json:"edited_at"`
	SampleCode string    `gorm:"size:50;index" json:"sample_code"`
	UnitCode   string    `gorm:"size:50;index" json:"unit_code,omitempty"`
}

// TableName specifies the table name for EditHistory model
func (EditHistory) TableName() string {
	return "edit_history"
}
