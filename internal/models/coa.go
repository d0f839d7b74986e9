package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	COAStatusDraft     = "draft"
	COAStatusFinalized = "finalized"
)

// Unit.COAStatus values
const (
	UnitCOACreated   = "created"
	UnitCOAFinalized = "finalized"
)

// COA holds the certificate of analysis results recorded for one unit.
// TestResults is keyed by disease name; the value shape depends on the
// department (per sample type for PCR, per well for serology, per location
// for microbiology).
type COA struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	UnitID        uint              `gorm:"not null;uniqueIndex" json:"unit_id"`
	TestResults   datatypes.JSONMap `json:"test_results"`
	DateTested    string            `gorm:"size:10" json:"date_tested,omitempty"` // YYYY-MM-DD
	TestedBy      string            `gorm:"size:255" json:"tested_by,omitempty"`
	ReviewedBy    string            `gorm:"size:255" json:"reviewed_by,omitempty"`
	LabSupervisor string            `gorm:"size:255" json:"lab_supervisor,omitempty"`
	LabManager    string            `gorm:"size:255" json:"lab_manager,omitempty"`
	Notes         string            `gorm:"type:text" json:"notes,omitempty"`
	Status        string            `gorm:"size:20;not null;default:'draft'" json:"status"`
	LastEditedBy  string            `gorm:"size:50" json:"last_edited_by,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// TableName specifies the table name for COA model
func (COA) TableName() string {
	return "coas"
}
