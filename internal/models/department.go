package models

import "time"

// Department represents a lab department (PCR, Serology, Microbiology)
type Department struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"size:10;not null;uniqueIndex" json:"code"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
}

// TableName specifies the table name for Department model
func (Department) TableName() string {
	return "departments"
}
