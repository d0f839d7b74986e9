package models

// Disease is an assay target offered by a department
type Disease struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:100;not null" json:"name"`
	DepartmentID uint   `gorm:"not null;index" json:"department_id"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
}

func (Disease) TableName() string {
	return "diseases"
}

// KitType is a reagent kit offered by a department
type KitType struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:100;not null" json:"name"`
	DepartmentID uint   `gorm:"not null;index" json:"department_id"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
}

func (KitType) TableName() string {
	return "kit_types"
}

// SampleType is an organ or material a department accepts
type SampleType struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:100;not null" json:"name"`
	DepartmentID uint   `gorm:"not null;index" json:"department_id"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
}

func (SampleType) TableName() string {
	return "sample_types"
}

// DefaultKit preselects a kit when a disease is chosen on a unit
type DefaultKit struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	DepartmentID uint   `gorm:"not null;uniqueIndex:idx_default_kit" json:"department_id"`
	Disease      string `gorm:"size:100;not null;uniqueIndex:idx_default_kit" json:"disease"`
	KitType      string `gorm:"size:100;not null" json:"kit_type"`
}

func (DefaultKit) TableName() string {
	return "default_kits"
}
