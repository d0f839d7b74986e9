package models

import (
	"time"

	"lab-sample-intake/internal/intake"

	"gorm.io/datatypes"
)

// Sample groups units received together under shared intake metadata
type Sample struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SampleCode   string    `gorm:"size:50;not null;uniqueIndex" json:"sample_code"`
	Year         int       `gorm:"not null;index" json:"year"`
	DateReceived string    `gorm:"size:10;not null" json:"date_received"` // YYYY-MM-DD
	Company      string    `gorm:"size:255;not null;index" json:"company"`
	Farm         string    `gorm:"size:255;not null" json:"farm"`
	Cycle        string    `gorm:"size:100" json:"cycle,omitempty"`
	Flock        string    `gorm:"size:100" json:"flock,omitempty"`
	Status       string    `gorm:"size:30;not null;default:'pending'" json:"status"`
	CreatedBy    uint      `gorm:"index" json:"created_by"`
	LastEditedBy string    `gorm:"size:50" json:"last_edited_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Units []Unit `gorm:"foreignKey:SampleID;constraint:OnDelete:CASCADE" json:"units"`
}

// TableName specifies the table name for Sample model
func (Sample) TableName() string {
	return "samples"
}

// Unit is one department-scoped part of a sample. Exactly one of the
// department data relations is populated, matching the department code.
type Unit struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	SampleID      uint                        `gorm:"not null;index" json:"sample_id"`
	DepartmentID  uint                        `gorm:"not null;index" json:"department_id"`
	UnitCode      string                      `gorm:"size:50;not null;uniqueIndex" json:"unit_code"`
	Position      int                         `gorm:"not null;default:0" json:"position"` // order within the sample
	House         datatypes.JSONSlice[string] `json:"house"`
	Age           string                      `gorm:"size:50" json:"age"`
	Source        datatypes.JSONSlice[string] `json:"source"`
	SampleType    datatypes.JSONSlice[string] `json:"sample_type"`
	SamplesNumber *int                        `json:"samples_number"`
	Notes         string                      `gorm:"type:text" json:"notes"`
	COAStatus     *string                     `gorm:"size:20" json:"coa_status"` // nil, created, finalized
	LastEditedBy  string                      `gorm:"size:50" json:"last_edited_by,omitempty"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`

	// Relationships
	Department       *Department       `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	PCRData          *PCRData          `gorm:"foreignKey:UnitID;constraint:OnDelete:CASCADE" json:"pcr_data,omitempty"`
	SerologyData     *SerologyData     `gorm:"foreignKey:UnitID;constraint:OnDelete:CASCADE" json:"serology_data,omitempty"`
	MicrobiologyData *MicrobiologyData `gorm:"foreignKey:UnitID;constraint:OnDelete:CASCADE" json:"microbiology_data,omitempty"`
}

// TableName specifies the table name for Unit model
func (Unit) TableName() string {
	return "units"
}

type PCRData struct {
	ID               uint                                       `gorm:"primaryKey" json:"id"`
	UnitID           uint                                       `gorm:"not null;uniqueIndex" json:"unit_id"`
	DiseasesList     datatypes.JSONSlice[intake.DiseaseKitItem] `json:"diseases_list"`
	TechnicianName   string                                     `gorm:"size:100" json:"technician_name"`
	ExtractionMethod string                                     `gorm:"size:100" json:"extraction_method"`
	Extraction       *int                                       `json:"extraction"`
	Detection        *int                                       `json:"detection"`
}

func (PCRData) TableName() string {
	return "pcr_data"
}

type SerologyData struct {
	ID             uint                                       `gorm:"primaryKey" json:"id"`
	UnitID         uint                                       `gorm:"not null;uniqueIndex" json:"unit_id"`
	DiseasesList   datatypes.JSONSlice[intake.DiseaseKitItem] `json:"diseases_list"`
	NumberOfWells  int                                        `json:"number_of_wells"`
	TestsCount     *int                                       `json:"tests_count"`
	TechnicianName string                                     `gorm:"size:100" json:"technician_name"`
	CreatedAt      time.Time                                  `json:"created_at"`
	UpdatedAt      time.Time                                  `json:"updated_at"`
}

func (SerologyData) TableName() string {
	return "serology_data"
}

type MicrobiologyData struct {
	ID             uint                        `gorm:"primaryKey" json:"id"`
	UnitID         uint                        `gorm:"not null;uniqueIndex" json:"unit_id"`
	DiseasesList   datatypes.JSONSlice[string] `json:"diseases_list"`
	BatchNo        string                      `gorm:"size:100" json:"batch_no"`
	Fumigation     string                      `gorm:"size:30" json:"fumigation"` // "Before Fumigation" or "After Fumigation"
	IndexList      datatypes.JSONSlice[string] `json:"index_list"`
	TechnicianName string                      `gorm:"size:100" json:"technician_name"`
}

func (MicrobiologyData) TableName() string {
	return "microbiology_data"
}
