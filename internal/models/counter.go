package models

const (
	CounterSample = "sample"
	CounterUnit   = "unit"
)

// Counter holds the last issued number of a sequence for one year.
// Sample counters have no department.
type Counter struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CounterType  string `gorm:"size:50;not null;index:idx_counter_lookup" json:"counter_type"`
	DepartmentID *uint  `gorm:"index:idx_counter_lookup" json:"department_id"`
	Year         int    `gorm:"not null;index:idx_counter_lookup" json:"year"`
	CurrentValue int    `gorm:"not null;default:0" json:"current_value"`
}

// TableName specifies the table name for Counter model
func (Counter) TableName() string {
	return "counters"
}
