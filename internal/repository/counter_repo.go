package repository

import (
	"errors"

	"lab-sample-intake/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CounterRepository struct {
	db *gorm.DB
}

func NewCounterRepo(db *gorm.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *CounterRepository) WithTx(tx *gorm.DB) *CounterRepository {
	return &CounterRepository{db: tx}
}

func counterScope(counterType string, departmentID *uint, year int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("counter_type = ? AND year = ?", counterType, year)
		if departmentID == nil {
			return db.Where("department_id IS NULL")
		}
		return db.Where("department_id = ?", *departmentID)
	}
}

// CurrentValue returns the last issued number, 0 when the sequence has not started
func (r *CounterRepository) CurrentValue(counterType string, departmentID *uint, year int) (int, error) {
	var counter models.Counter
	err := r.db.Scopes(counterScope(counterType, departmentID, year)).First(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return counter.CurrentValue, nil
}

// CurrentUnitValues returns the current unit counter of every department for a year
func (r *CounterRepository) CurrentUnitValues(year int) (map[uint]int, error) {
	var counters []models.Counter
	err := r.db.Where("counter_type = ? AND year = ? AND department_id IS NOT NULL", models.CounterUnit, year).
		Find(&counters).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int, len(counters))
	for _, c := range counters {
		out[*c.DepartmentID] = c.CurrentValue
	}
	return out, nil
}

// Advance issues the next number of a sequence and returns it. The issued
// number is current+1, or atLeast when that is higher. Call inside a
// transaction; the counter row is locked until it ends.
func (r *CounterRepository) Advance(counterType string, departmentID *uint, year int, atLeast int) (int, error) {
	var counter models.Counter
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(counterScope(counterType, departmentID, year)).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		counter = models.Counter{
			CounterType:  counterType,
			DepartmentID: departmentID,
			Year:         year,
		}
		if err := r.db.Create(&counter).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	next := counter.CurrentValue + 1
	if atLeast > next {
		next = atLeast
	}
	if err := r.db.Model(&counter).Update("current_value", next).Error; err != nil {
		return 0, err
	}
	return next, nil
}
