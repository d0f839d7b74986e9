package repository

import (
	"errors"

	"lab-sample-intake/internal/models"

	"gorm.io/gorm"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepo(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// GetAllDepartments retrieves all active departments
func (r *DepartmentRepository) GetAllDepartments() ([]models.Department, error) {
	var departments []models.Department
	err := r.db.Where("is_active = ?", true).Order("id ASC").Find(&departments).Error
	return departments, err
}

// GetDepartmentByID retrieves a department by ID
func (r *DepartmentRepository) GetDepartmentByID(id uint) (*models.Department, error) {
	var department models.Department
	err := r.db.Where("id = ? AND is_active = ?", id, true).First(&department).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	return &department, nil
}

// GetDepartmentByCode retrieves a department by its unique code
func (r *DepartmentRepository) GetDepartmentByCode(code string) (*models.Department, error) {
	var department models.Department
	err := r.db.Where("code = ? AND is_active = ?", code, true).First(&department).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	return &department, nil
}

// UpsertDepartment creates the department or updates name and description
// of the existing one with the same code
func (r *DepartmentRepository) UpsertDepartment(department *models.Department) error {
	var existing models.Department
	err := r.db.Where("code = ?", department.Code).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(department).Error
	}
	if err != nil {
		return err
	}
	existing.Name = department.Name
	existing.Description = department.Description
	existing.IsActive = true
	if err := r.db.Save(&existing).Error; err != nil {
		return err
	}
	*department = existing
	return nil
}
