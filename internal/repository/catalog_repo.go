package repository

import (
	"lab-sample-intake/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository reads the per-department dropdown data
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetDiseasesByDepartment(departmentID uint) ([]models.Disease, error) {
	var diseases []models.Disease
	err := r.db.Where("department_id = ? AND is_active = ?", departmentID, true).
		Order("name ASC").
		Find(&diseases).Error
	return diseases, err
}

func (r *CatalogRepository) GetKitTypesByDepartment(departmentID uint) ([]models.KitType, error) {
	var kits []models.KitType
	err := r.db.Where("department_id = ? AND is_active = ?", departmentID, true).
		Order("name ASC").
		Find(&kits).Error
	return kits, err
}

func (r *CatalogRepository) GetSampleTypesByDepartment(departmentID uint) ([]models.SampleType, error) {
	var types []models.SampleType
	err := r.db.Where("department_id = ? AND is_active = ?", departmentID, true).
		Order("name ASC").
		Find(&types).Error
	return types, err
}

// GetAllDefaultKits retrieves every disease to kit mapping
func (r *CatalogRepository) GetAllDefaultKits() ([]models.DefaultKit, error) {
	var kits []models.DefaultKit
	err := r.db.Order("department_id ASC, disease ASC").Find(&kits).Error
	return kits, err
}

// EnsureDisease creates the disease for the department unless it exists
func (r *CatalogRepository) EnsureDisease(departmentID uint, name string) error {
	return r.db.Where(models.Disease{DepartmentID: departmentID, Name: name}).
		FirstOrCreate(&models.Disease{}).Error
}

func (r *CatalogRepository) EnsureKitType(departmentID uint, name string) error {
	return r.db.Where(models.KitType{DepartmentID: departmentID, Name: name}).
		FirstOrCreate(&models.KitType{}).Error
}

func (r *CatalogRepository) EnsureSampleType(departmentID uint, name string) error {
	return r.db.Where(models.SampleType{DepartmentID: departmentID, Name: name}).
		FirstOrCreate(&models.SampleType{}).Error
}

// SetDefaultKit creates or replaces the default kit of a disease
func (r *CatalogRepository) SetDefaultKit(departmentID uint, disease, kitType string) error {
	var kit models.DefaultKit
	return r.db.Where(models.DefaultKit{DepartmentID: departmentID, Disease: disease}).
		Assign(models.DefaultKit{KitType: kitType}).
		FirstOrCreate(&kit).Error
}
