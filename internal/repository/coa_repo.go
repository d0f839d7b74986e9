package repository

import (
	"errors"

	"lab-sample-intake/internal/models"

	"gorm.io/gorm"
)

type COARepository struct {
	db *gorm.DB
}

func NewCOARepo(db *gorm.DB) *COARepository {
	return &COARepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *COARepository) WithTx(tx *gorm.DB) *COARepository {
	return &COARepository{db: tx}
}

// GetCOAByUnitID retrieves the COA recorded for a unit
func (r *COARepository) GetCOAByUnitID(unitID uint) (*models.COA, error) {
	var coa models.COA
	err := r.db.Where("unit_id = ?", unitID).First(&coa).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCOANotFound
		}
		return nil, err
	}
	return &coa, nil
}

// GetCOAsByUnitIDs retrieves the COAs of several units; units without one are skipped
func (r *COARepository) GetCOAsByUnitIDs(unitIDs []uint) ([]models.COA, error) {
	coas := []models.COA{}
	if len(unitIDs) == 0 {
		return coas, nil
	}
	err := r.db.Where("unit_id IN ?", unitIDs).Order("unit_id ASC").Find(&coas).Error
	return coas, err
}

func (r *COARepository) CreateCOA(coa *models.COA) error {
	return r.db.Create(coa).Error
}

func (r *COARepository) SaveCOA(coa *models.COA) error {
	return r.db.Save(coa).Error
}

func (r *COARepository) DeleteCOA(unitID uint) error {
	return r.db.Where("unit_id = ?", unitID).Delete(&models.COA{}).Error
}
