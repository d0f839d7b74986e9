package repository

import (
	"errors"
	"time"

	"lab-sample-intake/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SampleRepository struct {
	db *gorm.DB
}

func NewSampleRepo(db *gorm.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *SampleRepository) WithTx(tx *gorm.DB) *SampleRepository {
	return &SampleRepository{db: tx}
}

// SampleFilter narrows ListSamples. Zero values mean "any".
type SampleFilter struct {
	DepartmentID uint
	Year         int
	Search       string
	Limit        int
	Offset       int
}

func withUnitDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Units", func(db *gorm.DB) *gorm.DB {
		return db.Order("units.position ASC, units.id ASC")
	}).
		Preload("Units.Department").
		Preload("Units.PCRData").
		Preload("Units.SerologyData").
		Preload("Units.MicrobiologyData")
}

// CreateSample inserts a sample together with its units and their department data
func (r *SampleRepository) CreateSample(sample *models.Sample) error {
	return r.db.Create(sample).Error
}

// GetSampleByID retrieves a sample with all units and department data preloaded
func (r *SampleRepository) GetSampleByID(id uint) (*models.Sample, error) {
	var sample models.Sample
	err := r.db.Scopes(withUnitDetails).First(&sample, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSampleNotFound
		}
		return nil, err
	}
	return &sample, nil
}

// ListSamples returns one page of samples, newest first, and the total
// number of samples matching the filter
func (r *SampleRepository) ListSamples(f SampleFilter) ([]models.Sample, int64, error) {
	query := r.db.Model(&models.Sample{})
	if f.Year > 0 {
		query = query.Where("samples.year = ?", f.Year)
	}
	if f.DepartmentID > 0 {
		query = query.Where("samples.id IN (?)",
			r.db.Model(&models.Unit{}).Select("sample_id").Where("department_id = ?", f.DepartmentID))
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where(
			r.db.Where("samples.sample_code LIKE ?", like).
				Or("samples.company LIKE ?", like).
				Or("samples.farm LIKE ?", like).
				Or("samples.id IN (?)", r.db.Model(&models.Unit{}).Select("sample_id").Where("unit_code LIKE ?", like)),
		)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	var samples []models.Sample
	err := query.Scopes(withUnitDetails).
		Order("samples.created_at DESC, samples.id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&samples).Error
	return samples, total, err
}

// GetYears returns the distinct sample years, most recent first
func (r *SampleRepository) GetYears() ([]int, error) {
	var years []int
	err := r.db.Model(&models.Sample{}).
		Distinct("year").
		Order("year DESC").
		Pluck("year", &years).Error
	return years, err
}

// UpdateSampleFields saves the sample row without touching its units
func (r *SampleRepository) UpdateSampleFields(sample *models.Sample) error {
	return r.db.Omit(clause.Associations).Save(sample).Error
}

// CreateUnit inserts a unit and its department data
func (r *SampleRepository) CreateUnit(unit *models.Unit) error {
	return r.db.Omit("Department").Create(unit).Error
}

// SaveUnit updates a unit row and upserts its department data. coa_status
// is left alone; only SetUnitCOAStatus writes it.
func (r *SampleRepository) SaveUnit(unit *models.Unit) error {
	if err := r.db.Omit(clause.Associations, "coa_status").Save(unit).Error; err != nil {
		return err
	}
	switch {
	case unit.PCRData != nil:
		unit.PCRData.UnitID = unit.ID
		return r.db.Save(unit.PCRData).Error
	case unit.SerologyData != nil:
		unit.SerologyData.UnitID = unit.ID
		return r.db.Save(unit.SerologyData).Error
	case unit.MicrobiologyData != nil:
		unit.MicrobiologyData.UnitID = unit.ID
		return r.db.Save(unit.MicrobiologyData).Error
	}
	return nil
}

// DeleteUnits removes units with their department data and COA results
func (r *SampleRepository) DeleteUnits(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	for _, model := range []any{&models.PCRData{}, &models.SerologyData{}, &models.MicrobiologyData{}, &models.COA{}} {
		if err := r.db.Where("unit_id IN ?", ids).Delete(model).Error; err != nil {
			return err
		}
	}
	return r.db.Where("id IN ?", ids).Delete(&models.Unit{}).Error
}

// GetUnitByID retrieves one unit with its department and department data
func (r *SampleRepository) GetUnitByID(id uint) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.Preload("Department").
		Preload("PCRData").
		Preload("SerologyData").
		Preload("MicrobiologyData").
		First(&unit, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// SetUnitCOAStatus records the COA state on the unit; nil clears it
func (r *SampleRepository) SetUnitCOAStatus(unitID uint, status *string) error {
	return r.db.Model(&models.Unit{}).Where("id = ?", unitID).Update("coa_status", status).Error
}

// StatisticsRange selects samples either by received date (YYYY-MM-DD,
// half-open) or, when ReceivedFrom is empty, by creation time
type StatisticsRange struct {
	ReceivedFrom string
	ReceivedTo   string
	CreatedFrom  time.Time
	CreatedTo    time.Time
}

// ListSamplesInRange returns every sample in the range with unit details
func (r *SampleRepository) ListSamplesInRange(rg StatisticsRange) ([]models.Sample, error) {
	query := r.db.Model(&models.Sample{})
	if rg.ReceivedFrom != "" {
		query = query.Where("samples.date_received >= ? AND samples.date_received < ?", rg.ReceivedFrom, rg.ReceivedTo)
	} else {
		query = query.Where("samples.created_at >= ? AND samples.created_at < ?", rg.CreatedFrom, rg.CreatedTo)
	}
	var samples []models.Sample
	err := query.Scopes(withUnitDetails).Order("samples.id ASC").Find(&samples).Error
	return samples, err
}
