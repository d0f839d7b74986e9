package repository

import (
	"lab-sample-intake/internal/models"

	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *AuditRepository) WithTx(tx *gorm.DB) *AuditRepository {
	return &AuditRepository{db: tx}
}

// CreateAuditLog creates a new audit log entry
func (r *AuditRepository) CreateAuditLog(userID *uint, action string, details string) error {
	log := &models.AuditLog{
		UserID:  userID,
		Action:  action,
		Details: details,
	}
	return r.db.Create(log).Error
}

// CreateEditHistory stores field changes in one batch
func (r *AuditRepository) CreateEditHistory(entries []models.EditHistory) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.Create(&entries).Error
}

// GetEditHistoryBySampleCode returns the changes of a sample and its units, newest first
func (r *AuditRepository) GetEditHistoryBySampleCode(sampleCode string) ([]models.EditHistory, error) {
	var entries []models.EditHistory
	err := r.db.Where("sample_code = ?", sampleCode).
		Order("edited_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}
