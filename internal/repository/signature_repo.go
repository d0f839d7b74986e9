package repository

import (
	"errors"

	"lab-sample-intake/internal/models"

	"gorm.io/gorm"
)

type SignatureRepository struct {
	db *gorm.DB
}

func NewSignatureRepo(db *gorm.DB) *SignatureRepository {
	return &SignatureRepository{db: db}
}

// CreateSignature stores a new technician signature
func (r *SignatureRepository) CreateSignature(sig *models.Signature) error {
	return r.db.Create(sig).Error
}

// GetActiveSignatures retrieves every signature a PIN may be checked against
func (r *SignatureRepository) GetActiveSignatures() ([]models.Signature, error) {
	var sigs []models.Signature
	err := r.db.Where("is_active = ?", true).Order("id ASC").Find(&sigs).Error
	return sigs, err
}

// GetSignatureByName retrieves a signature by technician name
func (r *SignatureRepository) GetSignatureByName(name string) (*models.Signature, error) {
	var sig models.Signature
	err := r.db.Where("name = ?", name).First(&sig).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSignatureNotFound
		}
		return nil, err
	}
	return &sig, nil
}

// DeactivateSignature revokes a signature so its PIN no longer verifies
func (r *SignatureRepository) DeactivateSignature(id uint) error {
	result := r.db.Model(&models.Signature{}).
		Where("id = ?", id).
		Update("is_active", false)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSignatureNotFound
	}

	return nil
}
