package repository

import (
	"errors"

	"lab-sample-intake/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DraftRepository struct {
	db *gorm.DB
}

func NewDraftRepo(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// GetDraft retrieves the draft a user keeps for a purpose
func (r *DraftRepository) GetDraft(purpose string, userID uint) (*models.Draft, error) {
	var draft models.Draft
	err := r.db.Where("purpose = ? AND user_id = ?", purpose, userID).First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	return &draft, nil
}

// SaveDraft creates the draft or replaces its payload
func (r *DraftRepository) SaveDraft(purpose string, userID uint, payload []byte) error {
	draft, err := r.GetDraft(purpose, userID)
	if errors.Is(err, ErrDraftNotFound) {
		return r.db.Create(&models.Draft{
			Purpose: purpose,
			UserID:  userID,
			Payload: datatypes.JSON(payload),
		}).Error
	}
	if err != nil {
		return err
	}
	return r.db.Model(draft).Update("payload", datatypes.JSON(payload)).Error
}

// DeleteDraft removes the draft; a missing draft is not an error
func (r *DraftRepository) DeleteDraft(purpose string, userID uint) error {
	return r.db.Where("purpose = ? AND user_id = ?", purpose, userID).
		Delete(&models.Draft{}).Error
}
