package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/repository"

	"go.uber.org/zap"
)

// DefaultPurpose is the draft slot used by the sample intake form
const DefaultPurpose = "sample_form"

// sessionState is what an intake draft stores. SampleID is set when the
// session edits an already saved sample.
type sessionState struct {
	SampleID *uint `json:"sample_id,omitempty"`
	intake.Snapshot
}

type DraftService struct {
	draftRepo *repository.DraftRepository
	logger    *zap.Logger
}

func NewDraftService(draftRepo *repository.DraftRepository, logger *zap.Logger) *DraftService {
	return &DraftService{
		draftRepo: draftRepo,
		logger:    logger,
	}
}

// Load returns the stored session, or nil when the user has no draft
func (s *DraftService) Load(purpose string, userID uint) (*sessionState, error) {
	draft, err := s.draftRepo.GetDraft(purpose, userID)
	if errors.Is(err, repository.ErrDraftNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var state sessionState
	if err := json.Unmarshal(draft.Payload, &state); err != nil {
		s.logger.Warn("discarding unreadable draft",
			zap.String("purpose", purpose),
			zap.Uint("user_id", userID),
			zap.Error(err))
		return nil, nil
	}
	return &state, nil
}

// Save writes the session. The draft is the only copy of a session between
// requests, so callers must not report a change as saved when this fails.
func (s *DraftService) Save(purpose string, userID uint, state sessionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.draftRepo.SaveDraft(purpose, userID, payload); err != nil {
		s.logger.Error("failed to save draft",
			zap.String("purpose", purpose),
			zap.Uint("user_id", userID),
			zap.Error(err))
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Discard removes the draft
func (s *DraftService) Discard(purpose string, userID uint) error {
	if err := s.draftRepo.DeleteDraft(purpose, userID); err != nil {
		return fmt.Errorf("failed to discard draft: %w", err)
	}
	return nil
}
