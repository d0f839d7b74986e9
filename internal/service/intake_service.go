package service

import (
	"fmt"
	"sync"

	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/metrics"
	"lab-sample-intake/internal/models"

	"go.uber.org/zap"
)

// SessionView is the state of an intake form as returned to the client
type SessionView struct {
	Purpose        string                 `json:"purpose"`
	SampleID       *uint                  `json:"sample_id,omitempty"`
	Sample         intake.SampleInfo      `json:"sample"`
	Units          []intake.Unit          `json:"units"`
	Groups         map[uint][]int         `json:"groups"`
	Completion     intake.CompletionState `json:"completion"`
	Progress       float64                `json:"progress"`
	NextCodes      map[uint]string        `json:"next_codes"`
	NextSampleCode string                 `json:"next_sample_code,omitempty"`
	NewIndex       *int                   `json:"new_index,omitempty"`
	UnitCode       string                 `json:"unit_code,omitempty"`
}

// SubmitResult is returned once a session has been saved
type SubmitResult struct {
	Sample  *models.Sample `json:"sample"`
	Session *SessionView   `json:"session"`
}

type session struct {
	sampleID       *uint
	coll           *intake.Collection
	seeds          intake.CodeSeeds
	nextSampleCode string
}

func (s *session) state() sessionState {
	return sessionState{SampleID: s.sampleID, Snapshot: s.coll.Snapshot()}
}

type mutation struct {
	newIndex *int
	unitCode string
}

// IntakeService keeps one form session per user and purpose. The session
// lives in the draft store between requests; requests of one user for one
// purpose are serialized.
type IntakeService struct {
	catalog      *CatalogService
	reservations *ReservationService
	drafts       *DraftService
	samples      *SampleService
	signatures   *SignatureService
	opts         intake.Options
	metrics      *metrics.Metrics
	logger       *zap.Logger

	locks sync.Map
}

func NewIntakeService(
	catalog *CatalogService,
	reservations *ReservationService,
	drafts *DraftService,
	samples *SampleService,
	signatures *SignatureService,
	opts intake.Options,
	m *metrics.Metrics,
	logger *zap.Logger,
) *IntakeService {
	return &IntakeService{
		catalog:      catalog,
		reservations: reservations,
		drafts:       drafts,
		samples:      samples,
		signatures:   signatures,
		opts:         opts,
		metrics:      m,
		logger:       logger,
	}
}

func (s *IntakeService) lock(userID uint, purpose string) func() {
	v, _ := s.locks.LoadOrStore(fmt.Sprintf("%d:%s", userID, purpose), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *IntakeService) load(actor Actor, purpose string) (*session, error) {
	cat, err := s.catalog.IntakeCatalog()
	if err != nil {
		return nil, err
	}
	state, err := s.drafts.Load(purpose, actor.UserID)
	if err != nil {
		return nil, err
	}

	sess := &session{}
	if state != nil {
		coll, err := intake.Restore(cat, s.opts, state.Snapshot)
		if err != nil {
			s.logger.Warn("draft no longer matches the catalog, starting over",
				zap.Uint("user_id", actor.UserID),
				zap.String("purpose", purpose),
				zap.Error(err))
		} else {
			sess.coll = coll
			sess.sampleID = state.SampleID
		}
	}
	if sess.coll == nil {
		sess.coll = intake.NewCollection(cat, s.opts)
	}

	if sess.sampleID != nil {
		if sess.seeds, err = s.reservations.UnitSeeds(); err != nil {
			return nil, err
		}
		return sess, nil
	}

	preview, err := s.reservations.Preview(actor.UserID)
	if err != nil {
		return nil, err
	}
	sess.nextSampleCode = preview.NextSampleCode
	sess.seeds = make(intake.CodeSeeds, len(preview.UnitCounters))
	for id, uc := range preview.UnitCounters {
		sess.seeds[id] = uc.NextUnitNumber
	}
	return sess, nil
}

func (s *IntakeService) view(purpose string, sess *session) *SessionView {
	return &SessionView{
		Purpose:        purpose,
		SampleID:       sess.sampleID,
		Sample:         sess.coll.Sample,
		Units:          sess.coll.Units(),
		Groups:         sess.coll.GroupByDepartment(),
		Completion:     sess.coll.Completion(),
		Progress:       sess.coll.Progress(),
		NextCodes:      sess.coll.PreviewCodes(sess.seeds),
		NextSampleCode: sess.nextSampleCode,
	}
}

// mutate loads the session, applies fn and stores the result as the draft.
// When fn fails nothing is stored.
func (s *IntakeService) mutate(actor Actor, purpose string, fn func(*session) (mutation, error)) (*SessionView, error) {
	unlock := s.lock(actor.UserID, purpose)
	defer unlock()

	sess, err := s.load(actor, purpose)
	if err != nil {
		return nil, err
	}
	m, err := fn(sess)
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Save(purpose, actor.UserID, sess.state()); err != nil {
		return nil, err
	}

	v := s.view(purpose, sess)
	v.NewIndex = m.newIndex
	v.UnitCode = m.unitCode
	return v, nil
}

// Open returns the current session, restored from the draft when one exists
func (s *IntakeService) Open(actor Actor, purpose string) (*SessionView, error) {
	unlock := s.lock(actor.UserID, purpose)
	defer unlock()

	sess, err := s.load(actor, purpose)
	if err != nil {
		return nil, err
	}
	return s.view(purpose, sess), nil
}

// Discard drops the draft and the caller's reserved sample number
func (s *IntakeService) Discard(actor Actor, purpose string) error {
	unlock := s.lock(actor.UserID, purpose)
	defer unlock()

	s.reservations.Release(actor.UserID)
	return s.drafts.Discard(purpose, actor.UserID)
}

// Edit replaces the session with a saved sample so it can be changed and
// submitted again
func (s *IntakeService) Edit(actor Actor, purpose string, sampleID uint) (*SessionView, error) {
	unlock := s.lock(actor.UserID, purpose)
	defer unlock()

	cat, err := s.catalog.IntakeCatalog()
	if err != nil {
		return nil, err
	}
	info, units, err := s.samples.LoadForEdit(sampleID)
	if err != nil {
		return nil, err
	}
	coll, err := intake.Restore(cat, s.opts, intake.Snapshot{Sample: info, Units: units})
	if err != nil {
		return nil, fmt.Errorf("failed to open sample for editing: %w", err)
	}
	seeds, err := s.reservations.UnitSeeds()
	if err != nil {
		return nil, err
	}

	sess := &session{sampleID: &sampleID, coll: coll, seeds: seeds}
	if err := s.drafts.Save(purpose, actor.UserID, sess.state()); err != nil {
		return nil, err
	}
	s.reservations.Release(actor.UserID)
	return s.view(purpose, sess), nil
}

func (s *IntakeService) SetSample(actor Actor, purpose string, info intake.SampleInfo) (*SessionView, error) {
	return s.mutate(actor, purpose, func(sess *session) (mutation, error) {
		sess.coll.Sample = info
		return mutation{}, nil
	})
}

func (s *IntakeService) AddUnit(actor Actor, purpose string, departmentID uint) (*SessionView, error) {
	return s.mutate(actor, purpose, func(sess *session) (mutation, error) {
		i, err := sess.coll.AddUnit(departmentID, sess.seeds)
		if err != nil {
			return mutation{}, err
		}
		u, _ := sess.coll.Unit(i)
		return mutation{newIndex: &i, unitCode: u.UnitCode}, nil
	})
}

func (s *IntakeService) DuplicateUnit(actor Actor, purpose string, index int) (*SessionView, error) {
	return s.mutate(actor, purpose, func(sess *session) (mutation, error) {
		i, code, err := sess.coll.DuplicateUnit(index)
		if err != nil {
			return mutation{}, err
		}
		return mutation{newIndex: &i, unitCode: code}, nil
	})
}

func (s *IntakeService) UpdateUnit(actor Actor, purpose string, index int, patch intake.UnitPatch) (*SessionView, error) {
	return s.mutate(actor, purpose, func(sess *session) (mutation, error) {
		return mutation{}, sess.coll.UpdateUnit(index, patch)
	})
}

func (s *IntakeService) RemoveUnit(actor Actor, purpose string, index int) (*SessionView, error) {
	return s.mutate(actor, purpose, func(sess *session) (mutation, error) {
		return mutation{}, sess.coll.RemoveUnit(index)
	})
}

func (s *IntakeService) ToggleDisease(actor Actor, purpose string, index int, disease string) (*SessionView, error) {
	return s.mutate(actor, purpose, func(sess *session) (mutation, error) {
		return mutation{}, sess.coll.ToggleDisease(index, disease)
	})
}

func (s *IntakeService) SetDiseaseTestCount(actor Actor, purpose string, index int, disease string, delta int) (*SessionView, error) {
	return s.mutate(actor, purpose, func(sess *session) (mutation, error) {
		return mutation{}, sess.coll.SetDiseaseTestCount(index, disease, delta)
	})
}

func (s *IntakeService) SetDiseaseKitType(actor Actor, purpose string, index int, disease, kitType string) (*SessionView, error) {
	return s.mutate(actor, purpose, func(sess *session) (mutation, error) {
		return mutation{}, sess.coll.SetDiseaseKitType(index, disease, kitType)
	})
}

func (s *IntakeService) ImportLocations(actor Actor, purpose string, index int, text string) (*SessionView, error) {
	return s.mutate(actor, purpose, func(sess *session) (mutation, error) {
		return mutation{}, sess.coll.ImportLocations(index, text)
	})
}

func (s *IntakeService) ReorderLocations(actor Actor, purpose string, index, from, to int) (*SessionView, error) {
	return s.mutate(actor, purpose, func(sess *session) (mutation, error) {
		return mutation{}, sess.coll.ReorderLocations(index, from, to)
	})
}

func (s *IntakeService) RemoveLocation(actor Actor, purpose string, index, location int) (*SessionView, error) {
	return s.mutate(actor, purpose, func(sess *session) (mutation, error) {
		return mutation{}, sess.coll.RemoveLocation(index, location)
	})
}

// StampTechnician verifies pin and writes the signature owner as the
// unit's technician
func (s *IntakeService) StampTechnician(actor Actor, purpose string, index int, pin string) (*SessionView, error) {
	result, err := s.signatures.VerifyPIN(pin)
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		return nil, ErrPINRejected
	}
	return s.mutate(actor, purpose, func(sess *session) (mutation, error) {
		return mutation{}, sess.coll.SetTechnician(index, result.Name)
	})
}

// Submit validates the whole session, saves it and writes the assigned
// ids and codes back into the session. The draft is cleared on success.
func (s *IntakeService) Submit(actor Actor, purpose string) (*SubmitResult, error) {
	unlock := s.lock(actor.UserID, purpose)
	defer unlock()

	sess, err := s.load(actor, purpose)
	if err != nil {
		return nil, err
	}
	if err := sess.coll.Validate(); err != nil {
		s.metrics.ValidationFailures.Inc()
		return nil, err
	}

	req := SampleRequest{SampleInfo: sess.coll.Sample, Units: sess.coll.Units()}
	var sample *models.Sample
	if sess.sampleID == nil {
		sample, err = s.samples.Create(req, actor)
	} else {
		sample, err = s.samples.Update(*sess.sampleID, req, actor)
	}
	if err != nil {
		return nil, err
	}

	for i := range sample.Units {
		if err := sess.coll.Reconcile(i, sample.Units[i].ID, sample.Units[i].UnitCode); err != nil {
			return nil, err
		}
	}
	sess.sampleID = &sample.ID
	sess.nextSampleCode = ""

	// The sample is saved either way. A draft that survives must point at it
	// so submitting again updates instead of creating a second sample.
	if err := s.drafts.Discard(purpose, actor.UserID); err != nil {
		s.logger.Error("failed to clear draft after submit", zap.Uint("user_id", actor.UserID), zap.Error(err))
		if err := s.drafts.Save(purpose, actor.UserID, sess.state()); err != nil {
			s.logger.Error("failed to point draft at saved sample",
				zap.Uint("user_id", actor.UserID),
				zap.Uint("sample_id", sample.ID),
				zap.Error(err))
		}
	}

	return &SubmitResult{Sample: sample, Session: s.view(purpose, sess)}, nil
}
