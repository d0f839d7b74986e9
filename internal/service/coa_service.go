package service

import (
	"errors"
	"fmt"
	"time"

	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/models"
	"lab-sample-intake/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// COARequest creates or patches a COA. Nil fields are left untouched on update.
type COARequest struct {
	TestResults   map[string]any `json:"test_results"`
	DateTested    *string        `json:"date_tested"`
	TestedBy      *string        `json:"tested_by"`
	ReviewedBy    *string        `json:"reviewed_by"`
	LabSupervisor *string        `json:"lab_supervisor"`
	LabManager    *string        `json:"lab_manager"`
	Notes         *string        `json:"notes"`
	Status        *string        `json:"status"`
}

// COAService records test results per unit and keeps the unit's
// coa_status in step with the COA
type COAService struct {
	db         *gorm.DB
	coaRepo    *repository.COARepository
	sampleRepo *repository.SampleRepository
	auditRepo  *repository.AuditRepository
	logger     *zap.Logger
}

func NewCOAService(db *gorm.DB, coaRepo *repository.COARepository, sampleRepo *repository.SampleRepository, auditRepo *repository.AuditRepository, logger *zap.Logger) *COAService {
	return &COAService{
		db:         db,
		coaRepo:    coaRepo,
		sampleRepo: sampleRepo,
		auditRepo:  auditRepo,
		logger:     logger,
	}
}

func unitCOAStatus(status string) *string {
	v := models.UnitCOACreated
	if status == models.COAStatusFinalized {
		v = models.UnitCOAFinalized
	}
	return &v
}

func diseaseNames(u intake.Unit) map[string]bool {
	names := make(map[string]bool)
	switch d := u.Data.(type) {
	case *intake.PCRData:
		for _, item := range d.DiseasesList {
			names[item.Disease] = true
		}
	case *intake.SerologyData:
		for _, item := range d.DiseasesList {
			names[item.Disease] = true
		}
	case *intake.MicrobiologyData:
		for _, name := range d.DiseasesList {
			names[name] = true
		}
	}
	return names
}

func applyCOA(coa *models.COA, req COARequest) {
	if req.TestResults != nil {
		coa.TestResults = datatypes.JSONMap(req.TestResults)
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&coa.DateTested, req.DateTested)
	set(&coa.TestedBy, req.TestedBy)
	set(&coa.ReviewedBy, req.ReviewedBy)
	set(&coa.LabSupervisor, req.LabSupervisor)
	set(&coa.LabManager, req.LabManager)
	set(&coa.Notes, req.Notes)
	set(&coa.Status, req.Status)
}

// checkCOA validates a COA against the unit it belongs to
func checkCOA(coa *models.COA, unit *models.Unit) error {
	if coa.Status != models.COAStatusDraft && coa.Status != models.COAStatusFinalized {
		return fmt.Errorf("%w: status must be %s or %s", ErrInvalidCOA, models.COAStatusDraft, models.COAStatusFinalized)
	}
	if coa.DateTested != "" {
		if _, err := time.Parse(intake.DateLayout, coa.DateTested); err != nil {
			return fmt.Errorf("%w: date_tested must be formatted YYYY-MM-DD", ErrInvalidCOA)
		}
	}
	selected := diseaseNames(unitFromModel(unit))
	for disease := range coa.TestResults {
		if !selected[disease] {
			return fmt.Errorf("%w: %s is not tested on unit %s", ErrInvalidCOA, disease, unit.UnitCode)
		}
	}
	if coa.Status == models.COAStatusFinalized {
		if len(coa.TestResults) == 0 {
			return fmt.Errorf("%w: a COA without results cannot be finalized", ErrInvalidCOA)
		}
		if coa.TestedBy == "" {
			return fmt.Errorf("%w: tested_by is required to finalize", ErrInvalidCOA)
		}
	}
	return nil
}

// save writes coa and mirrors its status onto the unit in one transaction
func (s *COAService) save(coa *models.COA, create bool) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		coas := s.coaRepo.WithTx(tx)
		var err error
		if create {
			err = coas.CreateCOA(coa)
		} else {
			err = coas.SaveCOA(coa)
		}
		if err != nil {
			return err
		}
		return s.sampleRepo.WithTx(tx).SetUnitCOAStatus(coa.UnitID, unitCOAStatus(coa.Status))
	})
}

// Get returns the COA of a unit
func (s *COAService) Get(unitID uint) (*models.COA, error) {
	return s.coaRepo.GetCOAByUnitID(unitID)
}

// GetBatch returns the COAs of the given units
func (s *COAService) GetBatch(unitIDs []uint) ([]models.COA, error) {
	coas, err := s.coaRepo.GetCOAsByUnitIDs(unitIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch COAs: %w", err)
	}
	return coas, nil
}

// Create records the first COA of a unit
func (s *COAService) Create(unitID uint, req COARequest, actor Actor) (*models.COA, error) {
	unit, err := s.sampleRepo.GetUnitByID(unitID)
	if err != nil {
		return nil, err
	}

	// Check if a COA already exists
	_, err = s.coaRepo.GetCOAByUnitID(unitID)
	if err == nil {
		return nil, ErrCOAExists
	}
	if !errors.Is(err, repository.ErrCOANotFound) {
		return nil, err
	}

	coa := &models.COA{UnitID: unitID, Status: models.COAStatusDraft, LastEditedBy: actor.Username}
	applyCOA(coa, req)
	if err := checkCOA(coa, unit); err != nil {
		return nil, err
	}
	if err := s.save(coa, true); err != nil {
		return nil, fmt.Errorf("failed to create COA: %w", err)
	}

	_ = s.auditRepo.CreateAuditLog(&actor.UserID, "coa_created",
		fmt.Sprintf("COA for unit %s created as %s", unit.UnitCode, coa.Status))
	s.logger.Info("COA created", zap.String("unit_code", unit.UnitCode), zap.String("status", coa.Status))
	return coa, nil
}

// Update patches a draft COA. A finalized COA must be reopened first.
func (s *COAService) Update(unitID uint, req COARequest, actor Actor) (*models.COA, error) {
	unit, err := s.sampleRepo.GetUnitByID(unitID)
	if err != nil {
		return nil, err
	}
	coa, err := s.coaRepo.GetCOAByUnitID(unitID)
	if err != nil {
		return nil, err
	}
	if coa.Status == models.COAStatusFinalized {
		return nil, ErrCOAFinalized
	}

	applyCOA(coa, req)
	coa.LastEditedBy = actor.Username
	if err := checkCOA(coa, unit); err != nil {
		return nil, err
	}
	if err := s.save(coa, false); err != nil {
		return nil, fmt.Errorf("failed to update COA: %w", err)
	}

	if coa.Status == models.COAStatusFinalized {
		_ = s.auditRepo.CreateAuditLog(&actor.UserID, "coa_finalized", fmt.Sprintf("COA for unit %s finalized", unit.UnitCode))
		s.logger.Info("COA finalized", zap.String("unit_code", unit.UnitCode), zap.String("user", actor.Username))
	}
	return coa, nil
}

// Reopen moves a finalized COA back to draft
func (s *COAService) Reopen(unitID uint, actor Actor) (*models.COA, error) {
	coa, err := s.coaRepo.GetCOAByUnitID(unitID)
	if err != nil {
		return nil, err
	}
	if coa.Status != models.COAStatusFinalized {
		return nil, ErrCOANotFinalized
	}

	coa.Status = models.COAStatusDraft
	coa.LastEditedBy = actor.Username
	if err := s.save(coa, false); err != nil {
		return nil, fmt.Errorf("failed to reopen COA: %w", err)
	}

	_ = s.auditRepo.CreateAuditLog(&actor.UserID, "coa_reopened", fmt.Sprintf("COA for unit %d reopened", unitID))
	return coa, nil
}

// Delete removes a draft COA and clears the unit's coa_status
func (s *COAService) Delete(unitID uint, actor Actor) error {
	coa, err := s.coaRepo.GetCOAByUnitID(unitID)
	if err != nil {
		return err
	}
	if coa.Status == models.COAStatusFinalized {
		return ErrCOAFinalized
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.coaRepo.WithTx(tx).DeleteCOA(unitID); err != nil {
			return err
		}
		return s.sampleRepo.WithTx(tx).SetUnitCOAStatus(unitID, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to delete COA: %w", err)
	}

	_ = s.auditRepo.CreateAuditLog(&actor.UserID, "coa_deleted", fmt.Sprintf("COA for unit %d deleted", unitID))
	return nil
}
