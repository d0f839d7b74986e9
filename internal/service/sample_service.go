package service

import (
	"errors"
	"fmt"
	"time"

	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/metrics"
	"lab-sample-intake/internal/models"
	"lab-sample-intake/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actor identifies who performs a change
type Actor struct {
	UserID   uint
	Username string
}

// SampleRequest is the body of a sample submission or update
type SampleRequest struct {
	intake.SampleInfo
	Units []intake.Unit `json:"units"`
}

type SampleService struct {
	db           *gorm.DB
	sampleRepo   *repository.SampleRepository
	counterRepo  *repository.CounterRepository
	auditRepo    *repository.AuditRepository
	catalog      *CatalogService
	reservations *ReservationService
	opts         intake.Options
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewSampleService(
	db *gorm.DB,
	sampleRepo *repository.SampleRepository,
	counterRepo *repository.CounterRepository,
	auditRepo *repository.AuditRepository,
	catalog *CatalogService,
	reservations *ReservationService,
	opts intake.Options,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SampleService {
	return &SampleService{
		db:           db,
		sampleRepo:   sampleRepo,
		counterRepo:  counterRepo,
		auditRepo:    auditRepo,
		catalog:      catalog,
		reservations: reservations,
		opts:         opts,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// validate runs the batch validator and returns the normalized units with
// the departments they reference
func (s *SampleService) validate(req SampleRequest) ([]intake.Unit, map[uint]intake.Department, error) {
	cat, err := s.catalog.IntakeCatalog()
	if err != nil {
		return nil, nil, err
	}
	units, err := intake.ValidateSubmission(req.SampleInfo, req.Units, cat.Departments)
	if err != nil {
		var verr *intake.ValidationError
		if errors.As(err, &verr) {
			s.metrics.ValidationFailures.Inc()
		}
		return nil, nil, err
	}
	depts := make(map[uint]intake.Department, len(cat.Departments))
	for _, d := range cat.Departments {
		depts[d.ID] = d
	}
	return units, depts, nil
}

// Create persists a new sample. Sample and unit codes are assigned here;
// codes previewed by the client are ignored. The returned sample lists its
// units in request order.
func (s *SampleService) Create(req SampleRequest, actor Actor) (*models.Sample, error) {
	units, depts, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	year := s.now().Year()
	reserved, _ := s.reservations.Reserved(actor.UserID, year)

	sample := &models.Sample{Year: year, CreatedBy: actor.UserID}
	applySampleInfo(sample, req.SampleInfo)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		counters := s.counterRepo.WithTx(tx)

		// Issue the sample number, honouring the caller's reservation
		n, err := counters.Advance(models.CounterSample, nil, year, reserved)
		if err != nil {
			return fmt.Errorf("failed to issue sample number: %w", err)
		}
		sample.SampleCode = intake.FormatSampleCode(year, n)

		// Issue unit codes in request order
		for i, u := range units {
			dept := depts[u.DepartmentID]
			unitCode, err := s.nextUnitCode(counters, dept, year)
			if err != nil {
				return err
			}
			m := models.Unit{UnitCode: unitCode, Position: i}
			applyUnit(&m, u)
			sample.Units = append(sample.Units, m)
		}

		if err := s.sampleRepo.WithTx(tx).CreateSample(sample); err != nil {
			return err
		}
		return s.auditRepo.WithTx(tx).CreateAuditLog(&actor.UserID, "sample_created",
			fmt.Sprintf("Sample %s created with %d units", sample.SampleCode, len(sample.Units)))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sample: %w", err)
	}

	// Release the reservation and record metrics
	s.reservations.Release(actor.UserID)
	s.metrics.SamplesSubmitted.Inc()
	for _, u := range units {
		s.metrics.UnitsSubmitted.WithLabelValues(string(depts[u.DepartmentID].Code)).Inc()
	}
	s.logger.Info("sample created",
		zap.String("sample_code", sample.SampleCode),
		zap.Int("units", len(sample.Units)),
		zap.String("user", actor.Username))

	return sample, nil
}

func (s *SampleService) nextUnitCode(counters *repository.CounterRepository, dept intake.Department, year int) (string, error) {
	deptID := dept.ID
	n, err := counters.Advance(models.CounterUnit, &deptID, year, 0)
	if err != nil {
		return "", fmt.Errorf("failed to issue %s unit number: %w", dept.Code, err)
	}
	return intake.FormatUnitCode(dept.Code, n), nil
}

// Update replaces the fields and units of a saved sample. Units carrying an
// id keep their code, units without one are created, and saved units left
// out of the request are deleted. Every changed field is recorded in the
// edit history. The returned sample lists its units in request order.
func (s *SampleService) Update(id uint, req SampleRequest, actor Actor) (*models.Sample, error) {
	sample, err := s.sampleRepo.GetSampleByID(id)
	if err != nil {
		return nil, err
	}
	units, depts, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	saved := make(map[uint]*models.Unit, len(sample.Units))
	for i := range sample.Units {
		saved[sample.Units[i].ID] = &sample.Units[i]
	}
	kept := make(map[uint]bool, len(units))
	for _, u := range units {
		if u.ID == nil {
			continue
		}
		old, ok := saved[*u.ID]
		if !ok {
			return nil, fmt.Errorf("%w: unit %d", ErrUnitNotInSample, *u.ID)
		}
		if kept[*u.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUnit, old.UnitCode)
		}
		if old.DepartmentID != u.DepartmentID {
			return nil, fmt.Errorf("%w: %s", ErrDepartmentChanged, old.UnitCode)
		}
		if s.opts.LockPersistedSamplesNumber && !sameInt(old.SamplesNumber, u.SamplesNumber) {
			return nil, fmt.Errorf("%w: samples_number of %s", intake.ErrFieldLocked, old.UnitCode)
		}
		kept[*u.ID] = true
	}

	base := models.EditHistory{EditedBy: actor.Username, SampleCode: sample.SampleCode}
	sampleBase := base
	sampleBase.EntityType = models.EntitySample
	sampleBase.EntityID = sample.ID
	before := sampleFields(sampleInfoFromModel(sample))
	applySampleInfo(sample, req.SampleInfo)
	history := diffFields(before, sampleFields(sampleInfoFromModel(sample)), sampleBase)
	sample.LastEditedBy = actor.Username
	year := s.now().Year()
	result := make([]models.Unit, 0, len(units))

	err = s.db.Transaction(func(tx *gorm.DB) error {
		samples := s.sampleRepo.WithTx(tx)
		counters := s.counterRepo.WithTx(tx)

		if err := samples.UpdateSampleFields(sample); err != nil {
			return err
		}

		for i, u := range units {
			if u.ID != nil {
				m := saved[*u.ID]
				before := unitFields(unitFromModel(m))
				applyUnit(m, u)
				m.Position = i
				m.LastEditedBy = actor.Username
				if err := samples.SaveUnit(m); err != nil {
					return err
				}
				unitBase := base
				unitBase.EntityType = models.EntityUnit
				unitBase.EntityID = m.ID
				unitBase.UnitCode = m.UnitCode
				history = append(history, diffFields(before, unitFields(unitFromModel(m)), unitBase)...)
				result = append(result, *m)
				continue
			}

			unitCode, err := s.nextUnitCode(counters, depts[u.DepartmentID], year)
			if err != nil {
				return err
			}
			m := models.Unit{SampleID: sample.ID, UnitCode: unitCode, Position: i, LastEditedBy: actor.Username}
			applyUnit(&m, u)
			if err := samples.CreateUnit(&m); err != nil {
				return err
			}
			history = append(history, models.EditHistory{
				EntityType: models.EntityUnit, EntityID: m.ID, FieldName: "unit",
				NewValue: "created", EditedBy: actor.Username,
				SampleCode: sample.SampleCode, UnitCode: m.UnitCode,
			})
			result = append(result, m)
		}

		var removed []uint
		for id, m := range saved {
			if kept[id] {
				continue
			}
			removed = append(removed, id)
			history = append(history, models.EditHistory{
				EntityType: models.EntityUnit, EntityID: id, FieldName: "unit",
				OldValue: m.UnitCode, NewValue: "deleted", EditedBy: actor.Username,
				SampleCode: sample.SampleCode, UnitCode: m.UnitCode,
			})
		}
		if err := samples.DeleteUnits(removed); err != nil {
			return err
		}

		return s.auditRepo.WithTx(tx).CreateEditHistory(history)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update sample: %w", err)
	}

	sample.Units = result
	s.logger.Info("sample updated",
		zap.String("sample_code", sample.SampleCode),
		zap.Int("changes", len(history)),
		zap.String("user", actor.Username))
	return sample, nil
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Get returns a sample with all unit data
func (s *SampleService) Get(id uint) (*models.Sample, error) {
	return s.sampleRepo.GetSampleByID(id)
}

// LoadForEdit returns a saved sample in the form representation
func (s *SampleService) LoadForEdit(id uint) (intake.SampleInfo, []intake.Unit, error) {
	sample, err := s.sampleRepo.GetSampleByID(id)
	if err != nil {
		return intake.SampleInfo{}, nil, err
	}
	units := make([]intake.Unit, len(sample.Units))
	for i := range sample.Units {
		units[i] = unitFromModel(&sample.Units[i])
	}
	return sampleInfoFromModel(sample), units, nil
}

// SampleList is one page of ListSamples
type SampleList struct {
	Samples []models.Sample `json:"samples"`
	Total   int64           `json:"total"`
}

func (s *SampleService) List(filter repository.SampleFilter) (*SampleList, error) {
	samples, total, err := s.sampleRepo.ListSamples(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}
	return &SampleList{Samples: samples, Total: total}, nil
}

// History returns the edit history of a sample and its units
func (s *SampleService) History(id uint) ([]models.EditHistory, error) {
	sample, err := s.sampleRepo.GetSampleByID(id)
	if err != nil {
		return nil, err
	}
	return s.auditRepo.GetEditHistoryBySampleCode(sample.SampleCode)
}

// Years returns the years that have samples
func (s *SampleService) Years() ([]int, error) {
	return s.sampleRepo.GetYears()
}
