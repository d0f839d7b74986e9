package service

import (
	"fmt"
	"sync"
	"time"

	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/metrics"
	"lab-sample-intake/internal/models"
	"lab-sample-intake/internal/repository"

	"go.uber.org/zap"
)

type reservation struct {
	year    int
	number  int
	touched time.Time
}

// UnitCounter previews the next unit number of one department
type UnitCounter struct {
	DepartmentID   uint   `json:"department_id"`
	DepartmentCode string `json:"department_code"`
	DepartmentName string `json:"department_name"`
	NextUnitNumber int    `json:"next_unit_number"`
}

// PreviewCodes is what an open form shows before anything is saved
type PreviewCodes struct {
	NextSampleCode string               `json:"next_sample_code"`
	UnitCounters   map[uint]UnitCounter `json:"unit_counters"`
	Reserved       bool                 `json:"reserved"`
}

// ReservationService holds sample numbers for users with an open form.
// Reservations are kept in memory and expire after ttl without a refresh.
type ReservationService struct {
	mu           sync.Mutex
	reservations map[uint]reservation
	ttl          time.Duration
	now          func() time.Time

	counterRepo *repository.CounterRepository
	catalog     *CatalogService
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewReservationService(counterRepo *repository.CounterRepository, catalog *CatalogService, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *ReservationService {
	return &ReservationService{
		reservations: make(map[uint]reservation),
		ttl:          ttl,
		now:          time.Now,
		counterRepo:  counterRepo,
		catalog:      catalog,
		metrics:      m,
		logger:       logger,
	}
}

// Reserve returns the sample number held for userID in the current year,
// reserving a new one or extending the existing reservation
func (s *ReservationService) Reserve(userID uint) (int, error) {
	year := s.now().Year()
	current, err := s.counterRepo.CurrentValue(models.CounterSample, nil, year)
	if err != nil {
		return 0, fmt.Errorf("failed to read sample counter: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	if r, ok := s.reservations[userID]; ok && r.year == year && r.number > current {
		r.touched = s.now()
		s.reservations[userID] = r
		return r.number, nil
	}
	delete(s.reservations, userID)

	taken := make(map[int]bool, len(s.reservations))
	for _, r := range s.reservations {
		if r.year == year {
			taken[r.number] = true
		}
	}
	next := current + 1 + len(taken)
	for taken[next] {
		next++
	}
	s.reservations[userID] = reservation{year: year, number: next, touched: s.now()}
	s.metrics.ActiveReservations.Set(float64(len(s.reservations)))
	return next, nil
}

// Reserved returns the live reservation of userID for year, if any
func (s *ReservationService) Reserved(userID uint, year int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[userID]
	if !ok || r.year != year || s.expired(r) {
		return 0, false
	}
	return r.number, true
}

// Release drops the reservation of userID
func (s *ReservationService) Release(userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reservations, userID)
	s.metrics.ActiveReservations.Set(float64(len(s.reservations)))
}

// Sweep removes expired reservations and returns how many were dropped
func (s *ReservationService) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

// Active returns the number of live reservations
func (s *ReservationService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations)
}

func (s *ReservationService) expired(r reservation) bool {
	return s.now().Sub(r.touched) > s.ttl
}

func (s *ReservationService) sweepLocked() int {
	dropped := 0
	for userID, r := range s.reservations {
		if s.expired(r) {
			delete(s.reservations, userID)
			dropped++
		}
	}
	s.metrics.ActiveReservations.Set(float64(len(s.reservations)))
	return dropped
}

// UnitSeeds returns the next unit number of every department for the current year
func (s *ReservationService) UnitSeeds() (intake.CodeSeeds, error) {
	current, err := s.counterRepo.CurrentUnitValues(s.now().Year())
	if err != nil {
		return nil, fmt.Errorf("failed to read unit counters: %w", err)
	}
	depts, err := s.catalog.GetDepartments()
	if err != nil {
		return nil, err
	}
	seeds := make(intake.CodeSeeds, len(depts))
	for _, d := range depts {
		seeds[d.ID] = current[d.ID] + 1
	}
	return seeds, nil
}

// Preview reserves the caller's next sample number and reports the next
// unit number of every department
func (s *ReservationService) Preview(userID uint) (*PreviewCodes, error) {
	number, err := s.Reserve(userID)
	if err != nil {
		return nil, err
	}
	seeds, err := s.UnitSeeds()
	if err != nil {
		return nil, err
	}
	depts, err := s.catalog.GetDepartments()
	if err != nil {
		return nil, err
	}

	preview := &PreviewCodes{
		NextSampleCode: intake.FormatSampleCode(s.now().Year(), number),
		UnitCounters:   make(map[uint]UnitCounter, len(depts)),
		Reserved:       true,
	}
	for _, d := range depts {
		preview.UnitCounters[d.ID] = UnitCounter{
			DepartmentID:   d.ID,
			DepartmentCode: d.Code,
			DepartmentName: d.Name,
			NextUnitNumber: seeds[d.ID],
		}
	}
	return preview, nil
}
