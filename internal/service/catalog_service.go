package service

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"lab-sample-intake/internal/config"
	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/models"
	"lab-sample-intake/internal/repository"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DepartmentCatalog is everything the form offers for one department
type DepartmentCatalog struct {
	Department  models.Department   `json:"department"`
	Diseases    []models.Disease    `json:"diseases"`
	KitTypes    []models.KitType    `json:"kit_types"`
	SampleTypes []models.SampleType `json:"sample_types"`
	DefaultKits map[string]string   `json:"default_kits"`
}

// CatalogService serves reference data through an expiring LRU cache
type CatalogService struct {
	deptRepo    *repository.DepartmentRepository
	catalogRepo *repository.CatalogRepository
	cache       *expirable.LRU[string, any]
	logger      *zap.Logger
}

func NewCatalogService(deptRepo *repository.DepartmentRepository, catalogRepo *repository.CatalogRepository, cfg config.CacheConfig, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		deptRepo:    deptRepo,
		catalogRepo: catalogRepo,
		cache:       expirable.NewLRU[string, any](cfg.CatalogSize, nil, cfg.CatalogTTL),
		logger:      logger,
	}
}

// cached returns a copy of the cached value for key, loading it on a miss.
// Callers own what they get back.
func cached[T any](s *CatalogService, key string, load func() (T, error), clone func(T) T) (T, error) {
	if v, ok := s.cache.Get(key); ok {
		if t, ok := v.(T); ok {
			return clone(t), nil
		}
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.Add(key, v)
	return clone(v), nil
}

func cloneKits(in map[uint]map[string]string) map[uint]map[string]string {
	out := make(map[uint]map[string]string, len(in))
	for id, kits := range in {
		out[id] = maps.Clone(kits)
	}
	return out
}

// Invalidate drops every cached entry; call after reference data changes
func (s *CatalogService) Invalidate() {
	s.cache.Purge()
	s.logger.Debug("catalog cache purged")
}

func (s *CatalogService) GetDepartments() ([]models.Department, error) {
	return cached(s, "departments", func() ([]models.Department, error) {
		depts, err := s.deptRepo.GetAllDepartments()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch departments: %w", err)
		}
		return depts, nil
	}, slices.Clone[[]models.Department])
}

func (s *CatalogService) GetDepartment(id uint) (*models.Department, error) {
	depts, err := s.GetDepartments()
	if err != nil {
		return nil, err
	}
	for i := range depts {
		if depts[i].ID == id {
			return &depts[i], nil
		}
	}
	return nil, repository.ErrDepartmentNotFound
}

func (s *CatalogService) GetDiseases(departmentID uint) ([]models.Disease, error) {
	if _, err := s.GetDepartment(departmentID); err != nil {
		return nil, err
	}
	return cached(s, fmt.Sprintf("diseases:%d", departmentID), func() ([]models.Disease, error) {
		return s.catalogRepo.GetDiseasesByDepartment(departmentID)
	}, slices.Clone[[]models.Disease])
}

func (s *CatalogService) GetKitTypes(departmentID uint) ([]models.KitType, error) {
	if _, err := s.GetDepartment(departmentID); err != nil {
		return nil, err
	}
	return cached(s, fmt.Sprintf("kit_types:%d", departmentID), func() ([]models.KitType, error) {
		return s.catalogRepo.GetKitTypesByDepartment(departmentID)
	}, slices.Clone[[]models.KitType])
}

func (s *CatalogService) GetSampleTypes(departmentID uint) ([]models.SampleType, error) {
	if _, err := s.GetDepartment(departmentID); err != nil {
		return nil, err
	}
	return cached(s, fmt.Sprintf("sample_types:%d", departmentID), func() ([]models.SampleType, error) {
		return s.catalogRepo.GetSampleTypesByDepartment(departmentID)
	}, slices.Clone[[]models.SampleType])
}

func (s *CatalogService) defaultKits() (map[uint]map[string]string, error) {
	return cached(s, "default_kits", func() (map[uint]map[string]string, error) {
		rows, err := s.catalogRepo.GetAllDefaultKits()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch default kits: %w", err)
		}
		out := make(map[uint]map[string]string)
		for _, r := range rows {
			if out[r.DepartmentID] == nil {
				out[r.DepartmentID] = make(map[string]string)
			}
			out[r.DepartmentID][r.Disease] = r.KitType
		}
		return out, nil
	}, cloneKits)
}

// IntakeCatalog is the reference data a unit collection is bound to
func (s *CatalogService) IntakeCatalog() (intake.Catalog, error) {
	depts, err := s.GetDepartments()
	if err != nil {
		return intake.Catalog{}, err
	}
	kits, err := s.defaultKits()
	if err != nil {
		return intake.Catalog{}, err
	}
	cat := intake.Catalog{DefaultKits: kits}
	for _, d := range depts {
		cat.Departments = append(cat.Departments, intake.Department{
			ID:   d.ID,
			Code: intake.DepartmentCode(d.Code),
			Name: d.Name,
		})
	}
	return cat, nil
}

// FormCatalog loads the dropdown data of every department concurrently
func (s *CatalogService) FormCatalog(ctx context.Context) ([]DepartmentCatalog, error) {
	depts, err := s.GetDepartments()
	if err != nil {
		return nil, err
	}
	kits, err := s.defaultKits()
	if err != nil {
		return nil, err
	}

	out := make([]DepartmentCatalog, len(depts))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i, d := range depts {
		i, d := i, d
		out[i] = DepartmentCatalog{Department: d, DefaultKits: kits[d.ID]}
		if out[i].DefaultKits == nil {
			out[i].DefaultKits = map[string]string{}
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			diseases, err := s.GetDiseases(d.ID)
			if err != nil {
				return err
			}
			kitTypes, err := s.GetKitTypes(d.ID)
			if err != nil {
				return err
			}
			sampleTypes, err := s.GetSampleTypes(d.ID)
			if err != nil {
				return err
			}
			out[i].Diseases = diseases
			out[i].KitTypes = kitTypes
			out[i].SampleTypes = sampleTypes
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load form catalog: %w", err)
	}
	return out, nil
}
