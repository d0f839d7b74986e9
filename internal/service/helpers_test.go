package service

import (
	"path/filepath"
	"testing"
	"time"

	"lab-sample-intake/internal/config"
	"lab-sample-intake/internal/database"
	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/metrics"
	"lab-sample-intake/internal/models"
	"lab-sample-intake/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db      *gorm.DB
	metrics *metrics.Metrics
	clock   time.Time

	counterRepo *repository.CounterRepository

	auth         *AuthService
	catalog      *CatalogService
	reservations *ReservationService
	signatures   *SignatureService
	drafts       *DraftService
	samples      *SampleService
	intake       *IntakeService
	coa          *COAService
	statistics   *StatisticsService

	pcr, ser, mic models.Department
	user          models.User
}

func (e *testEnv) now() time.Time { return e.clock }

func (e *testEnv) actor() Actor {
	return Actor{UserID: e.user.ID, Username: e.user.Username}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "intake.db") + "?_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEnv(t *testing.T, opts intake.Options) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := zap.NewNop()

	env := &testEnv{
		db:      db,
		metrics: metrics.New(),
		clock:   time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC),
		pcr:     models.Department{Code: "PCR", Name: "PCR"},
		ser:     models.Department{Code: "SER", Name: "Serology"},
		mic:     models.Department{Code: "MIC", Name: "Microbiology"},
		user:    models.User{Username: "intake", FullName: "Intake Desk", PasswordHash: "x", Role: models.RoleTechnician},
	}
	for _, d := range []*models.Department{&env.pcr, &env.ser, &env.mic} {
		require.NoError(t, db.Create(d).Error)
	}
	require.NoError(t, db.Create(&env.user).Error)
	require.NoError(t, db.Create(&[]models.Disease{
		{Name: "AI", DepartmentID: env.pcr.ID, IsActive: true},
		{Name: "IB", DepartmentID: env.pcr.ID, IsActive: true},
		{Name: "ND", DepartmentID: env.ser.ID, IsActive: true},
		{Name: "Salmonella", DepartmentID: env.mic.ID, IsActive: true},
	}).Error)
	require.NoError(t, db.Create(&models.DefaultKit{DepartmentID: env.pcr.ID, Disease: "AI", KitType: "VetMAX"}).Error)

	userRepo := repository.NewUserRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	env.counterRepo = repository.NewCounterRepo(db)
	sampleRepo := repository.NewSampleRepo(db)

	env.auth = NewAuthService(userRepo, auditRepo, log)
	env.catalog = NewCatalogService(repository.NewDepartmentRepo(db), repository.NewCatalogRepo(db),
		config.CacheConfig{CatalogTTL: time.Minute, CatalogSize: 32}, log)
	env.reservations = NewReservationService(env.counterRepo, env.catalog, 2*time.Minute, env.metrics, log)
	env.reservations.now = env.now
	env.signatures = NewSignatureService(repository.NewSignatureRepo(db), auditRepo, env.metrics, log)
	env.drafts = NewDraftService(repository.NewDraftRepo(db), log)
	env.samples = NewSampleService(db, sampleRepo, env.counterRepo, auditRepo, env.catalog, env.reservations, opts, env.metrics, log)
	env.samples.now = env.now
	env.intake = NewIntakeService(env.catalog, env.reservations, env.drafts, env.samples, env.signatures, opts, env.metrics, log)
	env.coa = NewCOAService(db, repository.NewCOARepo(db), sampleRepo, auditRepo, log)
	env.statistics = NewStatisticsService(sampleRepo, env.catalog, log)
	env.statistics.now = env.now
	return env
}

func intPtr(n int) *int { return &n }

func pcrUnit(deptID uint) intake.Unit {
	return intake.Unit{
		DepartmentID: deptID,
		House:        []string{"H1"},
		SampleType:   []string{"Swab"},
		Data: &intake.PCRData{
			DiseasesList: []intake.DiseaseKitItem{{Disease: "AI", KitType: "VetMAX", TestCount: 1}},
		},
	}
}

func serUnit(deptID uint) intake.Unit {
	return intake.Unit{
		DepartmentID:  deptID,
		SampleType:    []string{"Blood"},
		SamplesNumber: intPtr(1),
		Data: &intake.SerologyData{
			DiseasesList:  []intake.DiseaseKitItem{{Disease: "ND", KitType: "IDEXX", TestCount: 2}},
			NumberOfWells: 10,
		},
	}
}

func micUnit(deptID uint) intake.Unit {
	return intake.Unit{
		DepartmentID: deptID,
		SampleType:   []string{"Environment"},
		Data: &intake.MicrobiologyData{
			DiseasesList: []string{"Salmonella"},
			IndexList:    []string{"Door", "Fan"},
			Fumigation:   intake.FumigationBefore,
		},
	}
}

func sampleInfo() intake.SampleInfo {
	return intake.SampleInfo{DateReceived: "2025-03-14", Company: "Acme", Farm: "North"}
}
