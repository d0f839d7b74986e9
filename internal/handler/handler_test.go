package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lab-sample-intake/internal/config"
	"lab-sample-intake/internal/database"
	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/metrics"
	"lab-sample-intake/internal/repository"
	"lab-sample-intake/internal/seed"
	"lab-sample-intake/internal/service"
	"lab-sample-intake/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSeed = `
departments:
  - code: PCR
    name: PCR
    diseases: [AI, IB]
    kit_types: [VetMAX]
    sample_types: [Liver, Swab]
    default_kits:
      AI: VetMAX
  - code: SER
    name: Serology
    diseases: [NDV]
    sample_types: [Blood]
  - code: MIC
    name: Microbiology
    diseases: [Salmonella]
users:
  - username: admin
    password: admin-pass
    role: admin
  - username: viewer
    password: viewer-pass
signatures:
  - name: Dr. Rana
    pin: "246810"
`

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Errors  []string        `json:"errors"`
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (a *apiClient) do(method, path string, body any) (int, envelope) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func newTestRouter(t *testing.T) (*gin.Engine, *metrics.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitJWT("test-access", "test-refresh", time.Hour, 24*time.Hour)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")+"?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	f, err := seed.Parse([]byte(testSeed))
	require.NoError(t, err)
	log := zap.NewNop()
	require.NoError(t, seed.Apply(db, f, log))

	m := metrics.New()
	auditRepo := repository.NewAuditRepo(db)
	counterRepo := repository.NewCounterRepo(db)
	catalogService := service.NewCatalogService(repository.NewDepartmentRepo(db), repository.NewCatalogRepo(db),
		config.CacheConfig{CatalogTTL: time.Minute, CatalogSize: 32}, log)
	reservations := service.NewReservationService(counterRepo, catalogService, 2*time.Minute, m, log)
	signatures := service.NewSignatureService(repository.NewSignatureRepo(db), auditRepo, m, log)
	sampleRepo := repository.NewSampleRepo(db)
	samples := service.NewSampleService(db, sampleRepo, counterRepo, auditRepo,
		catalogService, reservations, intake.Options{}, m, log)
	intakeService := service.NewIntakeService(catalogService, reservations,
		service.NewDraftService(repository.NewDraftRepo(db), log), samples, signatures, intake.Options{}, m, log)

	r := gin.New()
	RegisterRoutes(r, Handlers{
		Auth:       NewAuthHandler(service.NewAuthService(repository.NewUserRepo(db), auditRepo, log)),
		Catalog:    NewCatalogHandler(catalogService),
		Sample:     NewSampleHandler(samples, reservations),
		Signature:  NewSignatureHandler(signatures),
		Intake:     NewIntakeHandler(intakeService),
		COA:        NewCOAHandler(service.NewCOAService(db, repository.NewCOARepo(db), sampleRepo, auditRepo, log)),
		Statistics: NewStatisticsHandler(service.NewStatisticsService(sampleRepo, catalogService, log)),
	}, m.Handler())
	return r, m
}

func login(t *testing.T, r *gin.Engine, username, password string) *apiClient {
	t.Helper()
	c := &apiClient{t: t, router: r}
	code, env := c.do(http.MethodPost, "/auth/login", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, code, env.Error)
	c.token = decode[struct {
		AccessToken string `json:"access_token"`
	}](t, env.Data).AccessToken
	return c
}

func departmentIDs(t *testing.T, c *apiClient) map[string]uint {
	t.Helper()
	code, env := c.do(http.MethodGet, "/api/v1/departments", nil)
	require.Equal(t, http.StatusOK, code)
	body := decode[struct {
		Departments []struct {
			ID   uint   `json:"id"`
			Code string `json:"code"`
		} `json:"departments"`
		Count int `json:"count"`
	}](t, env.Data)
	require.Equal(t, len(body.Departments), body.Count)
	out := make(map[string]uint, len(body.Departments))
	for _, d := range body.Departments {
		out[d.Code] = d.ID
	}
	return out
}

func TestAPI_RequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)
	anon := &apiClient{t: t, router: r}

	code, _ := anon.do(http.MethodGet, "/api/v1/departments", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := anon.do(http.MethodPost, "/auth/login", gin.H{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, _ = anon.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAPI_IntakeFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	admin := login(t, r, "admin", "admin-pass")
	depts := departmentIDs(t, admin)
	require.Len(t, depts, 3)
	year := time.Now().Year() % 100

	code, env := admin.do(http.MethodGet, "/api/v1/intake", nil)
	require.Equal(t, http.StatusOK, code)
	view := decode[service.SessionView](t, env.Data)
	assert.Equal(t, fmt.Sprintf("SMP%02d-1", year), view.NextSampleCode)

	code, env = admin.do(http.MethodPost, "/api/v1/intake/units", gin.H{"department_id": depts["PCR"]})
	require.Equal(t, http.StatusOK, code, env.Error)
	view = decode[service.SessionView](t, env.Data)
	assert.Equal(t, "PCR-1", view.UnitCode)

	code, _ = admin.do(http.MethodPost, "/api/v1/intake/units/0/diseases/toggle", gin.H{"disease": "AI"})
	require.Equal(t, http.StatusOK, code)
	code, _ = admin.do(http.MethodPatch, "/api/v1/intake/units/0", gin.H{"sample_type": []string{"Liver"}})
	require.Equal(t, http.StatusOK, code)

	code, env = admin.do(http.MethodPost, "/api/v1/intake/units/4/duplicate", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "index out of range")

	code, env = admin.do(http.MethodPost, "/api/v1/intake/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Errors, "Company is required")

	code, env = admin.do(http.MethodPost, "/api/v1/intake/units/0/technician", gin.H{"pin": "135790"})
	assert.Equal(t, http.StatusForbidden, code)
	code, env = admin.do(http.MethodPost, "/api/v1/intake/units/0/technician", gin.H{"pin": "246810"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, _ = admin.do(http.MethodPut, "/api/v1/intake/sample", intake.SampleInfo{
		DateReceived: time.Now().Format(intake.DateLayout), Company: "Acme", Farm: "North",
	})
	require.Equal(t, http.StatusOK, code)

	code, env = admin.do(http.MethodPost, "/api/v1/intake/submit", nil)
	require.Equal(t, http.StatusCreated, code, env.Error)
	result := decode[struct {
		Sample struct {
			ID         uint   `json:"id"`
			SampleCode string `json:"sample_code"`
			Units      []struct {
				UnitCode string `json:"unit_code"`
				PCRData  struct {
					TechnicianName string `json:"technician_name"`
				} `json:"pcr_data"`
			} `json:"units"`
		} `json:"sample"`
	}](t, env.Data)
	assert.Equal(t, fmt.Sprintf("SMP%02d-1", year), result.Sample.SampleCode)
	require.Len(t, result.Sample.Units, 1)
	assert.Equal(t, "PCR-1", result.Sample.Units[0].UnitCode)
	assert.Equal(t, "Dr. Rana", result.Sample.Units[0].PCRData.TechnicianName)

	code, env = admin.do(http.MethodGet, "/api/v1/samples?search=acme", nil)
	require.Equal(t, http.StatusOK, code)
	list := decode[service.SampleList](t, env.Data)
	assert.EqualValues(t, 1, list.Total)

	code, _ = admin.do(http.MethodGet, fmt.Sprintf("/api/v1/samples/%d", result.Sample.ID), nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = admin.do(http.MethodGet, "/api/v1/samples/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = admin.do(http.MethodGet, "/api/v1/samples/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lab_intake_samples_submitted_total 1")
}

func TestAPI_RoleChecks(t *testing.T) {
	r, _ := newTestRouter(t)
	viewer := login(t, r, "viewer", "viewer-pass")

	code, _ := viewer.do(http.MethodPost, "/api/v1/signatures", gin.H{"name": "X", "pin": "111111"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = viewer.do(http.MethodPost, "/api/v1/intake/edit/1", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := viewer.do(http.MethodPost, "/api/v1/signatures/verify-pin", gin.H{"pin": "246810"})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[struct {
		IsValid bool `json:"is_valid"`
	}](t, env.Data).IsValid)

	code, _ = viewer.do(http.MethodPost, "/api/v1/signatures/verify-pin", gin.H{"pin": "12"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAPI_SelfRegistrationCannotPickRole(t *testing.T) {
	r, _ := newTestRouter(t)
	anon := &apiClient{t: t, router: r}

	code, env := anon.do(http.MethodPost, "/auth/register", gin.H{
		"username": "mallory", "password": "secret123", "role": "admin",
	})
	require.Equal(t, http.StatusOK, code)
	registered := decode[struct {
		AccessToken string               `json:"access_token"`
		User        service.UserResponse `json:"user"`
	}](t, env.Data)
	assert.Equal(t, "user", registered.User.Role)

	mallory := &apiClient{t: t, router: r, token: registered.AccessToken}
	code, _ = mallory.do(http.MethodPost, "/api/v1/signatures", gin.H{"name": "X", "pin": "111111"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = mallory.do(http.MethodPost, "/api/v1/users", gin.H{"username": "tech9", "password": "secret123", "role": "technician"})
	assert.Equal(t, http.StatusForbidden, code)

	admin := login(t, r, "admin", "admin-pass")
	code, env = admin.do(http.MethodPost, "/api/v1/users", gin.H{"username": "tech9", "password": "secret123", "role": "technician"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "technician", decode[service.UserResponse](t, env.Data).Role)

	tech := login(t, r, "tech9", "secret123")
	code, _ = tech.do(http.MethodPost, "/api/v1/intake/edit/424242", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPI_CatalogAndPreview(t *testing.T) {
	r, _ := newTestRouter(t)
	admin := login(t, r, "admin", "admin-pass")
	depts := departmentIDs(t, admin)

	code, env := admin.do(http.MethodGet, fmt.Sprintf("/api/v1/departments/%d/diseases", depts["PCR"]), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]json.RawMessage](t, env.Data), 2)

	code, _ = admin.do(http.MethodGet, "/api/v1/departments/99/diseases", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = admin.do(http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, code)
	catalog := decode[struct {
		Departments []service.DepartmentCatalog `json:"departments"`
	}](t, env.Data)
	require.Len(t, catalog.Departments, 3)
	assert.Equal(t, map[string]string{"AI": "VetMAX"}, catalog.Departments[0].DefaultKits)

	code, env = admin.do(http.MethodGet, "/api/v1/samples/preview-codes", nil)
	require.Equal(t, http.StatusOK, code)
	preview := decode[service.PreviewCodes](t, env.Data)
	assert.True(t, preview.Reserved)
	assert.Equal(t, 1, preview.UnitCounters[depts["SER"]].NextUnitNumber)
}

func TestAPI_COAAndStatistics(t *testing.T) {
	r, _ := newTestRouter(t)
	admin := login(t, r, "admin", "admin-pass")
	viewer := login(t, r, "viewer", "viewer-pass")
	depts := departmentIDs(t, admin)

	code, env := admin.do(http.MethodPost, "/api/v1/samples", service.SampleRequest{
		SampleInfo: intake.SampleInfo{DateReceived: time.Now().Format(intake.DateLayout), Company: "Acme", Farm: "North"},
		Units: []intake.Unit{{
			DepartmentID:  depts["PCR"],
			SampleType:    []string{"Liver"},
			SamplesNumber: func() *int { n := 2; return &n }(),
			Data: &intake.PCRData{
				DiseasesList: []intake.DiseaseKitItem{{Disease: "AI", KitType: "VetMAX", TestCount: 1}},
			},
		}},
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	created := decode[struct {
		ID    uint `json:"id"`
		Units []struct {
			ID uint `json:"id"`
		} `json:"units"`
	}](t, env.Data)
	unitID := created.Units[0].ID
	coaPath := fmt.Sprintf("/api/v1/units/%d/coa", unitID)

	code, _ = admin.do(http.MethodGet, coaPath, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = viewer.do(http.MethodPost, coaPath, gin.H{})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = admin.do(http.MethodPost, "/api/v1/units/424242/coa", gin.H{})
	assert.Equal(t, http.StatusNotFound, code)

	code, env = admin.do(http.MethodPost, coaPath, gin.H{"test_results": gin.H{"AI": "Negative"}})
	require.Equal(t, http.StatusCreated, code, env.Error)
	code, _ = admin.do(http.MethodPost, coaPath, gin.H{})
	assert.Equal(t, http.StatusConflict, code)
	code, env = admin.do(http.MethodPut, coaPath, gin.H{"test_results": gin.H{"IB": "Positive"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "IB")

	code, env = admin.do(http.MethodPut, coaPath, gin.H{"tested_by": "Dr. Rana", "status": "finalized"})
	require.Equal(t, http.StatusOK, code, env.Error)
	code, _ = admin.do(http.MethodDelete, coaPath, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = viewer.do(http.MethodGet, fmt.Sprintf("/api/v1/samples/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, code)
	stored := decode[struct {
		Units []struct {
			COAStatus *string `json:"coa_status"`
		} `json:"units"`
	}](t, env.Data)
	require.NotNil(t, stored.Units[0].COAStatus)
	assert.Equal(t, "finalized", *stored.Units[0].COAStatus)

	code, env = viewer.do(http.MethodGet, fmt.Sprintf("/api/v1/coa?unit_ids=%d,999", unitID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]json.RawMessage](t, env.Data), 1)
	code, _ = viewer.do(http.MethodGet, "/api/v1/coa?unit_ids=x", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = viewer.do(http.MethodGet, "/api/v1/statistics/samples", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	weekly := decode[service.SampleStatistics](t, env.Data)
	assert.Equal(t, "week", weekly.Period)
	assert.Len(t, weekly.Data, 7)
	assert.Equal(t, 2, weekly.Total)

	code, _ = viewer.do(http.MethodGet, "/api/v1/statistics/samples?period=decade", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, env = viewer.do(http.MethodGet, fmt.Sprintf("/api/v1/statistics/units?department_id=%d", depts["PCR"]), nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	units := decode[service.UnitStatistics](t, env.Data)
	require.Len(t, units.Departments, 1)
	assert.Equal(t, 1, units.Departments[0].TestCount)
	code, _ = viewer.do(http.MethodGet, "/api/v1/statistics/units?department_id=99", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
