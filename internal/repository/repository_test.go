package repository

import (
	"path/filepath"
	"testing"

	"lab-sample-intake/internal/database"
	"lab-sample-intake/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func TestCounter_SequencesAreIndependent(t *testing.T) {
	db := newTestDB(t)
	repo := NewCounterRepo(db)
	pcr, ser := uint(1), uint(2)

	for want := 1; want <= 3; want++ {
		n, err := repo.Advance(models.CounterSample, nil, 2025, 0)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err := repo.Advance(models.CounterUnit, &pcr, 2025, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.Advance(models.CounterUnit, &ser, 2025, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	n, err = repo.Advance(models.CounterSample, nil, 2026, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "a new year starts over")

	current, err := repo.CurrentValue(models.CounterSample, nil, 2025)
	require.NoError(t, err)
	assert.Equal(t, 3, current)

	current, err = repo.CurrentValue(models.CounterUnit, &pcr, 2024)
	require.NoError(t, err)
	assert.Zero(t, current)

	units, err := repo.CurrentUnitValues(2025)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{pcr: 1, ser: 10}, units)
}

func TestCounter_AtLeastNeverMovesBackwards(t *testing.T) {
	db := newTestDB(t)
	repo := NewCounterRepo(db)

	_, err := repo.Advance(models.CounterSample, nil, 2025, 7)
	require.NoError(t, err)

	n, err := repo.Advance(models.CounterSample, nil, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestCounter_AdvanceInsideTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewCounterRepo(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.WithTx(tx).Advance(models.CounterSample, nil, 2025, 0)
		require.NoError(t, err)
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	current, err := repo.CurrentValue(models.CounterSample, nil, 2025)
	require.NoError(t, err)
	assert.Zero(t, current, "rolled back")
}

func TestDraft_SaveReplacesPayload(t *testing.T) {
	db := newTestDB(t)
	repo := NewDraftRepo(db)

	_, err := repo.GetDraft("sample_form", 1)
	assert.ErrorIs(t, err, ErrDraftNotFound)

	require.NoError(t, repo.SaveDraft("sample_form", 1, []byte(`{"v":1}`)))
	first, err := repo.GetDraft("sample_form", 1)
	require.NoError(t, err)
	assert.Len(t, first.ID, 36)

	require.NoError(t, repo.SaveDraft("sample_form", 1, []byte(`{"v":2}`)))
	second, err := repo.GetDraft("sample_form", 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.JSONEq(t, `{"v":2}`, string(second.Payload))

	require.NoError(t, repo.SaveDraft("other", 1, []byte(`{}`)))
	require.NoError(t, repo.DeleteDraft("sample_form", 1))
	require.NoError(t, repo.DeleteDraft("sample_form", 1))

	_, err = repo.GetDraft("sample_form", 1)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	_, err = repo.GetDraft("other", 1)
	assert.NoError(t, err)
}

func TestCatalog_EnsureAndDefaultKits(t *testing.T) {
	db := newTestDB(t)
	depts := NewDepartmentRepo(db)
	repo := NewCatalogRepo(db)

	dept := &models.Department{Code: "PCR", Name: "PCR"}
	require.NoError(t, depts.UpsertDepartment(dept))
	require.NotZero(t, dept.ID)

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.EnsureDisease(dept.ID, "IB"))
		require.NoError(t, repo.EnsureDisease(dept.ID, "AI"))
	}
	require.NoError(t, repo.SetDefaultKit(dept.ID, "AI", "VetMAX"))
	require.NoError(t, repo.SetDefaultKit(dept.ID, "AI", "Qiagen"))

	diseases, err := repo.GetDiseasesByDepartment(dept.ID)
	require.NoError(t, err)
	names := make([]string, len(diseases))
	for i, d := range diseases {
		names[i] = d.Name
	}
	if diff := cmp.Diff([]string{"AI", "IB"}, names); diff != "" {
		t.Errorf("diseases mismatch (-want +got):\n%s", diff)
	}

	kits, err := repo.GetAllDefaultKits()
	require.NoError(t, err)
	require.Len(t, kits, 1)
	assert.Equal(t, "Qiagen", kits[0].KitType)

	found, err := depts.GetDepartmentByCode("PCR")
	require.NoError(t, err)
	assert.Equal(t, dept.ID, found.ID)
	_, err = depts.GetDepartmentByID(99)
	assert.ErrorIs(t, err, ErrDepartmentNotFound)
}

func TestAudit_EditHistoryNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepo(db)

	require.NoError(t, repo.CreateEditHistory(nil))
	require.NoError(t, repo.CreateEditHistory([]models.EditHistory{
		{EntityType: models.EntitySample, EntityID: 1, FieldName: "company", OldValue: "a", NewValue: "b", EditedBy: "x", SampleCode: "SMP25-1"},
		{EntityType: models.EntityUnit, EntityID: 2, FieldName: "notes", NewValue: "n", EditedBy: "x", SampleCode: "SMP25-1", UnitCode: "PCR-1"},
		{EntityType: models.EntitySample, EntityID: 3, FieldName: "farm", EditedBy: "x", SampleCode: "SMP25-2"},
	}))

	entries, err := repo.GetEditHistoryBySampleCode("SMP25-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "notes", entries[0].FieldName)
	assert.Equal(t, "company", entries[1].FieldName)
}
