package service

import (
	"testing"

	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/models"
	"lab-sample-intake/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitCOA(t *testing.T, env *testEnv, unitID uint) *string {
	t.Helper()
	var unit models.Unit
	require.NoError(t, env.db.First(&unit, unitID).Error)
	return unit.COAStatus
}

func createdSample(t *testing.T, env *testEnv, units ...intake.Unit) *models.Sample {
	t.Helper()
	sample, err := env.samples.Create(SampleRequest{SampleInfo: sampleInfo(), Units: units}, env.actor())
	require.NoError(t, err)
	return sample
}

func TestCOA_LifecycleDrivesUnitStatus(t *testing.T) {
	env := newTestEnv(t, intake.Options{})
	sample := createdSample(t, env, pcrUnit(env.pcr.ID), micUnit(env.mic.ID))
	unitID := sample.Units[0].ID
	assert.Nil(t, unitCOA(t, env, unitID))

	coa, err := env.coa.Create(unitID, COARequest{
		TestResults: map[string]any{"AI": map[string]any{"Swab": "Negative"}},
		DateTested:  strPtr("2025-03-15"),
	}, env.actor())
	require.NoError(t, err)
	assert.Equal(t, models.COAStatusDraft, coa.Status)
	assert.Equal(t, "intake", coa.LastEditedBy)
	assert.Equal(t, strPtr(models.UnitCOACreated), unitCOA(t, env, unitID))

	_, err = env.coa.Create(unitID, COARequest{}, env.actor())
	assert.ErrorIs(t, err, ErrCOAExists)

	_, err = env.coa.Update(unitID, COARequest{Status: strPtr(models.COAStatusFinalized)}, env.actor())
	assert.ErrorIs(t, err, ErrInvalidCOA, "tested_by is required to finalize")
	assert.Equal(t, strPtr(models.UnitCOACreated), unitCOA(t, env, unitID))

	coa, err = env.coa.Update(unitID, COARequest{
		TestedBy: strPtr("Dr. Rana"),
		Status:   strPtr(models.COAStatusFinalized),
	}, env.actor())
	require.NoError(t, err)
	assert.Equal(t, models.COAStatusFinalized, coa.Status)
	assert.Equal(t, "2025-03-15", coa.DateTested, "fields left out of a patch are kept")
	assert.Equal(t, strPtr(models.UnitCOAFinalized), unitCOA(t, env, unitID))

	_, err = env.coa.Update(unitID, COARequest{Notes: strPtr("late edit")}, env.actor())
	assert.ErrorIs(t, err, ErrCOAFinalized)
	assert.ErrorIs(t, env.coa.Delete(unitID, env.actor()), ErrCOAFinalized)

	coa, err = env.coa.Reopen(unitID, env.actor())
	require.NoError(t, err)
	assert.Equal(t, models.COAStatusDraft, coa.Status)
	assert.Equal(t, strPtr(models.UnitCOACreated), unitCOA(t, env, unitID))
	_, err = env.coa.Reopen(unitID, env.actor())
	assert.ErrorIs(t, err, ErrCOANotFinalized)

	require.NoError(t, env.coa.Delete(unitID, env.actor()))
	assert.Nil(t, unitCOA(t, env, unitID))
	_, err = env.coa.Get(unitID)
	assert.ErrorIs(t, err, repository.ErrCOANotFound)

	var actions []string
	require.NoError(t, env.db.Model(&models.AuditLog{}).Order("id").Pluck("action", &actions).Error)
	assert.Subset(t, actions, []string{"coa_created", "coa_finalized", "coa_reopened", "coa_deleted"})
}

func TestCOA_RejectsInvalidResults(t *testing.T) {
	env := newTestEnv(t, intake.Options{})
	sample := createdSample(t, env, pcrUnit(env.pcr.ID))
	unitID := sample.Units[0].ID

	tests := []struct {
		name string
		req  COARequest
	}{
		{"disease not on unit", COARequest{TestResults: map[string]any{"IB": "Positive"}}},
		{"bad date", COARequest{DateTested: strPtr("15/03/2025")}},
		{"unknown status", COARequest{Status: strPtr("archived")}},
		{"finalized without results", COARequest{TestedBy: strPtr("Dr. Rana"), Status: strPtr(models.COAStatusFinalized)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.coa.Create(unitID, tt.req, env.actor())
			assert.ErrorIs(t, err, ErrInvalidCOA)
		})
	}
	assert.Nil(t, unitCOA(t, env, unitID))

	_, err := env.coa.Create(424242, COARequest{}, env.actor())
	assert.ErrorIs(t, err, repository.ErrUnitNotFound)
}

func TestCOA_RemovedUnitTakesItsCOA(t *testing.T) {
	env := newTestEnv(t, intake.Options{})
	sample := createdSample(t, env, pcrUnit(env.pcr.ID), micUnit(env.mic.ID))
	pcrID, micID := sample.Units[0].ID, sample.Units[1].ID

	for _, id := range []uint{pcrID, micID} {
		_, err := env.coa.Create(id, COARequest{}, env.actor())
		require.NoError(t, err)
	}

	info, units, err := env.samples.LoadForEdit(sample.ID)
	require.NoError(t, err)
	_, err = env.samples.Update(sample.ID, SampleRequest{SampleInfo: info, Units: units[1:]}, env.actor())
	require.NoError(t, err)

	_, err = env.coa.Get(pcrID)
	assert.ErrorIs(t, err, repository.ErrCOANotFound)
	coas, err := env.coa.GetBatch([]uint{pcrID, micID})
	require.NoError(t, err)
	require.Len(t, coas, 1)
	assert.Equal(t, micID, coas[0].UnitID)
	assert.Equal(t, strPtr(models.UnitCOACreated), unitCOA(t, env, micID), "an edit keeps the unit's COA state")
}
