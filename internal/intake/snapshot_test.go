package intake

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestore(t *testing.T) {
	c := newTestCollection()
	c.Sample = SampleInfo{DateReceived: "2026-10-01", Company: "Acme", Farm: "North"}
	_, _ = c.AddUnit(pcrID, CodeSeeds{pcrID: 7})
	_, _ = c.AddUnit(micID, nil)
	require.NoError(t, c.ToggleDisease(0, "AI"))
	require.NoError(t, c.ImportLocations(1, "Door\nFan"))
	require.NoError(t, c.RemoveUnit(0))
	_, _ = c.AddUnit(serID, nil)

	b, err := json.Marshal(c.Snapshot())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(b, &snap))
	restored, err := Restore(testCatalog(), Options{}, snap)
	require.NoError(t, err)

	if diff := cmp.Diff(c.Units(), restored.Units()); diff != "" {
		t.Fatalf("units differ after restore (-want +got):\n%s", diff)
	}
	assert.Equal(t, c.Sample, restored.Sample)

	idx, err := restored.AddUnit(pcrID, nil)
	require.NoError(t, err)
	u, _ := restored.Unit(idx)
	assert.Equal(t, uint64(4), u.LocalID, "local ids continue after the highest issued one")
}

func TestRestore_RejectsUnknownDepartment(t *testing.T) {
	_, err := Restore(testCatalog(), Options{}, Snapshot{Units: []Unit{{DepartmentID: 42}}})
	assert.True(t, errors.Is(err, ErrInvalidDepartment))
}

func TestRestore_RejectsForeignPayload(t *testing.T) {
	_, err := Restore(testCatalog(), Options{}, Snapshot{Units: []Unit{{DepartmentID: pcrID, Data: &MicrobiologyData{}}}})
	assert.True(t, errors.Is(err, ErrPayloadMismatch))
}

func TestRestore_FillsMissingPayloadAndDerivedFields(t *testing.T) {
	stale := 40
	snap := Snapshot{Units: []Unit{
		{DepartmentID: micID},
		{DepartmentID: pcrID, Data: &PCRData{
			DiseasesList: []DiseaseKitItem{{Disease: "AI", TestCount: 2}},
			Detection:    &stale,
		}},
	}}
	c, err := Restore(testCatalog(), Options{}, snap)
	require.NoError(t, err)

	u, _ := c.Unit(0)
	require.NotNil(t, u.Microbiology())
	assert.NotZero(t, u.LocalID)

	u, _ = c.Unit(1)
	assert.Equal(t, 2, *u.PCR().Detection)
}
