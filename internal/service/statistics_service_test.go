package service

import (
	"testing"

	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/repository"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedStatistics stores one sample received on the clock's day and one the
// week before
func seedStatistics(t *testing.T, env *testEnv) {
	t.Helper()
	pcr := pcrUnit(env.pcr.ID)
	pcr.SamplesNumber = intPtr(3)
	pcr.Data.(*intake.PCRData).Extraction = intPtr(4)
	createdSample(t, env, pcr, serUnit(env.ser.ID), micUnit(env.mic.ID))

	older := sampleInfo()
	older.DateReceived = "2025-03-03"
	_, err := env.samples.Create(SampleRequest{SampleInfo: older, Units: []intake.Unit{serUnit(env.ser.ID)}}, env.actor())
	require.NoError(t, err)
}

func labels(points []StatisticPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Label
	}
	return out
}

func counts(points []StatisticPoint) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = p.Count
	}
	return out
}

func TestStatistics_SamplesPerWeekday(t *testing.T) {
	env := newTestEnv(t, intake.Options{})
	seedStatistics(t, env)

	stats, err := env.statistics.Samples(StatisticsQuery{})
	require.NoError(t, err)

	assert.Equal(t, "week", stats.Period)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, labels(stats.Data))
	// PCR 3 + serology 1 + one microbiology unit
	if diff := cmp.Diff([]int{0, 0, 0, 0, 5, 0, 0}, counts(stats.Data)); diff != "" {
		t.Errorf("weekly counts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, "2025-03-10T00:00:00Z", stats.Data[0].Date)
}

func TestStatistics_MonthAndRange(t *testing.T) {
	env := newTestEnv(t, intake.Options{})
	seedStatistics(t, env)

	month, err := env.statistics.Samples(StatisticsQuery{Period: "month"})
	require.NoError(t, err)
	require.Len(t, month.Data, 31)
	assert.Equal(t, "03", month.Data[2].Label)
	assert.Equal(t, 1, month.Data[2].Count)
	assert.Equal(t, 5, month.Data[13].Count)
	assert.Equal(t, 6, month.Total)

	year, err := env.statistics.Samples(StatisticsQuery{Period: "year"})
	require.NoError(t, err)
	require.Len(t, year.Data, 12)
	assert.Equal(t, "Mar", year.Data[2].Label)
	assert.Equal(t, 6, year.Data[2].Count)

	rng, err := env.statistics.Samples(StatisticsQuery{From: "2025-03-04", To: "2025-03-14"})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04 to 2025-03-14", rng.Period)
	require.Len(t, rng.Data, 11)
	assert.Equal(t, "Mar 14", rng.Data[10].Label)
	assert.Equal(t, 5, rng.Total)
}

func TestStatistics_RejectsBadPeriods(t *testing.T) {
	env := newTestEnv(t, intake.Options{})

	for name, q := range map[string]StatisticsQuery{
		"unknown period": {Period: "decade"},
		"from only":      {From: "2025-03-01"},
		"reversed":       {From: "2025-03-10", To: "2025-03-01"},
		"too long":       {From: "2023-01-01", To: "2025-03-14"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.statistics.Samples(q)
			assert.ErrorIs(t, err, ErrInvalidPeriod)
		})
	}
}

func TestStatistics_UnitsPerDepartment(t *testing.T) {
	env := newTestEnv(t, intake.Options{})
	seedStatistics(t, env)

	stats, err := env.statistics.Units(StatisticsQuery{})
	require.NoError(t, err)
	require.Len(t, stats.Departments, 3)

	type totals struct {
		Code       string
		Samples    int
		SubSamples int
		Tests      int
		Wells      int
	}
	var got []totals
	for _, d := range stats.Departments {
		got = append(got, totals{d.DepartmentCode, d.SampleCount, d.SubSampleCount, d.TestCount, d.WellsCount})
	}
	want := []totals{
		{"PCR", 1, 4, 1, 0},
		{"SER", 1, 0, 2, 10},
		// one disease over two locations
		{"MIC", 1, 0, 2, 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("department totals mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Departments[1].Data[4].TestCount)

	ser, err := env.statistics.Units(StatisticsQuery{Period: "month", DepartmentID: env.ser.ID})
	require.NoError(t, err)
	require.Len(t, ser.Departments, 1)
	assert.Equal(t, 2, ser.Departments[0].SampleCount)
	assert.Equal(t, 20, ser.Departments[0].WellsCount)

	_, err = env.statistics.Units(StatisticsQuery{DepartmentID: 9999})
	assert.ErrorIs(t, err, repository.ErrDepartmentNotFound)
}
