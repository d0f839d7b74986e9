package service

import (
	"fmt"
	"math"
	"time"

	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/models"
	"lab-sample-intake/internal/repository"

	"go.uber.org/zap"
)

const maxStatisticsDays = 366

// StatisticsQuery selects the reporting window. From and To (inclusive,
// YYYY-MM-DD) win over Period; an empty query means the current week.
type StatisticsQuery struct {
	Period       string
	From         string
	To           string
	DepartmentID uint
}

type StatisticPoint struct {
	Date      string `json:"date"`
	Label     string `json:"label"`
	Count     int    `json:"count"`
	TestCount int    `json:"test_count"`
}

type SampleStatistics struct {
	Period string           `json:"period"`
	Data   []StatisticPoint `json:"data"`
	Total  int              `json:"total"`
}

type DepartmentStatistic struct {
	DepartmentID   uint             `json:"department_id"`
	DepartmentName string           `json:"department_name"`
	DepartmentCode string           `json:"department_code"`
	Data           []StatisticPoint `json:"data"`
	SampleCount    int              `json:"sample_count"`
	SubSampleCount int              `json:"sub_sample_count"`
	TestCount      int              `json:"test_count"`
	WellsCount     int              `json:"wells_count"`
}

type UnitStatistics struct {
	Period      string                `json:"period"`
	Departments []DepartmentStatistic `json:"departments"`
	Total       int                   `json:"total"`
}

type interval struct {
	start, end time.Time
	label      string
}

type window struct {
	period    string
	intervals []interval
	// byCreation buckets by creation time instead of date received
	byCreation bool
}

// unitMeasures are the workload figures one unit contributes
type unitMeasures struct {
	samples    int
	subSamples int
	tests      int
	wells      int
}

type StatisticsService struct {
	sampleRepo *repository.SampleRepository
	catalog    *CatalogService
	logger     *zap.Logger
	now        func() time.Time
}

func NewStatisticsService(sampleRepo *repository.SampleRepository, catalog *CatalogService, logger *zap.Logger) *StatisticsService {
	return &StatisticsService{
		sampleRepo: sampleRepo,
		catalog:    catalog,
		logger:     logger,
		now:        time.Now,
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daily(start time.Time, days int, layout string) []interval {
	out := make([]interval, days)
	for i := range out {
		s := start.AddDate(0, 0, i)
		out[i] = interval{start: s, end: s.AddDate(0, 0, 1), label: s.Format(layout)}
	}
	return out
}

// buildWindow turns a query into reporting intervals relative to now
func buildWindow(q StatisticsQuery, now time.Time) (window, error) {
	loc := now.Location()
	if q.From != "" || q.To != "" {
		from, err1 := time.ParseInLocation(intake.DateLayout, q.From, loc)
		to, err2 := time.ParseInLocation(intake.DateLayout, q.To, loc)
		if err1 != nil || err2 != nil {
			return window{}, fmt.Errorf("%w: from and to must both be YYYY-MM-DD", ErrInvalidPeriod)
		}
		days := int(math.Round(to.Sub(from).Hours()/24)) + 1
		if to.Before(from) || days > maxStatisticsDays {
			return window{}, fmt.Errorf("%w: range must cover 1 to %d days", ErrInvalidPeriod, maxStatisticsDays)
		}
		return window{period: q.From + " to " + q.To, intervals: daily(from, days, "Jan 02")}, nil
	}

	today := startOfDay(now)
	switch q.Period {
	case "day":
		out := make([]interval, 24)
		for h := range out {
			s := today.Add(time.Duration(h) * time.Hour)
			out[h] = interval{start: s, end: s.Add(time.Hour), label: s.Format("15:00")}
		}
		return window{period: "day", intervals: out, byCreation: true}, nil
	case "", "week":
		monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
		return window{period: "week", intervals: daily(monday, 7, "Mon")}, nil
	case "month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		days := first.AddDate(0, 1, -1).Day()
		return window{period: "month", intervals: daily(first, days, "02")}, nil
	case "year":
		out := make([]interval, 12)
		for m := range out {
			s := time.Date(now.Year(), time.Month(m+1), 1, 0, 0, 0, 0, loc)
			out[m] = interval{start: s, end: s.AddDate(0, 1, 0), label: s.Format("Jan")}
		}
		return window{period: "year", intervals: out}, nil
	}
	return window{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, q.Period)
}

func (w window) rangeFilter() repository.StatisticsRange {
	first, last := w.intervals[0].start, w.intervals[len(w.intervals)-1].end
	if w.byCreation {
		return repository.StatisticsRange{CreatedFrom: first, CreatedTo: last}
	}
	return repository.StatisticsRange{
		ReceivedFrom: first.Format(intake.DateLayout),
		ReceivedTo:   last.Format(intake.DateLayout),
	}
}

// bucket returns the interval index a sample falls into, or -1
func (w window) bucket(s *models.Sample) int {
	ts := s.CreatedAt
	if !w.byCreation {
		d, err := time.ParseInLocation(intake.DateLayout, s.DateReceived, w.intervals[0].start.Location())
		if err != nil {
			return -1
		}
		ts = d
	} else {
		ts = ts.In(w.intervals[0].start.Location())
	}
	for i, iv := range w.intervals {
		if !ts.Before(iv.start) && ts.Before(iv.end) {
			return i
		}
	}
	return -1
}

func (w window) points() []StatisticPoint {
	out := make([]StatisticPoint, len(w.intervals))
	for i, iv := range w.intervals {
		out[i] = StatisticPoint{Date: iv.start.Format(time.RFC3339), Label: iv.label}
	}
	return out
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

// measure computes what one unit adds to its department's figures. PCR and
// microbiology count one sample per unit; serology counts its samples.
func measure(code string, u *models.Unit) unitMeasures {
	switch code {
	case string(intake.CodePCR):
		m := unitMeasures{samples: 1}
		if u.PCRData != nil {
			m.subSamples = deref(u.PCRData.Extraction)
			m.tests = deref(u.PCRData.Detection)
		}
		return m
	case string(intake.CodeSerology):
		m := unitMeasures{samples: deref(u.SamplesNumber)}
		if u.SerologyData != nil {
			m.tests = deref(u.SerologyData.TestsCount)
			m.wells = u.SerologyData.NumberOfWells
		}
		return m
	case string(intake.CodeMicrobiology):
		m := unitMeasures{samples: 1, subSamples: deref(u.SamplesNumber)}
		if u.MicrobiologyData != nil {
			m.tests = len(u.MicrobiologyData.DiseasesList) * len(u.MicrobiologyData.IndexList)
		}
		return m
	}
	return unitMeasures{samples: deref(u.SamplesNumber)}
}

// received counts a unit towards the samples received: one per
// microbiology unit, samples_number for everything else
func received(code string, u *models.Unit) int {
	if code == string(intake.CodeMicrobiology) {
		return 1
	}
	return deref(u.SamplesNumber)
}

func (s *StatisticsService) load(q StatisticsQuery) (window, []models.Sample, map[uint]models.Department, error) {
	w, err := buildWindow(q, s.now())
	if err != nil {
		return window{}, nil, nil, err
	}
	depts, err := s.catalog.GetDepartments()
	if err != nil {
		return window{}, nil, nil, err
	}
	byID := make(map[uint]models.Department, len(depts))
	for _, d := range depts {
		byID[d.ID] = d
	}
	samples, err := s.sampleRepo.ListSamplesInRange(w.rangeFilter())
	if err != nil {
		return window{}, nil, nil, fmt.Errorf("failed to load samples for statistics: %w", err)
	}
	return w, samples, byID, nil
}

// Samples reports samples received per interval across all departments
func (s *StatisticsService) Samples(q StatisticsQuery) (*SampleStatistics, error) {
	w, samples, depts, err := s.load(q)
	if err != nil {
		return nil, err
	}

	out := &SampleStatistics{Period: w.period, Data: w.points()}
	for i := range samples {
		b := w.bucket(&samples[i])
		if b < 0 {
			continue
		}
		for j := range samples[i].Units {
			u := &samples[i].Units[j]
			n := received(depts[u.DepartmentID].Code, u)
			out.Data[b].Count += n
			out.Total += n
		}
	}
	return out, nil
}

// Units reports per-department workload, optionally for one department
func (s *StatisticsService) Units(q StatisticsQuery) (*UnitStatistics, error) {
	w, samples, depts, err := s.load(q)
	if err != nil {
		return nil, err
	}
	if q.DepartmentID != 0 {
		if _, ok := depts[q.DepartmentID]; !ok {
			return nil, repository.ErrDepartmentNotFound
		}
	}

	ordered, err := s.catalog.GetDepartments()
	if err != nil {
		return nil, err
	}
	out := &UnitStatistics{Period: w.period}
	index := make(map[uint]int)
	for _, d := range ordered {
		if q.DepartmentID != 0 && d.ID != q.DepartmentID {
			continue
		}
		index[d.ID] = len(out.Departments)
		out.Departments = append(out.Departments, DepartmentStatistic{
			DepartmentID:   d.ID,
			DepartmentName: d.Name,
			DepartmentCode: d.Code,
			Data:           w.points(),
		})
	}

	for i := range samples {
		b := w.bucket(&samples[i])
		if b < 0 {
			continue
		}
		for j := range samples[i].Units {
			u := &samples[i].Units[j]
			k, ok := index[u.DepartmentID]
			if !ok {
				continue
			}
			st := &out.Departments[k]
			m := measure(st.DepartmentCode, u)
			st.SampleCount += m.samples
			st.SubSampleCount += m.subSamples
			st.TestCount += m.tests
			st.WellsCount += m.wells
			st.Data[b].Count += m.samples
			st.Data[b].TestCount += m.tests
			out.Total += m.samples
		}
	}
	return out, nil
}
