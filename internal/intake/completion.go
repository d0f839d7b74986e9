package intake

import "strings"

// CompletionState is derived after every mutation and never stored
type CompletionState struct {
	SampleInfoComplete bool         `json:"sample_info_complete"`
	UnitComplete       map[int]bool `json:"unit_complete"`
}

// Complete reports whether the sample-level fields needed to proceed are set
func (s SampleInfo) Complete() bool {
	return strings.TrimSpace(s.DateReceived) != "" && strings.TrimSpace(s.Company) != ""
}

// CheckUnitComplete applies the per-department completion rules
func CheckUnitComplete(u Unit) bool {
	if len(u.SampleType) == 0 {
		return false
	}
	switch d := u.Data.(type) {
	case *PCRData:
		return len(d.DiseasesList) > 0
	case *SerologyData:
		return len(d.DiseasesList) > 0 && d.NumberOfWells > 0
	case *MicrobiologyData:
		return len(d.DiseasesList) > 0 && len(d.IndexList) > 0
	}
	return true
}

// Completion derives the current completion state
func (c *Collection) Completion() CompletionState {
	st := CompletionState{
		SampleInfoComplete: c.Sample.Complete(),
		UnitComplete:       make(map[int]bool, len(c.units)),
	}
	for i := range c.units {
		st.UnitComplete[i] = CheckUnitComplete(c.units[i])
	}
	return st
}

// Progress returns overall completion as a percentage in [0, 100]. Sample
// info and units weigh half each once at least one unit exists.
func (c *Collection) Progress() float64 {
	return Progress(c.Completion(), len(c.units))
}

// Progress computes the percentage for a completion state over n units
func Progress(st CompletionState, n int) float64 {
	sample := 0.0
	if st.SampleInfoComplete {
		sample = 1
	}
	if n == 0 {
		return sample * 100
	}
	done := 0
	for i := 0; i < n; i++ {
		if st.UnitComplete[i] {
			done++
		}
	}
	return sample*50 + float64(done)/float64(n)*50
}
