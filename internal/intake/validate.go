package intake

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of date_received
const DateLayout = "2006-01-02"

// Validate checks the whole collection for submission and reports every
// problem at once. It returns nil when the collection can be submitted.
func (c *Collection) Validate() error {
	return validateAll(c.Sample, c.units, c.departments)
}

// ValidateSubmission runs the same checks as Collection.Validate on a
// sample and units received from outside a collection. It returns copies of
// the units with missing department blocks filled in and derived counts
// recomputed, ready to persist.
func ValidateSubmission(s SampleInfo, units []Unit, departments []Department) ([]Unit, error) {
	byID := make(map[uint]Department, len(departments))
	for _, d := range departments {
		byID[d.ID] = d
	}
	out := make([]Unit, len(units))
	for i, u := range units {
		u = u.Clone()
		if dept, ok := byID[u.DepartmentID]; ok && u.Data == nil {
			u.Data = emptyPayload(dept.Code)
		}
		if u.Data != nil {
			recomputeDerived(u.Data)
		}
		out[i] = u
	}
	if err := validateAll(s, out, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func validateAll(s SampleInfo, units []Unit, departments map[uint]Department) error {
	msgs := ValidateSample(s)
	if len(units) == 0 {
		msgs = append(msgs, "At least one unit is required")
	}
	for i := range units {
		msgs = append(msgs, ValidateUnit(i, units[i], departments[units[i].DepartmentID])...)
	}
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Messages: msgs}
}

// ValidateSample checks the sample-level required fields
func ValidateSample(s SampleInfo) []string {
	var msgs []string
	if strings.TrimSpace(s.DateReceived) == "" {
		msgs = append(msgs, "Date received is required")
	} else if _, err := time.Parse(DateLayout, s.DateReceived); err != nil {
		msgs = append(msgs, "Date received must be formatted YYYY-MM-DD")
	}
	if strings.TrimSpace(s.Company) == "" {
		msgs = append(msgs, "Company is required")
	}
	if strings.TrimSpace(s.Farm) == "" {
		msgs = append(msgs, "Farm is required")
	}
	return msgs
}

// ValidateUnit checks one unit. index is only used to label messages.
func ValidateUnit(index int, u Unit, dept Department) []string {
	label := fmt.Sprintf("Unit %d", index+1)
	if u.UnitCode != "" {
		label = fmt.Sprintf("Unit %d (%s)", index+1, u.UnitCode)
	}
	var msgs []string
	add := func(format string, args ...any) {
		msgs = append(msgs, label+": "+fmt.Sprintf(format, args...))
	}

	if dept.ID == 0 {
		add("department %d is unknown", u.DepartmentID)
	}
	if u.Data != nil && dept.Code != "" && u.Data.Department() != dept.Code {
		add("%s data does not belong to department %s", u.Data.Department(), dept.Code)
	}
	if len(u.SampleType) == 0 {
		add("sample type is required")
	}
	if u.SamplesNumber != nil && *u.SamplesNumber <= 0 {
		add("number of samples must be greater than zero")
	}

	if name, dup := DuplicateDisease(u.Data); dup {
		add("disease %s is selected more than once", name)
	}

	switch d := u.Data.(type) {
	case *PCRData:
		msgs = append(msgs, validateKits(label, d.DiseasesList)...)
	case *SerologyData:
		msgs = append(msgs, validateKits(label, d.DiseasesList)...)
		if d.NumberOfWells <= 0 {
			add("number of wells must be greater than zero")
		}
	case *MicrobiologyData:
		if len(d.DiseasesList) == 0 {
			add("at least one disease is required")
		}
		if len(d.IndexList) == 0 {
			add("at least one sample location is required")
		}
		if !d.Fumigation.Valid() {
			add("fumigation %q is not recognised", d.Fumigation)
		}
	}
	return msgs
}

func validateKits(label string, list []DiseaseKitItem) []string {
	var msgs []string
	if len(list) == 0 {
		msgs = append(msgs, label+": at least one disease is required")
	}
	for _, item := range list {
		if strings.TrimSpace(item.KitType) == "" {
			msgs = append(msgs, fmt.Sprintf("%s: kit type is required for %s", label, item.Disease))
		}
		if item.TestCount < 0 {
			msgs = append(msgs, fmt.Sprintf("%s: test count for %s must be at least 1", label, item.Disease))
		}
	}
	return msgs
}
