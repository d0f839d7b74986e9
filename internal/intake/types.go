package intake

import (
	"encoding/json"
	"fmt"
)

// DepartmentCode identifies which department-specific payload a unit carries
type DepartmentCode string

const (
	CodePCR          DepartmentCode = "PCR"
	CodeSerology     DepartmentCode = "SER"
	CodeMicrobiology DepartmentCode = "MIC"
)

// Department is immutable reference data loaded from the catalog
type Department struct {
	ID   uint           `json:"id"`
	Code DepartmentCode `json:"code"`
	Name string         `json:"name"`
}

// DiseaseKitItem is one disease assay selection with its kit and repetition count
type DiseaseKitItem struct {
	Disease   string `json:"disease"`
	KitType   string `json:"kit_type"`
	TestCount int    `json:"test_count"`
}

// Fumigation values accepted for microbiology units
type Fumigation string

const (
	FumigationNone   Fumigation = ""
	FumigationBefore Fumigation = "Before Fumigation"
	FumigationAfter  Fumigation = "After Fumigation"
)

// Valid reports whether f is one of the known fumigation values
func (f Fumigation) Valid() bool {
	switch f {
	case FumigationNone, FumigationBefore, FumigationAfter:
		return true
	}
	return false
}

// Payload is the department-specific block of a unit. Exactly one
// implementation exists per department code.
type Payload interface {
	Department() DepartmentCode
	clone() Payload
}

type PCRData struct {
	DiseasesList     []DiseaseKitItem `json:"diseases_list"`
	TechnicianName   string           `json:"technician_name"`
	ExtractionMethod string           `json:"extraction_method"`
	Extraction       *int             `json:"extraction"`
	Detection        *int             `json:"detection"`
}

func (*PCRData) Department() DepartmentCode { return CodePCR }

func (p *PCRData) clone() Payload {
	c := *p
	c.DiseasesList = cloneKitItems(p.DiseasesList)
	c.Extraction = cloneInt(p.Extraction)
	c.Detection = cloneInt(p.Detection)
	return &c
}

type SerologyData struct {
	DiseasesList   []DiseaseKitItem `json:"diseases_list"`
	NumberOfWells  int              `json:"number_of_wells"`
	TechnicianName string           `json:"technician_name"`
	TestsCount     *int             `json:"tests_count"`
}

func (*SerologyData) Department() DepartmentCode { return CodeSerology }

func (s *SerologyData) clone() Payload {
	c := *s
	c.DiseasesList = cloneKitItems(s.DiseasesList)
	c.TestsCount = cloneInt(s.TestsCount)
	return &c
}

type MicrobiologyData struct {
	DiseasesList   []string   `json:"diseases_list"`
	BatchNo        string     `json:"batch_no"`
	Fumigation     Fumigation `json:"fumigation"`
	IndexList      []string   `json:"index_list"`
	TechnicianName string     `json:"technician_name"`
}

func (*MicrobiologyData) Department() DepartmentCode { return CodeMicrobiology }

func (m *MicrobiologyData) clone() Payload {
	c := *m
	c.DiseasesList = cloneStrings(m.DiseasesList)
	c.IndexList = cloneStrings(m.IndexList)
	return &c
}

// Unit is one department-scoped sub-record of a sample.
//
// LocalID is assigned by the collection when the unit enters it and never
// changes, unlike the unit's index. ID is only present once the backend has
// persisted the unit.
type Unit struct {
	LocalID       uint64   `json:"local_id"`
	ID            *uint    `json:"id,omitempty"`
	UnitCode      string   `json:"unit_code,omitempty"`
	DepartmentID  uint     `json:"department_id"`
	House         []string `json:"house"`
	Age           string   `json:"age"`
	Source        []string `json:"source"`
	SampleType    []string `json:"sample_type"`
	SamplesNumber *int     `json:"samples_number"`
	Notes         string   `json:"notes"`
	Data          Payload  `json:"-"`
}

// Persisted reports whether the backend has assigned an identity to the unit
func (u *Unit) Persisted() bool {
	return u.ID != nil
}

// PCR returns the PCR payload or nil when the unit belongs to another department
func (u *Unit) PCR() *PCRData {
	p, _ := u.Data.(*PCRData)
	return p
}

// Serology returns the serology payload or nil
func (u *Unit) Serology() *SerologyData {
	s, _ := u.Data.(*SerologyData)
	return s
}

// Microbiology returns the microbiology payload or nil
func (u *Unit) Microbiology() *MicrobiologyData {
	m, _ := u.Data.(*MicrobiologyData)
	return m
}

// Clone returns a deep copy of the unit
func (u Unit) Clone() Unit {
	c := u
	if u.ID != nil {
		id := *u.ID
		c.ID = &id
	}
	c.House = cloneStrings(u.House)
	c.Source = cloneStrings(u.Source)
	c.SampleType = cloneStrings(u.SampleType)
	c.SamplesNumber = cloneInt(u.SamplesNumber)
	if u.Data != nil {
		c.Data = u.Data.clone()
	}
	return c
}

// unitJSON mirrors the wire shape: the payload travels in one of three keys
type unitJSON struct {
	unitFields
	PCRData          *PCRData          `json:"pcr_data,omitempty"`
	SerologyData     *SerologyData     `json:"serology_data,omitempty"`
	MicrobiologyData *MicrobiologyData `json:"microbiology_data,omitempty"`
}

type unitFields Unit

func (u Unit) MarshalJSON() ([]byte, error) {
	out := unitJSON{unitFields: unitFields(u)}
	switch d := u.Data.(type) {
	case *PCRData:
		out.PCRData = d
	case *SerologyData:
		out.SerologyData = d
	case *MicrobiologyData:
		out.MicrobiologyData = d
	}
	return json.Marshal(out)
}

func (u *Unit) UnmarshalJSON(b []byte) error {
	var in unitJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*u = Unit(in.unitFields)
	set := 0
	if in.PCRData != nil {
		u.Data = in.PCRData
		set++
	}
	if in.SerologyData != nil {
		u.Data = in.SerologyData
		set++
	}
	if in.MicrobiologyData != nil {
		u.Data = in.MicrobiologyData
		set++
	}
	if set > 1 {
		return fmt.Errorf("unit %q carries %d department payloads, expected one", u.UnitCode, set)
	}
	return nil
}

// SampleInfo holds the sample-level intake fields shared by every unit
type SampleInfo struct {
	DateReceived string `json:"date_received"`
	Company      string `json:"company"`
	Farm         string `json:"farm"`
	Cycle        string `json:"cycle"`
	Flock        string `json:"flock"`
	Status       string `json:"status"`
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

func cloneKitItems(s []DiseaseKitItem) []DiseaseKitItem {
	if s == nil {
		return nil
	}
	return append([]DiseaseKitItem{}, s...)
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
