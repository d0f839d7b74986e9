package intake

import "fmt"

// Catalog is the reference data a collection needs to build and check units
type Catalog struct {
	Departments []Department
	// DefaultKits maps department id to disease name to default kit type
	DefaultKits map[uint]map[string]string
}

// Options tunes behaviour that the lab configures per deployment
type Options struct {
	// LockPersistedSamplesNumber rejects samples_number edits on units that
	// already carry a backend id.
	LockPersistedSamplesNumber bool
}

// Collection is the ordered set of units of one sample under intake, plus
// the sample-level fields. All operations are synchronous and either apply
// completely or return an error without touching state.
//
// Collection is not safe for concurrent use.
type Collection struct {
	Sample SampleInfo

	units       []Unit
	nextLocalID uint64
	departments map[uint]Department
	defaultKits map[uint]map[string]string
	opts        Options
}

// NewCollection returns an empty collection bound to cat
func NewCollection(cat Catalog, opts Options) *Collection {
	c := &Collection{
		nextLocalID: 1,
		departments: make(map[uint]Department, len(cat.Departments)),
		defaultKits: cat.DefaultKits,
		opts:        opts,
	}
	for _, d := range cat.Departments {
		c.departments[d.ID] = d
	}
	if c.defaultKits == nil {
		c.defaultKits = map[uint]map[string]string{}
	}
	return c
}

// Len returns the number of units
func (c *Collection) Len() int {
	return len(c.units)
}

// Units returns a deep copy of the units in order
func (c *Collection) Units() []Unit {
	out := make([]Unit, len(c.units))
	for i := range c.units {
		out[i] = c.units[i].Clone()
	}
	return out
}

// Unit returns a copy of the unit at index
func (c *Collection) Unit(index int) (Unit, error) {
	if err := c.checkIndex(index); err != nil {
		return Unit{}, err
	}
	return c.units[index].Clone(), nil
}

// IndexOf resolves a stable local id to the unit's current index
func (c *Collection) IndexOf(localID uint64) (int, bool) {
	for i := range c.units {
		if c.units[i].LocalID == localID {
			return i, true
		}
	}
	return -1, false
}

// Department looks up a department in the bound catalog
func (c *Collection) Department(id uint) (Department, bool) {
	d, ok := c.departments[id]
	return d, ok
}

// DefaultKitType returns the configured default kit for a disease, or ""
func (c *Collection) DefaultKitType(departmentID uint, disease string) string {
	return c.defaultKits[departmentID][disease]
}

// AddUnit appends a fresh unit for departmentID with department defaults
// applied and a preview unit code, returning the new unit's index.
func (c *Collection) AddUnit(departmentID uint, seeds CodeSeeds) (int, error) {
	dept, ok := c.departments[departmentID]
	if !ok {
		return -1, fmt.Errorf("%w: %d", ErrInvalidDepartment, departmentID)
	}

	u := Unit{
		DepartmentID: departmentID,
		House:        []string{},
		Source:       []string{},
		SampleType:   []string{},
		UnitCode:     FormatUnitCode(dept.Code, NextUnitNumber(c.units, departmentID, seeds)),
	}
	if dept.Code == CodeSerology {
		one := 1
		u.SamplesNumber = &one
		u.SampleType = []string{"Blood"}
	}
	u.Data = emptyPayload(dept.Code)

	u.LocalID = c.takeLocalID()
	c.units = append(c.units, u)
	return len(c.units) - 1, nil
}

// DuplicateUnit deep-copies the unit at index, strips its identity, gives it
// a fresh preview code and inserts it right after the source.
func (c *Collection) DuplicateUnit(index int) (int, string, error) {
	if err := c.checkIndex(index); err != nil {
		return -1, "", err
	}
	src := c.units[index]
	dup := src.Clone()
	dup.ID = nil
	dup.UnitCode = ""
	if dept, ok := c.departments[src.DepartmentID]; ok {
		dup.UnitCode = FormatUnitCode(dept.Code, NextUnitNumber(c.units, src.DepartmentID, nil))
	}
	dup.LocalID = c.takeLocalID()

	pos := index + 1
	c.units = append(c.units, Unit{})
	copy(c.units[pos+1:], c.units[pos:])
	c.units[pos] = dup
	return pos, dup.UnitCode, nil
}

// RemoveUnit deletes the unit at index. Later units shift down by one, so any
// state a caller keeps by index must be rebuilt; LocalID stays stable.
func (c *Collection) RemoveUnit(index int) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	c.units = append(c.units[:index], c.units[index+1:]...)
	return nil
}

// UnitPatch is a shallow update. Nil fields are left untouched; a non-nil
// department payload replaces the unit's payload wholesale.
type UnitPatch struct {
	House            *[]string         `json:"house,omitempty"`
	Age              *string           `json:"age,omitempty"`
	Source           *[]string         `json:"source,omitempty"`
	SampleType       *[]string         `json:"sample_type,omitempty"`
	SamplesNumber    *int              `json:"samples_number,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
	PCRData          *PCRData          `json:"pcr_data,omitempty"`
	SerologyData     *SerologyData     `json:"serology_data,omitempty"`
	MicrobiologyData *MicrobiologyData `json:"microbiology_data,omitempty"`
}

func (p UnitPatch) payload() (Payload, int) {
	var out Payload
	n := 0
	if p.PCRData != nil {
		out, n = p.PCRData, n+1
	}
	if p.SerologyData != nil {
		out, n = p.SerologyData, n+1
	}
	if p.MicrobiologyData != nil {
		out, n = p.MicrobiologyData, n+1
	}
	return out, n
}

// UpdateUnit merges patch into the unit at index and refreshes derived fields
func (c *Collection) UpdateUnit(index int, patch UnitPatch) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	u := &c.units[index]

	payload, n := patch.payload()
	if n > 1 {
		return fmt.Errorf("%w: more than one department payload given", ErrPayloadMismatch)
	}
	if payload != nil && (u.Data == nil || u.Data.Department() != payload.Department()) {
		return fmt.Errorf("%w: unit %s cannot take %s data", ErrPayloadMismatch, u.UnitCode, payload.Department())
	}
	if payload != nil {
		if name, dup := DuplicateDisease(payload); dup {
			return fmt.Errorf("%w: %s", ErrDuplicateDisease, name)
		}
	}
	if c.opts.LockPersistedSamplesNumber && u.Persisted() && patch.SamplesNumber != nil &&
		(u.SamplesNumber == nil || *u.SamplesNumber != *patch.SamplesNumber) {
		return fmt.Errorf("%w: samples_number", ErrFieldLocked)
	}

	if patch.House != nil {
		u.House = cloneStrings(*patch.House)
	}
	if patch.Age != nil {
		u.Age = *patch.Age
	}
	if patch.Source != nil {
		u.Source = cloneStrings(*patch.Source)
	}
	if patch.SampleType != nil {
		u.SampleType = cloneStrings(*patch.SampleType)
	}
	if patch.SamplesNumber != nil {
		u.SamplesNumber = cloneInt(patch.SamplesNumber)
	}
	if patch.Notes != nil {
		u.Notes = *patch.Notes
	}
	if payload != nil {
		u.Data = payload.clone()
		recomputeDerived(u.Data)
	}
	return nil
}

// ToggleDisease adds or removes a disease selection on the unit at index
func (c *Collection) ToggleDisease(index int, disease string) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	u := &c.units[index]
	kit := c.DefaultKitType(u.DepartmentID, disease)
	switch d := u.Data.(type) {
	case *PCRData:
		d.DiseasesList = ToggleDisease(d.DiseasesList, disease, kit)
	case *SerologyData:
		d.DiseasesList = ToggleDisease(d.DiseasesList, disease, kit)
	case *MicrobiologyData:
		d.DiseasesList = ToggleDiseaseName(d.DiseasesList, disease)
	default:
		return fmt.Errorf("%w: unit %s has no disease list", ErrPayloadMismatch, u.UnitCode)
	}
	recomputeDerived(u.Data)
	return nil
}

// SetDiseaseTestCount adjusts one disease's test count by delta, floored at 1
func (c *Collection) SetDiseaseTestCount(index int, disease string, delta int) error {
	list, apply, err := c.kitList(index)
	if err != nil {
		return err
	}
	updated, err := AdjustTestCount(list, disease, delta)
	if err != nil {
		return err
	}
	apply(updated)
	return nil
}

// SetDiseaseKitType changes the kit used for one selected disease
func (c *Collection) SetDiseaseKitType(index int, disease, kit string) error {
	list, apply, err := c.kitList(index)
	if err != nil {
		return err
	}
	updated, err := SetKitType(list, disease, kit)
	if err != nil {
		return err
	}
	apply(updated)
	return nil
}

func (c *Collection) kitList(index int) ([]DiseaseKitItem, func([]DiseaseKitItem), error) {
	if err := c.checkIndex(index); err != nil {
		return nil, nil, err
	}
	u := &c.units[index]
	switch d := u.Data.(type) {
	case *PCRData:
		return d.DiseasesList, func(l []DiseaseKitItem) { d.DiseasesList = l; recomputeDerived(d) }, nil
	case *SerologyData:
		return d.DiseasesList, func(l []DiseaseKitItem) { d.DiseasesList = l; recomputeDerived(d) }, nil
	}
	return nil, nil, fmt.Errorf("%w: unit %s has no kit selections", ErrPayloadMismatch, u.UnitCode)
}

// ImportLocations merges newline separated sample locations into a
// microbiology unit's index list
func (c *Collection) ImportLocations(index int, rawText string) error {
	m, err := c.microbiology(index)
	if err != nil {
		return err
	}
	m.IndexList = MergeLocations(m.IndexList, rawText)
	return nil
}

// ReorderLocations moves one sample location within a microbiology unit
func (c *Collection) ReorderLocations(index, from, to int) error {
	m, err := c.microbiology(index)
	if err != nil {
		return err
	}
	list, err := MoveLocation(m.IndexList, from, to)
	if err != nil {
		return err
	}
	m.IndexList = list
	return nil
}

// RemoveLocation drops one sample location from a microbiology unit
func (c *Collection) RemoveLocation(index, location int) error {
	m, err := c.microbiology(index)
	if err != nil {
		return err
	}
	list, err := RemoveLocation(m.IndexList, location)
	if err != nil {
		return err
	}
	m.IndexList = list
	return nil
}

func (c *Collection) microbiology(index int) (*MicrobiologyData, error) {
	if err := c.checkIndex(index); err != nil {
		return nil, err
	}
	m := c.units[index].Microbiology()
	if m == nil {
		return nil, fmt.Errorf("%w: unit %s is not a microbiology unit", ErrPayloadMismatch, c.units[index].UnitCode)
	}
	return m, nil
}

// SetTechnician stamps the technician name on the unit's payload
func (c *Collection) SetTechnician(index int, name string) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	u := &c.units[index]
	switch d := u.Data.(type) {
	case *PCRData:
		d.TechnicianName = name
	case *SerologyData:
		d.TechnicianName = name
	case *MicrobiologyData:
		d.TechnicianName = name
	default:
		return fmt.Errorf("%w: unit %s has no technician field", ErrPayloadMismatch, u.UnitCode)
	}
	return nil
}

// Reconcile replaces the preview identity of the unit at index with the
// values the backend assigned on save.
func (c *Collection) Reconcile(index int, id uint, unitCode string) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	c.units[index].ID = &id
	c.units[index].UnitCode = unitCode
	return nil
}

// PreviewCodes returns the code the next added unit would get, per department
func (c *Collection) PreviewCodes(seeds CodeSeeds) map[uint]string {
	out := make(map[uint]string, len(c.departments))
	for id, d := range c.departments {
		out[id] = FormatUnitCode(d.Code, NextUnitNumber(c.units, id, seeds))
	}
	return out
}

// GroupByDepartment is the display view: unit indices per department id,
// in collection order.
func (c *Collection) GroupByDepartment() map[uint][]int {
	out := make(map[uint][]int)
	for i := range c.units {
		out[c.units[i].DepartmentID] = append(out[c.units[i].DepartmentID], i)
	}
	return out
}

// emptyPayload returns the structural defaults for a department's block, or
// nil for departments without one
func emptyPayload(code DepartmentCode) Payload {
	switch code {
	case CodePCR:
		return &PCRData{DiseasesList: []DiseaseKitItem{}}
	case CodeSerology:
		return &SerologyData{DiseasesList: []DiseaseKitItem{}}
	case CodeMicrobiology:
		return &MicrobiologyData{DiseasesList: []string{}, IndexList: []string{}}
	}
	return nil
}

func (c *Collection) checkIndex(index int) error {
	if index < 0 || index >= len(c.units) {
		return fmt.Errorf("%w: %d (have %d units)", ErrIndexOutOfRange, index, len(c.units))
	}
	return nil
}

func (c *Collection) takeLocalID() uint64 {
	id := c.nextLocalID
	c.nextLocalID++
	return id
}
