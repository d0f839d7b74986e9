package intake

import "fmt"

// Snapshot is the serializable form of a collection kept in the draft store
type Snapshot struct {
	Sample      SampleInfo `json:"sample"`
	Units       []Unit     `json:"units"`
	NextLocalID uint64     `json:"next_local_id"`
}

// Snapshot captures the collection's current state
func (c *Collection) Snapshot() Snapshot {
	return Snapshot{
		Sample:      c.Sample,
		Units:       c.Units(),
		NextLocalID: c.nextLocalID,
	}
}

// Restore rebuilds a collection from a snapshot. Units whose department is
// missing from cat, or whose payload belongs to another department, are
// rejected. Units without a local id get one.
func Restore(cat Catalog, opts Options, s Snapshot) (*Collection, error) {
	c := NewCollection(cat, opts)
	c.Sample = s.Sample

	for _, u := range s.Units {
		if u.LocalID >= c.nextLocalID {
			c.nextLocalID = u.LocalID + 1
		}
	}
	if s.NextLocalID > c.nextLocalID {
		c.nextLocalID = s.NextLocalID
	}

	seen := make(map[uint64]bool, len(s.Units))
	for i, u := range s.Units {
		dept, ok := c.departments[u.DepartmentID]
		if !ok {
			return nil, fmt.Errorf("%w: unit %d references department %d", ErrInvalidDepartment, i, u.DepartmentID)
		}
		if u.Data != nil && u.Data.Department() != dept.Code {
			return nil, fmt.Errorf("%w: unit %d has %s data in department %s", ErrPayloadMismatch, i, u.Data.Department(), dept.Code)
		}
		u = u.Clone()
		if u.LocalID == 0 || seen[u.LocalID] {
			u.LocalID = c.takeLocalID()
		}
		seen[u.LocalID] = true
		if u.Data == nil {
			u.Data = emptyPayload(dept.Code)
		}
		if u.Data != nil {
			recomputeDerived(u.Data)
		}
		c.units = append(c.units, u)
	}
	return c, nil
}
