package intake

import (
	"fmt"
	"regexp"
	"strconv"
)

var unitCodeSuffix = regexp.MustCompile(`.*-(\d+)$`)

// CodeSeeds maps department id to the next unit number reserved by the
// backend. Seeds are only consulted while the collection holds no unit of
// that department.
type CodeSeeds map[uint]int

// ParseCodeNumber extracts the numeric suffix of a unit code like "PCR-12"
func ParseCodeNumber(code string) (int, bool) {
	m := unitCodeSuffix.FindStringSubmatch(code)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatSampleCode renders "SMP{yy}-{N}" for the given calendar year
func FormatSampleCode(year, n int) string {
	return fmt.Sprintf("SMP%02d-%d", year%100, n)
}

// FormatUnitCode renders "{DEPT}-{N}"
func FormatUnitCode(code DepartmentCode, n int) string {
	return fmt.Sprintf("%s-%d", code, n)
}

// NextUnitNumber computes the preview number for the next unit of dept.
// It is max(existing suffixes)+1 when the department already has units in
// the collection, otherwise the reserved seed (or 1 without one).
func NextUnitNumber(units []Unit, departmentID uint, seeds CodeSeeds) int {
	found := false
	highest := 0
	for i := range units {
		if units[i].DepartmentID != departmentID {
			continue
		}
		found = true
		if n, ok := ParseCodeNumber(units[i].UnitCode); ok && n > highest {
			highest = n
		}
	}
	if !found {
		if seed, ok := seeds[departmentID]; ok && seed > 0 {
			return seed
		}
	}
	return highest + 1
}
