package intake

// ToggleDisease removes name from list when present, otherwise appends a new
// entry using the default kit type for that disease and a test count of 1.
// The input slice is never modified.
func ToggleDisease(list []DiseaseKitItem, name, defaultKit string) []DiseaseKitItem {
	out := make([]DiseaseKitItem, 0, len(list)+1)
	removed := false
	for _, item := range list {
		if item.Disease == name {
			removed = true
			continue
		}
		out = append(out, item)
	}
	if !removed {
		out = append(out, DiseaseKitItem{Disease: name, KitType: defaultKit, TestCount: 1})
	}
	return out
}

// ToggleDiseaseName is ToggleDisease for microbiology lists, which only hold names
func ToggleDiseaseName(list []string, name string) []string {
	out := make([]string, 0, len(list)+1)
	removed := false
	for _, d := range list {
		if d == name {
			removed = true
			continue
		}
		out = append(out, d)
	}
	if !removed {
		out = append(out, name)
	}
	return out
}

// AdjustTestCount adds delta to the matching entry's count, never going below 1
func AdjustTestCount(list []DiseaseKitItem, name string, delta int) ([]DiseaseKitItem, error) {
	out := cloneKitItems(list)
	for i := range out {
		if out[i].Disease != name {
			continue
		}
		n := effectiveCount(out[i].TestCount) + delta
		if n < 1 {
			n = 1
		}
		out[i].TestCount = n
		return out, nil
	}
	return list, ErrDiseaseNotFound
}

// SetKitType replaces the kit type of the matching entry
func SetKitType(list []DiseaseKitItem, name, kit string) ([]DiseaseKitItem, error) {
	out := cloneKitItems(list)
	for i := range out {
		if out[i].Disease == name {
			out[i].KitType = kit
			return out, nil
		}
	}
	return list, ErrDiseaseNotFound
}

// TotalTests sums test counts, treating unset counts as 1. It returns nil
// when the sum is not positive so "no diseases yet" stays distinguishable.
func TotalTests(list []DiseaseKitItem) *int {
	sum := 0
	for _, item := range list {
		sum += effectiveCount(item.TestCount)
	}
	if sum <= 0 {
		return nil
	}
	return &sum
}

func effectiveCount(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

// recomputeDerived refreshes fields that are always derived from the
// disease list. It must run after any change to a PCR or serology list.
func recomputeDerived(p Payload) {
	switch d := p.(type) {
	case *PCRData:
		d.Detection = TotalTests(d.DiseasesList)
	case *SerologyData:
		d.TestsCount = TotalTests(d.DiseasesList)
	}
}

// DuplicateDisease returns the first disease name that appears more than
// once in the payload's disease list
func DuplicateDisease(p Payload) (string, bool) {
	var names []string
	switch d := p.(type) {
	case *PCRData:
		names = kitNames(d.DiseasesList)
	case *SerologyData:
		names = kitNames(d.DiseasesList)
	case *MicrobiologyData:
		names = d.DiseasesList
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return n, true
		}
		seen[n] = struct{}{}
	}
	return "", false
}

func kitNames(list []DiseaseKitItem) []string {
	out := make([]string, len(list))
	for i, item := range list {
		out[i] = item.Disease
	}
	return out
}
