package intake

import "strings"

// MergeLocations unions newline separated rawText into existing. Existing
// entries keep their order, new unique lines are appended in input order.
func MergeLocations(existing []string, rawText string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := make([]string, 0, len(existing))
	for _, loc := range existing {
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

// MoveLocation removes the entry at from and reinserts it at to
func MoveLocation(list []string, from, to int) ([]string, error) {
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return list, ErrIndexOutOfRange
	}
	out := cloneStrings(list)
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]string{item}, out[to:]...)...)
	return out, nil
}

// RemoveLocation drops the entry at index
func RemoveLocation(list []string, index int) ([]string, error) {
	if index < 0 || index >= len(list) {
		return list, ErrIndexOutOfRange
	}
	out := cloneStrings(list)
	return append(out[:index], out[index+1:]...), nil
}
