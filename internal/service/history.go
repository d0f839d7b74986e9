package service

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/models"
)

func sampleFields(s intake.SampleInfo) map[string]string {
	return map[string]string{
		"date_received": s.DateReceived,
		"company":       s.Company,
		"farm":          s.Farm,
		"cycle":         s.Cycle,
		"flock":         s.Flock,
		"status":        s.Status,
	}
}

func unitFields(u intake.Unit) map[string]string {
	fields := map[string]string{
		"house":          strings.Join(u.House, ", "),
		"age":            u.Age,
		"source":         strings.Join(u.Source, ", "),
		"sample_type":    strings.Join(u.SampleType, ", "),
		"samples_number": "",
		"notes":          u.Notes,
	}
	if u.SamplesNumber != nil {
		fields["samples_number"] = strconv.Itoa(*u.SamplesNumber)
	}
	if u.Data == nil {
		return fields
	}
	raw, err := json.Marshal(u.Data)
	if err != nil {
		return fields
	}
	var block map[string]json.RawMessage
	if err := json.Unmarshal(raw, &block); err != nil {
		return fields
	}
	for k, v := range block {
		fields[k] = displayValue(v)
	}
	return fields
}

func displayValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	if string(v) == "null" {
		return ""
	}
	return string(v)
}

// diffFields returns one history row per changed field, in field name order
func diffFields(before, after map[string]string, base models.EditHistory) []models.EditHistory {
	names := make([]string, 0, len(after))
	for name := range after {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []models.EditHistory
	for _, name := range names {
		if before[name] == after[name] {
			continue
		}
		row := base
		row.FieldName = name
		row.OldValue = before[name]
		row.NewValue = after[name]
		out = append(out, row)
	}
	return out
}
