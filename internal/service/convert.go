package service

import (
	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/models"

	"gorm.io/datatypes"
)

func sampleInfoFromModel(m *models.Sample) intake.SampleInfo {
	return intake.SampleInfo{
		DateReceived: m.DateReceived,
		Company:      m.Company,
		Farm:         m.Farm,
		Cycle:        m.Cycle,
		Flock:        m.Flock,
		Status:       m.Status,
	}
}

func applySampleInfo(m *models.Sample, info intake.SampleInfo) {
	m.DateReceived = info.DateReceived
	m.Company = info.Company
	m.Farm = info.Farm
	m.Cycle = info.Cycle
	m.Flock = info.Flock
	m.Status = info.Status
	if m.Status == "" {
		m.Status = "pending"
	}
}

// unitFromModel converts a stored unit into the form representation
func unitFromModel(m *models.Unit) intake.Unit {
	id := m.ID
	u := intake.Unit{
		ID:            &id,
		UnitCode:      m.UnitCode,
		DepartmentID:  m.DepartmentID,
		House:         []string(m.House),
		Age:           m.Age,
		Source:        []string(m.Source),
		SampleType:    []string(m.SampleType),
		SamplesNumber: m.SamplesNumber,
		Notes:         m.Notes,
	}
	switch {
	case m.PCRData != nil:
		u.Data = &intake.PCRData{
			DiseasesList:     []intake.DiseaseKitItem(m.PCRData.DiseasesList),
			TechnicianName:   m.PCRData.TechnicianName,
			ExtractionMethod: m.PCRData.ExtractionMethod,
			Extraction:       m.PCRData.Extraction,
			Detection:        m.PCRData.Detection,
		}
	case m.SerologyData != nil:
		u.Data = &intake.SerologyData{
			DiseasesList:   []intake.DiseaseKitItem(m.SerologyData.DiseasesList),
			NumberOfWells:  m.SerologyData.NumberOfWells,
			TechnicianName: m.SerologyData.TechnicianName,
			TestsCount:     m.SerologyData.TestsCount,
		}
	case m.MicrobiologyData != nil:
		u.Data = &intake.MicrobiologyData{
			DiseasesList:   []string(m.MicrobiologyData.DiseasesList),
			BatchNo:        m.MicrobiologyData.BatchNo,
			Fumigation:     intake.Fumigation(m.MicrobiologyData.Fumigation),
			IndexList:      []string(m.MicrobiologyData.IndexList),
			TechnicianName: m.MicrobiologyData.TechnicianName,
		}
	}
	return u.Clone()
}

// applyUnit copies the form fields of u onto m. Only the block matching
// u's payload is kept; the ids of an existing block are preserved.
func applyUnit(m *models.Unit, u intake.Unit) {
	m.DepartmentID = u.DepartmentID
	m.House = datatypes.NewJSONSlice(nonNil(u.House))
	m.Age = u.Age
	m.Source = datatypes.NewJSONSlice(nonNil(u.Source))
	m.SampleType = datatypes.NewJSONSlice(nonNil(u.SampleType))
	m.SamplesNumber = u.SamplesNumber
	m.Notes = u.Notes

	switch d := u.Data.(type) {
	case *intake.PCRData:
		block := m.PCRData
		if block == nil {
			block = &models.PCRData{}
		}
		block.DiseasesList = datatypes.NewJSONSlice(nonNil(d.DiseasesList))
		block.TechnicianName = d.TechnicianName
		block.ExtractionMethod = d.ExtractionMethod
		block.Extraction = d.Extraction
		block.Detection = d.Detection
		m.PCRData, m.SerologyData, m.MicrobiologyData = block, nil, nil
	case *intake.SerologyData:
		block := m.SerologyData
		if block == nil {
			block = &models.SerologyData{}
		}
		block.DiseasesList = datatypes.NewJSONSlice(nonNil(d.DiseasesList))
		block.NumberOfWells = d.NumberOfWells
		block.TechnicianName = d.TechnicianName
		block.TestsCount = d.TestsCount
		m.PCRData, m.SerologyData, m.MicrobiologyData = nil, block, nil
	case *intake.MicrobiologyData:
		block := m.MicrobiologyData
		if block == nil {
			block = &models.MicrobiologyData{}
		}
		block.DiseasesList = datatypes.NewJSONSlice(nonNil(d.DiseasesList))
		block.BatchNo = d.BatchNo
		block.Fumigation = string(d.Fumigation)
		block.IndexList = datatypes.NewJSONSlice(nonNil(d.IndexList))
		block.TechnicianName = d.TechnicianName
		m.PCRData, m.SerologyData, m.MicrobiologyData = nil, nil, block
	default:
		m.PCRData, m.SerologyData, m.MicrobiologyData = nil, nil, nil
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
