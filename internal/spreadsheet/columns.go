package spreadsheet

import (
	"strings"

	"ubio-intake/internal/domain"
)

const (
	genderLabelMale   = "남성"
	genderLabelFemale = "여성"

	symptomSeparator = ", "
)

// column one exported field: header label, width and the record accessors
type column struct {
	Header string
	Width  float64
	get    func(r *domain.Record) string
	set    func(r *domain.Record, v string)
}

func textColumn(header string, width float64, field func(r *domain.Record) *string) column {
	return column{
		Header: header,
		Width:  width,
		get:    func(r *domain.Record) string { return *field(r) },
		set:    func(r *domain.Record, v string) { *field(r) = v },
	}
}

// exportColumns Korean-labelled projection, in sheet order
var exportColumns = []column{
	textColumn("이름", 12, func(r *domain.Record) *string { return &r.Name }),
	textColumn("연락처", 16, func(r *domain.Record) *string { return &r.Phone }),
	textColumn("주민등록번호", 18, func(r *domain.Record) *string { return &r.ResidentNumber }),
	{
		Header: "성별",
		Width:  8,
		get:    func(r *domain.Record) string { return GenderLabel(r.Gender) },
		set:    func(r *domain.Record, v string) { r.Gender = GenderFromLabel(v) },
	},
	textColumn("키", 8, func(r *domain.Record) *string { return &r.Height }),
	textColumn("체중", 8, func(r *domain.Record) *string { return &r.Weight }),
	textColumn("BMI", 8, func(r *domain.Record) *string { return &r.BMI }),
	textColumn("맥박", 8, func(r *domain.Record) *string { return &r.Pulse }),
	textColumn("수축기혈압", 12, func(r *domain.Record) *string { return &r.SystolicBP }),
	textColumn("이완기혈압", 12, func(r *domain.Record) *string { return &r.DiastolicBP }),
	textColumn("a-b(ms)", 10, func(r *domain.Record) *string { return &r.ABms }),
	textColumn("a-c(ms)", 10, func(r *domain.Record) *string { return &r.ACms }),
	textColumn("a-d(ms)", 10, func(r *domain.Record) *string { return &r.ADms }),
	textColumn("a-e(ms)", 10, func(r *domain.Record) *string { return &r.AEms }),
	textColumn("b/a", 8, func(r *domain.Record) *string { return &r.BARatio }),
	textColumn("c/a", 8, func(r *domain.Record) *string { return &r.CARatio }),
	textColumn("d/a", 8, func(r *domain.Record) *string { return &r.DARatio }),
	textColumn("e/a", 8, func(r *domain.Record) *string { return &r.EARatio }),
	textColumn("PVC", 8, func(r *domain.Record) *string { return &r.PVC }),
	textColumn("BV", 8, func(r *domain.Record) *string { return &r.BV }),
	textColumn("SV", 8, func(r *domain.Record) *string { return &r.SV }),
	textColumn("HR", 8, func(r *domain.Record) *string { return &r.HeartRate }),
	textColumn("성격", 12, func(r *domain.Record) *string { return &r.Personality }),
	textColumn("스트레스", 12, func(r *domain.Record) *string { return &r.Stress }),
	textColumn("업무강도", 12, func(r *domain.Record) *string { return &r.WorkIntensity }),
	{
		Header: "증상",
		Width:  30,
		get:    func(r *domain.Record) string { return strings.Join(r.SelectedSymptoms, symptomSeparator) },
		set: func(r *domain.Record, v string) {
			if v == "" {
				r.SelectedSymptoms = nil
				return
			}
			r.SelectedSymptoms = strings.Split(v, symptomSeparator)
		},
	},
	textColumn("복용약물", 16, func(r *domain.Record) *string { return &r.Medication }),
	textColumn("기호식품", 16, func(r *domain.Record) *string { return &r.Preference }),
	textColumn("메모", 30, func(r *domain.Record) *string { return &r.Memo }),
	textColumn("등록일시", 24, func(r *domain.Record) *string { return &r.CreatedAt }),
}

// Headers export header row
func Headers() []string {
	out := make([]string, len(exportColumns))
	for i, c := range exportColumns {
		out[i] = c.Header
	}
	return out
}

// ToRow projects a record onto the export columns
func ToRow(r *domain.Record) []string {
	out := make([]string, len(exportColumns))
	for i, c := range exportColumns {
		out[i] = c.get(r)
	}
	return out
}

// GenderLabel male -> 남성, female -> 여성, anything else -> ""
func GenderLabel(g string) string {
	switch g {
	case domain.GenderMale:
		return genderLabelMale
	case domain.GenderFemale:
		return genderLabelFemale
	}
	return ""
}

// GenderFromLabel inverse of GenderLabel
func GenderFromLabel(label string) string {
	switch strings.TrimSpace(label) {
	case genderLabelMale:
		return domain.GenderMale
	case genderLabelFemale:
		return domain.GenderFemale
	}
	return ""
}
