package domain

import (
	"strings"
	"time"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Record one patient measurement entry.
// Numeric measurements are kept as entered text; bmi/pvc/bv/sv are cached
// projections of their inputs and are recomputed before every write.
type Record struct {
	ID string `json:"id"`

	Name           string `json:"name"`
	Phone          string `json:"phone,omitempty"`
	ResidentNumber string `json:"residentNumber"`
	Gender         string `json:"gender"`
	Height         string `json:"height"`
	Weight         string `json:"weight"`
	BMI            string `json:"bmi"`

	Pulse       string `json:"pulse"`
	HeartRate   string `json:"heartRate,omitempty"`
	SystolicBP  string `json:"systolicBP"`
	DiastolicBP string `json:"diastolicBP"`

	Waveform

	PVC string `json:"pvc"`
	BV  string `json:"bv"`
	SV  string `json:"sv"`

	Personality      string   `json:"personality"`
	Stress           string   `json:"stress"`
	WorkIntensity    string   `json:"workIntensity"`
	Medication       string   `json:"medication"`
	Preference       string   `json:"preference"`
	SelectedSymptoms []string `json:"selectedSymptoms"`
	Memo             string   `json:"memo"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Waveform the four interval and four ratio inputs of the pulse waveform
type Waveform struct {
	ABms    string `json:"ab_ms"`
	ACms    string `json:"ac_ms"`
	ADms    string `json:"ad_ms"`
	AEms    string `json:"ae_ms"`
	BARatio string `json:"ba_ratio"`
	CARatio string `json:"ca_ratio"`
	DARatio string `json:"da_ratio"`
	EARatio string `json:"ea_ratio"`
}

// Values returns the eight inputs in spreadsheet column order (ab..ae, b/a..e/a)
func (w Waveform) Values() []string {
	return []string{w.ABms, w.ACms, w.ADms, w.AEms, w.BARatio, w.CARatio, w.DARatio, w.EARatio}
}

// IsEmpty reports whether no waveform input is set
func (w Waveform) IsEmpty() bool {
	for _, v := range w.Values() {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// timestampLayouts accepted for createdAt / updatedAt
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
}

// ParseTimestamp parses a stored timestamp string in loc (nil = time.Local)
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CreatedTime parses CreatedAt
func (r *Record) CreatedTime(loc *time.Location) (time.Time, bool) {
	return ParseTimestamp(r.CreatedAt, loc)
}

// LastModified returns UpdatedAt if parseable, else CreatedAt
func (r *Record) LastModified(loc *time.Location) (time.Time, bool) {
	if t, ok := ParseTimestamp(r.UpdatedAt, loc); ok {
		return t, true
	}
	return r.CreatedTime(loc)
}

// FormatTimestamp canonical timestamp text written by this system
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
