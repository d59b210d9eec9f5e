package vitals

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"ubio-intake/internal/domain"
)

// leading decimal prefix, e.g. "12.5ms" -> 12.5
var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber parses the leading decimal number of s.
// ok=false when s has no numeric prefix.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v, true
	}
	m := numberPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// orZero missing or non-numeric input counts as 0
func orZero(s string) float64 {
	v, _ := ParseNumber(s)
	return v
}

func fixed(v float64, prec int) string {
	if v == 0 {
		v = 0 // -0 -> 0
	}
	out := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.HasPrefix(out, "-") && strings.Trim(out, "-0.") == "" {
		out = out[1:]
	}
	return out
}

// BMI weight(kg) / height(m)^2 with one decimal.
// Undefined unless both inputs are numeric and height > 0.
func BMI(height, weight string) (string, bool) {
	h, ok := ParseNumber(height)
	if !ok || h <= 0 {
		return "", false
	}
	w, ok := ParseNumber(weight)
	if !ok {
		return "", false
	}
	m := h / 100
	return fixed(w/(m*m), 1), true
}

// PVC peripheral vascular contraction index
func PVC(w domain.Waveform) string {
	ba := orZero(w.BARatio)
	da := orZero(w.DARatio)
	ae := orZero(w.AEms)
	return fixed(0.35*math.Abs(ba)+0.25*math.Abs(da)+0.4*ae, 2)
}

// BV blood viscosity index; the |ac-ad| term is 0 unless both intervals are numeric
func BV(w domain.Waveform) string {
	ca := orZero(w.CARatio)
	cd := 0.0
	ac, okAC := ParseNumber(w.ACms)
	ad, okAD := ParseNumber(w.ADms)
	if okAC && okAD {
		cd = math.Abs(ac - ad)
	}
	return fixed(0.6*math.Abs(ca)+0.4*cd, 2)
}

// SV stroke volume index
func SV(w domain.Waveform) string {
	da := orZero(w.DARatio)
	ae := orZero(w.AEms)
	return fixed(0.65*math.Abs(da)+0.35*math.Abs(ae), 2)
}

// Derived the cached projections of one record
type Derived struct {
	Gender string `json:"gender"`
	BMI    string `json:"bmi"`
	PVC    string `json:"pvc"`
	BV     string `json:"bv"`
	SV     string `json:"sv"`
}

// Compute derives gender/bmi/pvc/bv/sv from the record inputs without mutating it
func Compute(r *domain.Record) Derived {
	d := Derived{
		Gender: Gender(r.ResidentNumber),
		PVC:    PVC(r.Waveform),
		BV:     BV(r.Waveform),
		SV:     SV(r.Waveform),
	}
	d.BMI, _ = BMI(r.Height, r.Weight)
	return d
}

// Recompute refreshes every cached projection from the current inputs.
// Called before each persistence write; stored derived values are never trusted.
func Recompute(r *domain.Record) {
	d := Compute(r)
	if d.Gender != "" {
		r.Gender = d.Gender
	}
	r.BMI = d.BMI
	r.PVC = d.PVC
	r.BV = d.BV
	r.SV = d.SV
	if strings.TrimSpace(r.Pulse) != "" {
		r.HeartRate = r.Pulse
	}
}
