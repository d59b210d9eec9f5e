package tableview

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ubio-intake/internal/domain"
	"ubio-intake/internal/vitals"
)

const (
	// InitialWindow rows revealed before any scrolling
	InitialWindow = 50
	// WindowStep rows added per near-bottom scroll
	WindowStep = 50
	// NearBottom distance from the bottom, in layout units, that triggers growth
	NearBottom = 200
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortConfig single sort key and its direction
type SortConfig struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// DefaultSort newest first
var DefaultSort = SortConfig{Key: "createdAt", Direction: Desc}

// Filters every non-empty filter must pass
type Filters struct {
	StartDate            string `json:"startDate"`
	EndDate              string `json:"endDate"`
	Name                 string `json:"name"`
	ResidentNumberPrefix string `json:"residentNumberPrefix"`
}

// ScrollEvent geometry of the scrolled table body
type ScrollEvent struct {
	ScrollTop    float64 `json:"scrollTop"`
	ScrollHeight float64 `json:"scrollHeight"`
	ClientHeight float64 `json:"clientHeight"`
}

// IsNearBottom reports whether the viewport is within NearBottom of the end
func (e ScrollEvent) IsNearBottom() bool {
	return e.ScrollHeight-e.ScrollTop-e.ClientHeight < NearBottom
}

type keyKind int

const (
	kindText keyKind = iota
	kindNumber
	kindTime
)

type sortKey struct {
	kind keyKind
	get  func(r *domain.Record) string
}

// sortKeys sortable columns by JSON field name
var sortKeys = map[string]sortKey{
	"name":             {kindText, func(r *domain.Record) string { return r.Name }},
	"phone":            {kindText, func(r *domain.Record) string { return r.Phone }},
	"residentNumber":   {kindText, func(r *domain.Record) string { return r.ResidentNumber }},
	"gender":           {kindText, func(r *domain.Record) string { return r.Gender }},
	"height":           {kindNumber, func(r *domain.Record) string { return r.Height }},
	"weight":           {kindNumber, func(r *domain.Record) string { return r.Weight }},
	"bmi":              {kindNumber, func(r *domain.Record) string { return r.BMI }},
	"pulse":            {kindNumber, func(r *domain.Record) string { return r.Pulse }},
	"systolicBP":       {kindNumber, func(r *domain.Record) string { return r.SystolicBP }},
	"diastolicBP":      {kindNumber, func(r *domain.Record) string { return r.DiastolicBP }},
	"heartRate":        {kindText, func(r *domain.Record) string { return r.HeartRate }},
	"pvc":              {kindText, func(r *domain.Record) string { return r.PVC }},
	"bv":               {kindText, func(r *domain.Record) string { return r.BV }},
	"sv":               {kindText, func(r *domain.Record) string { return r.SV }},
	"personality":      {kindText, func(r *domain.Record) string { return r.Personality }},
	"stress":           {kindText, func(r *domain.Record) string { return r.Stress }},
	"workIntensity":    {kindText, func(r *domain.Record) string { return r.WorkIntensity }},
	"medication":       {kindText, func(r *domain.Record) string { return r.Medication }},
	"preference":       {kindText, func(r *domain.Record) string { return r.Preference }},
	"selectedSymptoms": {kindText, func(r *domain.Record) string { return strings.Join(r.SelectedSymptoms, ", ") }},
	"memo":             {kindText, func(r *domain.Record) string { return r.Memo }},
	"createdAt":        {kindTime, func(r *domain.Record) string { return r.CreatedAt }},
	"updatedAt":        {kindTime, func(r *domain.Record) string { return r.UpdatedAt }},
}

// IsSortKey reports whether key names a sortable column
func IsSortKey(key string) bool {
	_, ok := sortKeys[key]
	return ok
}

// ToggleSort selecting the current key flips asc to desc and anything else
// to asc; a new key starts ascending.
func ToggleSort(cur SortConfig, key string) (SortConfig, error) {
	if !IsSortKey(key) {
		return cur, fmt.Errorf("%w: %q", domain.ErrUnknownSortKey, key)
	}
	if cur.Key == key && cur.Direction == Asc {
		return SortConfig{Key: key, Direction: Desc}, nil
	}
	return SortConfig{Key: key, Direction: Asc}, nil
}

// dayRange resolves the date filter; ok=false when it is inactive or unparseable
func dayRange(f Filters, loc *time.Location) (start, end time.Time, ok bool) {
	if strings.TrimSpace(f.StartDate) == "" || strings.TrimSpace(f.EndDate) == "" {
		return start, end, false
	}
	start, okStart := domain.ParseTimestamp(f.StartDate, loc)
	endDay, okEnd := domain.ParseTimestamp(f.EndDate, loc)
	if !okStart || !okEnd {
		return start, end, false
	}
	end = time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, 0, endDay.Location())
	return start, end, true
}

// ApplyFilter keeps records passing every active filter, order preserved.
// The date range is active only when both bounds are set. Name and
// resident-number filters do not apply to records lacking that field.
func ApplyFilter(records []domain.Record, f Filters, loc *time.Location) []domain.Record {
	start, end, dated := dayRange(f, loc)
	name := strings.ToLower(strings.TrimSpace(f.Name))
	prefix := strings.TrimSpace(f.ResidentNumberPrefix)

	out := make([]domain.Record, 0, len(records))
	for i := range records {
		r := &records[i]
		if dated {
			t, ok := r.CreatedTime(loc)
			if !ok || t.Before(start) || t.After(end) {
				continue
			}
		}
		if name != "" && r.Name != "" {
			if !strings.Contains(strings.ToLower(strings.TrimSpace(r.Name)), name) {
				continue
			}
		}
		if prefix != "" && r.ResidentNumber != "" {
			if !strings.HasPrefix(r.ResidentNumber, prefix) {
				continue
			}
		}
		out = append(out, *r)
	}
	return out
}

// ApplySort returns a sorted copy. Empty (or, for timestamps, unparseable)
// values sort last in both directions; the sort is stable.
func ApplySort(records []domain.Record, cfg SortConfig, loc *time.Location) ([]domain.Record, error) {
	out := append([]domain.Record(nil), records...)
	if cfg.Key == "" {
		return out, nil
	}
	k, ok := sortKeys[cfg.Key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSortKey, cfg.Key)
	}

	type keyed struct {
		missing bool
		num     float64
		text    string
		rec     domain.Record
	}
	items := make([]keyed, len(out))
	for i := range out {
		raw := k.get(&out[i])
		it := keyed{rec: out[i], missing: strings.TrimSpace(raw) == ""}
		switch k.kind {
		case kindNumber:
			it.num, _ = vitals.ParseNumber(raw)
		case kindTime:
			t, ok := domain.ParseTimestamp(raw, loc)
			if ok {
				it.num = float64(t.UnixNano())
			} else {
				it.missing = true
			}
		default:
			it.text = raw
		}
		items[i] = it
	}

	less := func(a, b *keyed) bool {
		if k.kind == kindText {
			return a.text < b.text
		}
		return a.num < b.num
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if a.missing || b.missing {
			return !a.missing && b.missing
		}
		if cfg.Direction == Desc {
			return less(b, a)
		}
		return less(a, b)
	})

	for i := range items {
		out[i] = items[i].rec
	}
	return out, nil
}

// Grow extends the window end by WindowStep, capped at total, never shrinking
func Grow(end, total int) int {
	next := end + WindowStep
	if next > total {
		next = total
	}
	if next < end {
		return end
	}
	return next
}

// Window visible prefix [0, end) of rows
func Window(rows []domain.Record, end int) []domain.Record {
	if end > len(rows) {
		end = len(rows)
	}
	if end < 0 {
		end = 0
	}
	return rows[:end]
}
