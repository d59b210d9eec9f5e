package spreadsheet

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ubio-intake/internal/domain"
	"ubio-intake/internal/vitals"
)

const (
	colName = 0
	colDate = 5

	// waveform block, inclusive start / exclusive end
	colWaveformStart = 9
	colWaveformEnd   = 17
)

// Match one resolved spreadsheet row
type Match struct {
	Row  []string
	Date time.Time
	// Index zero-based sheet row when rows come from ReadRows (header = 0)
	Index int
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// LatestRow returns the most recent row whose name column equals name.
// Row 0 is the header. Names are compared trimmed and case-sensitive.
// Rows with an unusable date are skipped; only total exclusion fails.
func LatestRow(rows [][]string, name string, loc *time.Location) (*Match, error) {
	target := strings.TrimSpace(name)

	var named []Match
	for i := 1; i < len(rows); i++ {
		if strings.TrimSpace(cell(rows[i], colName)) == target {
			named = append(named, Match{Row: rows[i], Index: i})
		}
	}
	if len(named) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrNoMatchingRecord, target)
	}

	dated := named[:0]
	for _, m := range named {
		t, ok := ParseDateCell(cell(m.Row, colDate), loc)
		if !ok {
			continue
		}
		m.Date = t
		dated = append(dated, m)
	}
	if len(dated) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrNoValidDate, target)
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Date.After(dated[j].Date)
	})
	latest := dated[0]
	return &latest, nil
}

// ValidateSheet checks the sheet shape: a header of at least 17 columns and
// at least one data row that has a name, a date cell and any waveform value.
func ValidateSheet(rows [][]string) error {
	if len(rows) < 2 {
		return fmt.Errorf("%w: need a header and at least one data row", domain.ErrInvalidSheet)
	}
	if len(rows[0]) < colWaveformEnd {
		return fmt.Errorf("%w: header has %d columns, want at least %d", domain.ErrInvalidSheet, len(rows[0]), colWaveformEnd)
	}
	for _, row := range rows[1:] {
		if strings.TrimSpace(cell(row, colName)) == "" || colDate >= len(row) {
			continue
		}
		for i := colWaveformStart; i < colWaveformEnd; i++ {
			if strings.TrimSpace(cell(row, i)) != "" {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: no row has a name, a date and waveform values", domain.ErrInvalidSheet)
}

// MapWaveform reads columns 9..16 of row into waveform inputs.
// At least one of them must be numeric.
func MapWaveform(row []string) (domain.Waveform, error) {
	v := make([]string, 0, colWaveformEnd-colWaveformStart)
	for i := colWaveformStart; i < colWaveformEnd; i++ {
		v = append(v, strings.TrimSpace(cell(row, i)))
	}
	w := domain.Waveform{
		ABms: v[0], ACms: v[1], ADms: v[2], AEms: v[3],
		BARatio: v[4], CARatio: v[5], DARatio: v[6], EARatio: v[7],
	}
	for _, s := range v {
		if _, ok := vitals.ParseNumber(s); ok {
			return w, nil
		}
	}
	return domain.Waveform{}, domain.ErrNoWaveformData
}
