package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"ubio-intake/internal/domain"
)

// ReadRecords reverses the export projection: the first sheet's header row
// names the columns, each further row becomes one record. Unknown headers are
// ignored; ids are not part of the projection and stay empty.
func ReadRecords(r io.Reader) ([]domain.Record, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	for len(rows) > 0 && isBlankRow(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", domain.ErrInvalidSheet)
	}

	byHeader := make(map[string]column, len(exportColumns))
	for _, c := range exportColumns {
		byHeader[c.Header] = c
	}

	mapped := make([]*column, len(rows[0]))
	known := 0
	for i, h := range rows[0] {
		if c, ok := byHeader[strings.TrimSpace(h)]; ok {
			c := c
			mapped[i] = &c
			known++
		}
	}
	if known == 0 {
		return nil, fmt.Errorf("%w: no recognised column headers", domain.ErrInvalidSheet)
	}

	records := make([]domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		var rec domain.Record
		for i, c := range mapped {
			if c == nil {
				continue
			}
			c.set(&rec, cell(row, i))
		}
		records = append(records, rec)
	}
	return records, nil
}
