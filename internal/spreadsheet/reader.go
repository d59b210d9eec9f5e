package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"ubio-intake/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ReadRows returns every row of the first sheet as text cells, blank rows
// included, so rows[i] is sheet row i+1. Raw cell values are kept, so date
// cells surface as serial numbers.
func ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse workbook: %v", domain.ErrInvalidSheet, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrInvalidSheet)
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
