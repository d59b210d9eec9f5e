package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"ubio-intake/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"

	exportSheet  = "UserInfo"
	exportPrefix = "user-info"
)

// utf8BOM lets spreadsheet apps detect UTF-8 in the csv export
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileName user-info-YYYY-MM-DD.<format>
func FileName(format string, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", exportPrefix, now.Format("2006-01-02"), format)
}

// ContentType MIME type of an export format
func ContentType(format string) string {
	if format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// WriteXLSX writes records to w as a workbook with a single UserInfo sheet
func WriteXLSX(w io.Writer, records []domain.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSheetRow(f, 1, Headers()); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(exportColumns), 1)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	for i, c := range exportColumns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(exportSheet, col, col, c.Width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i := range records {
		// row 1 is the header
		if err := writeSheetRow(f, i+2, ToRow(&records[i])); err != nil {
			return err
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, row int, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, start, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// WriteCSV writes the same projection as WriteXLSX in comma separated form
func WriteCSV(w io.Writer, records []domain.Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range records {
		if err := cw.Write(ToRow(&records[i])); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write dispatches on format (xlsx or csv)
func Write(w io.Writer, format string, records []domain.Record) error {
	switch format {
	case FormatXLSX, "":
		return WriteXLSX(w, records)
	case FormatCSV:
		return WriteCSV(w, records)
	}
	return fmt.Errorf("unsupported export format %q", format)
}
