package spreadsheet

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// excelEpoch day 1 of the serial date system.
// Serial n is n-1 flat 24h days after this instant; no 1900 leap-day correction.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// calendarLayouts textual date forms accepted in the date column
var calendarLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"2006.01.02",
	"2006. 1. 2. 15:04:05",
	"2006. 1. 2.",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006",
	"1/2/06 15:04",
	"1/2/06",
	"01-02-06",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// SerialToTime converts a spreadsheet serial day count to a UTC instant
func SerialToTime(serial float64) time.Time {
	ms := math.Round((serial - 1) * 24 * float64(time.Hour/time.Millisecond))
	return excelEpoch.Add(time.Duration(ms) * time.Millisecond)
}

// ParseDateCell parses a date column cell.
// Numeric text is a serial day count; anything else must match a calendar
// layout (interpreted in loc). ok=false means the cell carries no usable date.
func ParseDateCell(cell string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return time.Time{}, false
		}
		return SerialToTime(n), true
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range calendarLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
