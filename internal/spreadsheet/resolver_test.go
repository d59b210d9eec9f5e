package spreadsheet_test

import (
	"testing"
	"time"

	"ubio-intake/internal/domain"
	"ubio-intake/internal/spreadsheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header() []string {
	h := make([]string, 17)
	h[0] = "name"
	h[5] = "date"
	return h
}

func row(name, date string, waveform ...string) []string {
	r := make([]string, 9, 17)
	r[0] = name
	r[5] = date
	return append(r, waveform...)
}

func TestLatestRow_PicksMostRecentAndSkipsBadDates(t *testing.T) {
	rows := [][]string{
		header(),
		row("Lee", "2024-01-01", "1"),
		row("Kim", "2024-05-01", "2"),
		row(" Lee ", "2024-03-01", "3"),
		row("Lee", "not a date", "4"),
	}

	m, err := spreadsheet.LatestRow(rows, "Lee", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Index)
	assert.Equal(t, "3", m.Row[9])
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), m.Date)
}

func TestLatestRow_CaseSensitiveAndHeaderIgnored(t *testing.T) {
	rows := [][]string{
		row("lee", "2024-01-01"),
		row("LEE", "2024-01-01"),
	}
	_, err := spreadsheet.LatestRow(rows, "lee", time.UTC)
	assert.ErrorIs(t, err, domain.ErrNoMatchingRecord)
}

func TestLatestRow_NoValidDate(t *testing.T) {
	rows := [][]string{header(), row("Lee", ""), row("Lee", "yesterday")}
	_, err := spreadsheet.LatestRow(rows, "Lee", time.UTC)
	assert.ErrorIs(t, err, domain.ErrNoValidDate)
}

func TestLatestRow_SerialAndTextDatesCompare(t *testing.T) {
	rows := [][]string{
		header(),
		row("Park", "45000"),      // 2023-03-15
		row("Park", "2023-06-01"), // later
		row("Park", "44000.5"),
	}
	m, err := spreadsheet.LatestRow(rows, "Park", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Index)
}

func TestSerialToTime(t *testing.T) {
	assert.Equal(t, time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC), spreadsheet.SerialToTime(1))
	assert.Equal(t, time.Date(1899, 12, 31, 12, 0, 0, 0, time.UTC), spreadsheet.SerialToTime(2.5))
	// flat day arithmetic, one day behind the calendar most spreadsheet apps display
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), spreadsheet.SerialToTime(45352))
}

func TestParseDateCell(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)

	got, ok := spreadsheet.ParseDateCell("2024/03/01 09:30", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, loc), got)

	_, ok = spreadsheet.ParseDateCell("  ", loc)
	assert.False(t, ok)
	_, ok = spreadsheet.ParseDateCell("NaN", loc)
	assert.False(t, ok)
}

func TestValidateSheet(t *testing.T) {
	assert.ErrorIs(t, spreadsheet.ValidateSheet([][]string{header()}), domain.ErrInvalidSheet)
	assert.ErrorIs(t, spreadsheet.ValidateSheet([][]string{{"name"}, row("Lee", "2024-01-01", "1")}), domain.ErrInvalidSheet)
	assert.ErrorIs(t, spreadsheet.ValidateSheet([][]string{header(), row("Lee", "2024-01-01")}), domain.ErrInvalidSheet)
	assert.NoError(t, spreadsheet.ValidateSheet([][]string{header(), row("Lee", "2024-01-01", "", "12")}))
}

func TestMapWaveform(t *testing.T) {
	w, err := spreadsheet.MapWaveform(row("Lee", "", " 120 ", "250", "310", "400", "-0.8", "-0.3", "0.2", "-0.1"))
	require.NoError(t, err)
	assert.Equal(t, domain.Waveform{
		ABms: "120", ACms: "250", ADms: "310", AEms: "400",
		BARatio: "-0.8", CARatio: "-0.3", DARatio: "0.2", EARatio: "-0.1",
	}, w)

	_, err = spreadsheet.MapWaveform(row("Lee", "", "-", "n/a"))
	assert.ErrorIs(t, err, domain.ErrNoWaveformData)
}
