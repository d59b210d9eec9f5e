package spreadsheet_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"ubio-intake/internal/domain"
	"ubio-intake/internal/spreadsheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRecords() []domain.Record {
	return []domain.Record{
		{
			Name: "Kim Lee", Phone: "010-1234-5678", ResidentNumber: "900101-1234567", Gender: "male",
			Height: "170", Weight: "65", BMI: "22.5", Pulse: "72", HeartRate: "72",
			SystolicBP: "120", DiastolicBP: "80",
			Waveform: domain.Waveform{
				ABms: "120", ACms: "250", ADms: "310", AEms: "400",
				BARatio: "-0.8", CARatio: "-0.3", DARatio: "0.2", EARatio: "-0.1",
			},
			PVC: "160.33", BV: "24.18", SV: "140.13",
			Personality: "calm", Stress: "high", WorkIntensity: "medium",
			Medication: "none", Preference: "coffee",
			SelectedSymptoms: []string{"두통", "불면"},
			Memo:             "first visit",
			CreatedAt:        "2024-03-01T09:30:00Z",
		},
		{
			Name: "Anna", ResidentNumber: "950202-2345678", Gender: "female",
			Height: "160", Weight: "50", BMI: "19.5",
			PVC: "0.00", BV: "0.00", SV: "0.00",
			CreatedAt: "2024-03-02T10:00:00Z",
		},
	}
}

func TestXLSX_RoundTrip(t *testing.T) {
	in := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteXLSX(&buf, in))

	out, err := spreadsheet.ReadRecords(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestXLSX_SheetLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteXLSX(&buf, sampleRecords()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"UserInfo"}, f.GetSheetList())
	v, err := f.GetCellValue("UserInfo", "D2")
	require.NoError(t, err)
	assert.Equal(t, "남성", v)
	v, err = f.GetCellValue("UserInfo", "Z2")
	require.NoError(t, err)
	assert.Equal(t, "두통, 불면", v)
}

func TestCSV_Projection(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteCSV(&buf, sampleRecords()))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))

	rows, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, spreadsheet.Headers(), rows[0])
	assert.Equal(t, "여성", rows[2][3])
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "user-info-2024-03-05.xlsx", spreadsheet.FileName(spreadsheet.FormatXLSX, now))
	assert.Equal(t, "user-info-2024-03-05.csv", spreadsheet.FileName(spreadsheet.FormatCSV, now))
}

func TestGenderLabels(t *testing.T) {
	assert.Equal(t, "male", spreadsheet.GenderFromLabel(spreadsheet.GenderLabel("male")))
	assert.Equal(t, "female", spreadsheet.GenderFromLabel(spreadsheet.GenderLabel("female")))
	assert.Equal(t, "", spreadsheet.GenderLabel(""))
}

func TestReadRows_NumericDateCellIsSerial(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	hdr := make([]interface{}, 17)
	for i := range hdr {
		hdr[i] = "h"
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &hdr))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Lee", "", "", "", "", 45352, "", "", "", 120}))

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	rows, err := spreadsheet.ReadRows(&buf)
	require.NoError(t, err)
	require.NoError(t, spreadsheet.ValidateSheet(rows))

	m, err := spreadsheet.LatestRow(rows, "Lee", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "45352", m.Row[5])
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), m.Date)
}

func TestReadRows_BlankRowsKeepSheetIndex(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	hdr := make([]interface{}, 17)
	for i := range hdr {
		hdr[i] = "h"
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &hdr))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Kim", "", "", "", "", "2024-01-01", "", "", "", 90}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A5", &[]interface{}{"Lee", "", "", "", "", "2024-03-01", "", "", "", 120}))

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	rows, err := spreadsheet.ReadRows(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	require.NoError(t, spreadsheet.ValidateSheet(rows))

	m, err := spreadsheet.LatestRow(rows, "Lee", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Index)
	assert.Equal(t, "120", m.Row[9])
}

func TestReadRecords_SkipsBlankRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteXLSX(&buf, []domain.Record{{Name: "Kim"}, {Name: "Lee"}}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.InsertRows("UserInfo", 3, 2))

	var out bytes.Buffer
	_, err = f.WriteTo(&out)
	require.NoError(t, err)

	records, err := spreadsheet.ReadRecords(&out)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Kim", records[0].Name)
	assert.Equal(t, "Lee", records[1].Name)
}

func TestReadRecords_RejectsUnknownLayout(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"foo", "bar"}))

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	_, err = spreadsheet.ReadRecords(&buf)
	assert.ErrorIs(t, err, domain.ErrInvalidSheet)
}
