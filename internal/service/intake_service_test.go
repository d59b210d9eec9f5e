package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"ubio-intake/internal/domain"
	"ubio-intake/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newIntake(remote service.RemoteRecords) service.IntakeService {
	p, _ := newPersistence(remote)
	return service.NewIntakeService(p, time.UTC, nil, zap.NewNop())
}

func TestSubmit_ValidationListsMissingFields(t *testing.T) {
	svc := newIntake(newFakeRemote())

	_, err := svc.Submit(context.Background(), service.SubmitRequest{Record: domain.Record{Name: "  ", Height: "170"}})
	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"name", "residentNumber", "weight"}, ve.Fields)
}

func TestSubmit_NormalizesAndSaves(t *testing.T) {
	remote := newFakeRemote()
	svc := newIntake(remote)

	resp, err := svc.Submit(context.Background(), service.SubmitRequest{Record: domain.Record{
		ID:             "client-chosen",
		Name:           " Kim ",
		ResidentNumber: "9502022345678",
		Phone:          "01012345678",
		Height:         "160",
		Weight:         "50",
		Pulse:          "64",
	}})
	require.NoError(t, err)
	assert.True(t, resp.Saved)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, "remote-1", resp.Record.ID)
	assert.Equal(t, "Kim", resp.Record.Name)
	assert.Equal(t, "950202-2345678", resp.Record.ResidentNumber)
	assert.Equal(t, "010-1234-5678", resp.Record.Phone)
	assert.Equal(t, "female", resp.Record.Gender)
	assert.Equal(t, "19.5", resp.Record.BMI)
	assert.Equal(t, "64", resp.Record.HeartRate)
}

func TestSubmit_RemoteDownStillReturnsRecord(t *testing.T) {
	remote := newFakeRemote()
	remote.setDown(true)
	svc := newIntake(remote)

	resp, err := svc.Submit(context.Background(), service.SubmitRequest{Record: domain.Record{
		Name: "Kim", ResidentNumber: "900101-1234567", Height: "170", Weight: "65",
	}})
	require.NoError(t, err)
	assert.False(t, resp.Saved)
	assert.NotEmpty(t, resp.Warning)
	assert.NotEmpty(t, resp.Record.ID)
}

func TestDerive(t *testing.T) {
	svc := newIntake(newFakeRemote())
	got := svc.Derive(service.DeriveRequest{
		ResidentNumber: "900101-1",
		Height:         "170",
		Weight:         "65",
		Waveform:       domain.Waveform{AEms: "10"},
	})
	assert.Equal(t, "male", got.Gender)
	assert.Equal(t, "22.5", got.BMI)
	assert.Equal(t, "4.00", got.PVC)
	assert.Equal(t, "0.00", got.BV)
	assert.Equal(t, "3.50", got.SV)
}

func waveformWorkbook(t *testing.T) *bytes.Buffer {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, 17)
	for i := range header {
		header[i] = "col"
	}
	rows := [][]interface{}{
		header,
		{"Lee", "", "", "", "", "2024-01-01", "", "", "", "100", "200", "300", "400", "0.1", "0.2", "0.3", "0.4"},
		{"Lee", "", "", "", "", "2024-03-01", "", "", "", "110", "210", "310", "10", "0.5", "0.6", "0.7", "0.8"},
		{"Lee", "", "", "", "", "garbage", "", "", "", "999"},
		{"Kim", "", "", "", "", "2024-05-01", "", "", "", "", "", "", "", "", "", "", ""},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestImportWaveform_LatestRowForName(t *testing.T) {
	svc := newIntake(newFakeRemote())

	resp, err := svc.ImportWaveform(context.Background(), service.ImportWaveformRequest{
		Name: "Lee",
		File: waveformWorkbook(t),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.RowIndex)
	assert.Equal(t, "110", resp.Waveform.ABms)
	assert.Equal(t, "0.8", resp.Waveform.EARatio)
	assert.Equal(t, "2024-03-01T00:00:00Z", resp.RowDate)
	// 0.35*0.5 + 0.25*0.7 + 0.4*10
	assert.Equal(t, "4.35", resp.PVC)
}

func TestImportWaveform_Errors(t *testing.T) {
	svc := newIntake(newFakeRemote())
	ctx := context.Background()

	_, err := svc.ImportWaveform(ctx, service.ImportWaveformRequest{Name: "", File: waveformWorkbook(t)})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.ImportWaveform(ctx, service.ImportWaveformRequest{Name: "Park", File: waveformWorkbook(t)})
	assert.ErrorIs(t, err, domain.ErrNoMatchingRecord)

	_, err = svc.ImportWaveform(ctx, service.ImportWaveformRequest{Name: "Kim", File: waveformWorkbook(t)})
	assert.ErrorIs(t, err, domain.ErrNoWaveformData)

	_, err = svc.ImportWaveform(ctx, service.ImportWaveformRequest{Name: "Lee", File: bytes.NewBufferString("not a workbook")})
	assert.ErrorIs(t, err, domain.ErrInvalidSheet)
}
