package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ubio-intake/internal/domain"
	"ubio-intake/internal/metrics"
	"ubio-intake/internal/spreadsheet"
	"ubio-intake/internal/vitals"

	"go.uber.org/zap"
)

// IntakeService form submission and spreadsheet-assisted waveform entry
type IntakeService interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)
	Derive(req DeriveRequest) *DeriveResponse
	ImportWaveform(ctx context.Context, req ImportWaveformRequest) (*ImportWaveformResponse, error)
}

type intakeService struct {
	persistence *Persistence
	loc         *time.Location
	metrics     *metrics.Collector
	logger      *zap.Logger
}

func NewIntakeService(p *Persistence, loc *time.Location, m *metrics.Collector, logger *zap.Logger) IntakeService {
	if loc == nil {
		loc = time.Local
	}
	return &intakeService{
		persistence: p,
		loc:         loc,
		metrics:     m,
		logger:      logger,
	}
}

// SubmitRequest form fields as entered
type SubmitRequest struct {
	Record domain.Record
}

// SubmitResponse Saved=false means the remote endpoint did not take the
// record and only the local cache holds it (Warning says why).
type SubmitResponse struct {
	Record  *domain.Record `json:"record"`
	Saved   bool           `json:"saved"`
	Warning string         `json:"warning,omitempty"`
}

// Normalize formats identity fields the way the form does while typing
func Normalize(rec *domain.Record) {
	rec.Name = strings.TrimSpace(rec.Name)
	rec.ResidentNumber = vitals.FormatResidentNumber(rec.ResidentNumber)
	if rec.Phone != "" {
		rec.Phone = vitals.FormatPhone(rec.Phone)
	}
	rec.Height = strings.TrimSpace(rec.Height)
	rec.Weight = strings.TrimSpace(rec.Weight)
}

// Validate required form fields: name, residentNumber, height, weight
func Validate(rec *domain.Record) error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", rec.Name},
		{"residentNumber", rec.ResidentNumber},
		{"height", rec.Height},
		{"weight", rec.Weight},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Fields: missing}
	}
	return nil
}

func (s *intakeService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	rec := req.Record
	Normalize(&rec)
	if err := Validate(&rec); err != nil {
		return nil, err
	}
	// id is assigned by the store
	rec.ID = ""
	rec.CreatedAt = ""
	rec.UpdatedAt = ""

	res := s.persistence.Create(ctx, rec)
	if res.Record == nil {
		return nil, fmt.Errorf("failed to save record: %w", res.Err)
	}

	resp := &SubmitResponse{Record: res.Record, Saved: res.Success}
	if !res.Success {
		resp.Warning = res.Err.Error()
	}
	s.logger.Info("intake record submitted",
		zap.String("id", res.Record.ID),
		zap.Bool("remote_saved", res.Success),
	)
	return resp, nil
}

// DeriveRequest the inputs of the derived values
type DeriveRequest struct {
	ResidentNumber string          `json:"residentNumber"`
	Height         string          `json:"height"`
	Weight         string          `json:"weight"`
	Waveform       domain.Waveform `json:"waveform"`
}

type DeriveResponse struct {
	vitals.Derived
}

func (s *intakeService) Derive(req DeriveRequest) *DeriveResponse {
	rec := domain.Record{
		ResidentNumber: req.ResidentNumber,
		Height:         req.Height,
		Weight:         req.Weight,
		Waveform:       req.Waveform,
	}
	return &DeriveResponse{Derived: vitals.Compute(&rec)}
}

// ImportWaveformRequest spreadsheet upload for one person
type ImportWaveformRequest struct {
	Name string
	File io.Reader
}

// ImportWaveformResponse waveform inputs of the most recent matching row.
// RowIndex is the zero-based sheet row, blank rows counted (header = 0).
type ImportWaveformResponse struct {
	Waveform domain.Waveform `json:"waveform"`
	PVC      string          `json:"pvc"`
	BV       string          `json:"bv"`
	SV       string          `json:"sv"`
	RowIndex int             `json:"rowIndex"`
	RowDate  string          `json:"rowDate"`
}

func (s *intakeService) ImportWaveform(ctx context.Context, req ImportWaveformRequest) (*ImportWaveformResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &domain.ValidationError{Fields: []string{"name"}}
	}
	if req.File == nil {
		return nil, &domain.ValidationError{Fields: []string{"file"}}
	}

	resp, err := s.importWaveform(name, req.File)
	if err != nil {
		s.metrics.WaveformImport(importOutcome(err))
		s.logger.Info("waveform import failed", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	s.metrics.WaveformImport("ok")
	return resp, nil
}

func (s *intakeService) importWaveform(name string, file io.Reader) (*ImportWaveformResponse, error) {
	rows, err := spreadsheet.ReadRows(file)
	if err != nil {
		return nil, err
	}
	if err := spreadsheet.ValidateSheet(rows); err != nil {
		return nil, err
	}
	match, err := spreadsheet.LatestRow(rows, name, s.loc)
	if err != nil {
		return nil, err
	}
	w, err := spreadsheet.MapWaveform(match.Row)
	if err != nil {
		return nil, err
	}
	return &ImportWaveformResponse{
		Waveform: w,
		PVC:      vitals.PVC(w),
		BV:       vitals.BV(w),
		SV:       vitals.SV(w),
		RowIndex: match.Index,
		RowDate:  domain.FormatTimestamp(match.Date),
	}, nil
}

func importOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoMatchingRecord):
		return "no_match"
	case errors.Is(err, domain.ErrNoValidDate):
		return "no_valid_date"
	case errors.Is(err, domain.ErrNoWaveformData):
		return "no_waveform"
	case errors.Is(err, domain.ErrInvalidSheet):
		return "invalid_sheet"
	}
	return "error"
}
