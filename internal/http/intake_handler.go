package httpapi

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"ubio-intake/internal/domain"
	"ubio-intake/internal/metrics"
	"ubio-intake/internal/service"
	"ubio-intake/internal/spreadsheet"
	"ubio-intake/internal/tableview"

	"go.uber.org/zap"
)

// IntakeHandler intake form and table view API
type IntakeHandler struct {
	intake  service.IntakeService
	table   *tableview.Controller
	metrics *metrics.Collector
	logger  *zap.Logger
	now     func() time.Time
}

func NewIntakeHandler(intake service.IntakeService, table *tableview.Controller, m *metrics.Collector, logger *zap.Logger) *IntakeHandler {
	return &IntakeHandler{
		intake:  intake,
		table:   table,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// SubmitRecord POST /intake/api/v1/records
func (h *IntakeHandler) SubmitRecord(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var rec domain.Record
	if err := readBodyJSON(r, maxJSONBody, &rec); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	resp, err := h.intake.Submit(r.Context(), service.SubmitRequest{Record: rec})
	if err != nil {
		h.logger.Error("submit record failed", zap.Error(err))
		writeFail(w, err)
		return
	}
	if !resp.Saved {
		writeJSON(w, http.StatusOK, Warn(resp.Warning, resp))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Derive POST /intake/api/v1/derived, body is the (partial) form
func (h *IntakeHandler) Derive(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var rec domain.Record
	if err := readBodyJSON(r, maxJSONBody, &rec); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	resp := h.intake.Derive(service.DeriveRequest{
		ResidentNumber: rec.ResidentNumber,
		Height:         rec.Height,
		Weight:         rec.Weight,
		Waveform:       rec.Waveform,
	})
	writeJSON(w, http.StatusOK, Ok(resp))
}

// ImportWaveform POST /intake/api/v1/waveform/import (multipart: file, name)
func (h *IntakeHandler) ImportWaveform(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid multipart form"))
		return
	}
	req := service.ImportWaveformRequest{Name: r.FormValue("name")}
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		req.File = file
	}
	resp, err := h.intake.ImportWaveform(r.Context(), req)
	if err != nil {
		writeFail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *IntakeHandler) writeView(w http.ResponseWriter, v *tableview.View, err error) {
	if err != nil {
		writeFail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(v))
}

// GetTable GET /intake/api/v1/table
func (h *IntakeHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	v, err := h.table.View()
	h.writeView(w, v, err)
}

type filterRequest struct {
	tableview.Filters
	Reset bool `json:"reset"`
}

// SetFilter POST /intake/api/v1/table/filter
func (h *IntakeHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req filterRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if req.Reset {
		v, err := h.table.ResetFilters()
		h.writeView(w, v, err)
		return
	}
	v, err := h.table.SetFilters(req.Filters)
	h.writeView(w, v, err)
}

// ToggleSort POST /intake/api/v1/table/sort
func (h *IntakeHandler) ToggleSort(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Key string `json:"key"`
	}
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	v, err := h.table.ToggleSort(req.Key)
	h.writeView(w, v, err)
}

// Scroll POST /intake/api/v1/table/scroll
func (h *IntakeHandler) Scroll(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var ev tableview.ScrollEvent
	if err := readBodyJSON(r, maxJSONBody, &ev); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	v, err := h.table.Scroll(ev)
	h.writeView(w, v, err)
}

// Select POST /intake/api/v1/table/select: {id} toggles one row, {all} sets every row
func (h *IntakeHandler) Select(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		ID  string `json:"id"`
		All *bool  `json:"all"`
	}
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	switch {
	case req.All != nil:
		v, err := h.table.SelectAll(*req.All)
		h.writeView(w, v, err)
	case req.ID != "":
		v, err := h.table.ToggleSelect(req.ID)
		h.writeView(w, v, err)
	default:
		writeFail(w, &domain.ValidationError{Fields: []string{"id"}})
	}
}

// DeleteSelected POST /intake/api/v1/table/delete-selected
func (h *IntakeHandler) DeleteSelected(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	n, err := h.table.DeleteSelected(r.Context())
	if err != nil {
		writeFail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int{"deleted": n}))
}

// Refresh POST /intake/api/v1/table/refresh; a degraded load is a warning
func (h *IntakeHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	loadErr := h.table.Reload(r.Context())
	v, err := h.table.View()
	if err != nil {
		writeFail(w, err)
		return
	}
	if loadErr != nil {
		writeJSON(w, http.StatusOK, Warn(loadErr.Error(), v))
		return
	}
	writeJSON(w, http.StatusOK, Ok(v))
}

// EditRecord PUT /intake/api/v1/table/records/{id}
func (h *IntakeHandler) EditRecord(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPut) {
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/intake/api/v1/table/records/"), "/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var rec domain.Record
	if err := readBodyJSON(r, maxJSONBody, &rec); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	updated, err := h.table.Edit(r.Context(), id, rec)
	if err != nil {
		h.logger.Error("edit record failed", zap.String("id", id), zap.Error(err))
		writeFail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(updated))
}

// Export GET /intake/api/v1/table/export?format=xlsx|csv, every loaded record
func (h *IntakeHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = spreadsheet.FormatXLSX
	}
	if format != spreadsheet.FormatXLSX && format != spreadsheet.FormatCSV {
		writeJSON(w, http.StatusBadRequest, Fail("unsupported export format: "+format))
		return
	}

	var buf bytes.Buffer
	if err := spreadsheet.Write(&buf, format, h.table.Records()); err != nil {
		h.logger.Error("export failed", zap.String("format", format), zap.Error(err))
		writeFail(w, err)
		return
	}
	h.metrics.Export(format)
	writeAttachment(w, spreadsheet.ContentType(format), spreadsheet.FileName(format, h.now()), buf.Bytes())
}

// Backup GET /intake/api/v1/table/backup
func (h *IntakeHandler) Backup(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	body, name, err := h.table.Backup()
	if err != nil {
		writeFail(w, err)
		return
	}
	writeAttachment(w, "application/json", name, body)
}

// Restore POST /intake/api/v1/table/restore (raw JSON body or multipart file)
func (h *IntakeHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	file, err := uploadedFile(w, r)
	if err != nil {
		writeFail(w, err)
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read backup"))
		return
	}
	n, err := h.table.Restore(raw)
	if err != nil {
		h.logger.Info("restore rejected", zap.Error(err))
		writeFail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int{"restored": n}))
}

// Import POST /intake/api/v1/table/import (exported xlsx)
func (h *IntakeHandler) Import(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	file, err := uploadedFile(w, r)
	if err != nil {
		writeFail(w, err)
		return
	}
	defer file.Close()
	n, err := h.table.Import(file)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidSheet) {
			h.logger.Error("table import failed", zap.Error(err))
		}
		writeFail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int{"imported": n}))
}
