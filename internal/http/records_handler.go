package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"ubio-intake/internal/domain"
	"ubio-intake/internal/repository"

	"go.uber.org/zap"
)

// RecordsHandler the records endpoint the intake service persists to.
// It speaks bare JSON (arrays and records), errors as {"message": "..."}.
type RecordsHandler struct {
	repo   repository.RecordsRepository
	logger *zap.Logger
}

func NewRecordsHandler(repo repository.RecordsRepository, logger *zap.Logger) *RecordsHandler {
	return &RecordsHandler{repo: repo, logger: logger}
}

type errorBody struct {
	Message string `json:"message"`
}

func (h *RecordsHandler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		status = http.StatusNotFound
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	default:
		h.logger.Error("records request failed", zap.Error(err))
	}
	writeJSON(w, status, errorBody{Message: err.Error()})
}

// Collection GET|POST /api/userinfo
func (h *RecordsHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := h.repo.List(r.Context())
		if err != nil {
			h.fail(w, err)
			return
		}
		if list == nil {
			list = []domain.Record{}
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var rec domain.Record
		if err := readBodyJSON(r, maxJSONBody, &rec); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid body"})
			return
		}
		if strings.TrimSpace(rec.Name) == "" {
			h.fail(w, &domain.ValidationError{Fields: []string{"name"}})
			return
		}
		stored, err := h.repo.Create(r.Context(), &rec)
		if err != nil {
			h.fail(w, err)
			return
		}
		h.logger.Info("record stored", zap.String("id", stored.ID))
		writeJSON(w, http.StatusCreated, stored)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Item GET|PUT|DELETE /api/userinfo/{id}
func (h *RecordsHandler) Item(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/userinfo/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "not found"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := h.repo.Get(r.Context(), id)
		if err != nil {
			h.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodPut:
		var rec domain.Record
		if err := readBodyJSON(r, maxJSONBody, &rec); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid body"})
			return
		}
		updated, err := h.repo.Update(r.Context(), id, &rec)
		if err != nil {
			h.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := h.repo.Delete(r.Context(), id); err != nil {
			h.fail(w, err)
			return
		}
		h.logger.Info("record deleted", zap.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
