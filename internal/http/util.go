package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ubio-intake/internal/domain"
)

const (
	maxJSONBody   = 4 << 20
	maxUploadBody = 32 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// statusFor HTTP status of a failed operation; most failures are reported
// in the envelope with 200
func statusFor(err error) int {
	switch {
	case domain.IsValidation(err),
		errors.Is(err, domain.ErrUnknownSortKey),
		errors.Is(err, domain.ErrNothingSelected):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	}
	return http.StatusOK
}

func writeFail(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), Fail(err.Error()))
}

// writeAttachment sends body as a file download
func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// uploadedFile returns the multipart "file" part, or the raw body when the
// request is not multipart
func uploadedFile(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return r.Body, nil
		}
		return nil, err
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, &domain.ValidationError{Fields: []string{"file"}}
	}
	return f, nil
}
