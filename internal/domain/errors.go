package domain

import (
	"errors"
	"strings"
)

var (
	// spreadsheet import
	ErrNoMatchingRecord = errors.New("no spreadsheet row matches the name")
	ErrNoValidDate      = errors.New("no matching row has a valid date")
	ErrInvalidSheet     = errors.New("spreadsheet has no usable data")
	ErrNoWaveformData   = errors.New("no valid waveform data in row")

	// persistence
	ErrRemoteUnavailable = errors.New("remote records endpoint unavailable")
	ErrStorageCorrupt    = errors.New("local cache content is not a JSON array")
	ErrRecordNotFound    = errors.New("record not found")

	// table view
	ErrRestoreFormatInvalid = errors.New("backup file must contain an array field \"data\"")
	ErrNothingSelected      = errors.New("no records selected")
	ErrUnknownSortKey       = errors.New("unknown sort key")
)

// ValidationError missing required form fields
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "required fields missing: " + strings.Join(e.Fields, ", ")
}

// IsValidation reports whether err is (or wraps) a *ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
