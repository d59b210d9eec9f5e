package tableview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"ubio-intake/internal/domain"
	"ubio-intake/internal/spreadsheet"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backup downloadable snapshot of the loaded records
type Backup struct {
	Timestamp string          `json:"timestamp"`
	Data      []domain.Record `json:"data"`
}

// BackupFileName backup_YYYY-MM-DD.json (UTC date)
func BackupFileName(now time.Time) string {
	return "backup_" + now.UTC().Format("2006-01-02") + ".json"
}

// Backup serialises every loaded record
func (c *Controller) Backup() ([]byte, string, error) {
	now := c.now()
	b, err := json.Marshal(Backup{
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Data:      c.Records(),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode backup: %w", err)
	}
	return b, BackupFileName(now), nil
}

// ParseBackup requires a JSON object with an array field "data"
func ParseBackup(raw []byte) ([]domain.Record, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRestoreFormatInvalid, err)
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || data[0] != '[' {
		return nil, domain.ErrRestoreFormatInvalid
	}
	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRestoreFormatInvalid, err)
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}

// Restore replaces the in-memory records with a backup's data.
// An invalid backup leaves the state untouched.
func (c *Controller) Restore(raw []byte) (int, error) {
	records, err := ParseBackup(raw)
	if err != nil {
		return 0, err
	}
	c.Replace(records)
	c.logger.Info("table restored from backup", zap.Int("records", len(records)))
	return len(records), nil
}

// Import replaces the in-memory records with the rows of an exported
// workbook. Rows get a fresh id, since ids are not exported.
func (c *Controller) Import(r io.Reader) (int, error) {
	records, err := spreadsheet.ReadRecords(r)
	if err != nil {
		return 0, err
	}
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
	}
	c.Replace(records)
	c.logger.Info("table imported from workbook", zap.Int("records", len(records)))
	return len(records), nil
}
