package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ubio-intake/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresRecordsRepository stores each record as a jsonb document.
// name/created_at are extracted for ordering and inspection only.
type PostgresRecordsRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresRecordsRepository(db *sql.DB) *PostgresRecordsRepository {
	return &PostgresRecordsRepository{db: db, now: time.Now}
}

var _ RecordsRepository = (*PostgresRecordsRepository)(nil)

const userInfoSchema = `
CREATE TABLE IF NOT EXISTS user_info (
	seq        BIGSERIAL PRIMARY KEY,
	id         TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL DEFAULT '',
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ
)`

// EnsureSchema creates the user_info table when missing
func (r *PostgresRecordsRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, userInfoSchema); err != nil {
		return fmt.Errorf("failed to create user_info table: %w", err)
	}
	return nil
}

func (r *PostgresRecordsRepository) List(ctx context.Context) ([]domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM user_info ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	out := []domain.Record{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var rec domain.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record payload: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRecordsRepository) Get(ctx context.Context, id string) (*domain.Record, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM user_info WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	var rec domain.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record payload: %w", err)
	}
	return &rec, nil
}

func (r *PostgresRecordsRepository) Create(ctx context.Context, rec *domain.Record) (*domain.Record, error) {
	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	created, ok := stored.CreatedTime(time.UTC)
	if !ok {
		created = r.now()
		stored.CreatedAt = domain.FormatTimestamp(created)
	}

	payload, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO user_info (id, name, payload, created_at) VALUES ($1, $2, $3, $4)`,
		stored.ID, stored.Name, payload, created,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("record %s already exists: %w", stored.ID, err)
		}
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}
	return &stored, nil
}

func (r *PostgresRecordsRepository) Update(ctx context.Context, id string, rec *domain.Record) (*domain.Record, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	stored := *rec
	stored.ID = id
	stored.CreatedAt = current.CreatedAt
	updated := r.now()
	if stored.UpdatedAt == "" {
		stored.UpdatedAt = domain.FormatTimestamp(updated)
	}

	payload, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_info SET name = $2, payload = $3, updated_at = $4 WHERE id = $1`,
		id, stored.Name, payload, updated,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	return &stored, nil
}

func (r *PostgresRecordsRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_info WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	return nil
}
