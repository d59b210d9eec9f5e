package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ubio-intake/internal/domain"
	"ubio-intake/internal/store"

	"go.uber.org/zap"
)

// LocalRecords the local record cache: one key holding a JSON array.
// Every operation is a full read and/or a full overwrite of that key, with no
// locking across read-modify-write, so concurrent writers can lose updates.
type LocalRecords struct {
	kv     store.KV
	key    string
	logger *zap.Logger
}

func NewLocalRecords(kv store.KV, key string, logger *zap.Logger) *LocalRecords {
	return &LocalRecords{kv: kv, key: key, logger: logger}
}

// Load returns the cached records. A missing key is an empty cache; content
// that is not a JSON array is logged as ErrStorageCorrupt and treated as empty.
func (l *LocalRecords) Load(ctx context.Context) ([]domain.Record, error) {
	raw, err := l.kv.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return []domain.Record{}, nil
		}
		return nil, fmt.Errorf("failed to read local cache: %w", err)
	}

	var records []domain.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil || records == nil {
		l.logger.Warn("local cache unreadable, treating as empty",
			zap.String("key", l.key),
			zap.Error(fmt.Errorf("%w: %v", domain.ErrStorageCorrupt, err)),
		)
		return []domain.Record{}, nil
	}
	return records, nil
}

// Save overwrites the cache with records
func (l *LocalRecords) Save(ctx context.Context, records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode local cache: %w", err)
	}
	if err := l.kv.Set(ctx, l.key, string(b), 0); err != nil {
		return fmt.Errorf("failed to write local cache: %w", err)
	}
	return nil
}

// Append adds rec at the end of the cache
func (l *LocalRecords) Append(ctx context.Context, rec domain.Record) error {
	records, err := l.Load(ctx)
	if err != nil {
		return err
	}
	return l.Save(ctx, append(records, rec))
}

// Replace overwrites every cached entry with rec.ID and returns the record as
// cached. createdAt is not editable: a cached creation time survives the edit.
// found=false leaves the cache untouched.
func (l *LocalRecords) Replace(ctx context.Context, rec domain.Record) (domain.Record, bool, error) {
	records, err := l.Load(ctx)
	if err != nil {
		return rec, false, err
	}
	found := false
	for i := range records {
		if records[i].ID != rec.ID {
			continue
		}
		if records[i].CreatedAt != "" {
			rec.CreatedAt = records[i].CreatedAt
		}
		found = true
	}
	if !found {
		return rec, false, nil
	}
	for i := range records {
		if records[i].ID == rec.ID {
			records[i] = rec
		}
	}
	return rec, true, l.Save(ctx, records)
}

// Remove drops every cached entry with id
func (l *LocalRecords) Remove(ctx context.Context, id string) (bool, error) {
	records, err := l.Load(ctx)
	if err != nil {
		return false, err
	}
	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return false, nil
	}
	return true, l.Save(ctx, kept)
}

// Clear deletes the cache key
func (l *LocalRecords) Clear(ctx context.Context) error {
	if err := l.kv.Del(ctx, l.key); err != nil {
		return fmt.Errorf("failed to clear local cache: %w", err)
	}
	return nil
}
