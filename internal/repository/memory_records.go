package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ubio-intake/internal/domain"

	"github.com/google/uuid"
)

// MemoryRecordsRepository supports the records endpoint when DB is disabled.
type MemoryRecordsRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]domain.Record
	now   func() time.Time
}

func NewMemoryRecordsRepository() *MemoryRecordsRepository {
	return &MemoryRecordsRepository{
		byID: map[string]domain.Record{},
		now:  time.Now,
	}
}

var _ RecordsRepository = (*MemoryRecordsRepository)(nil)

func (r *MemoryRecordsRepository) List(_ context.Context) ([]domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out, nil
}

func (r *MemoryRecordsRepository) Get(_ context.Context, id string) (*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	return &rec, nil
}

func (r *MemoryRecordsRepository) Create(_ context.Context, rec *domain.Record) (*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if _, exists := r.byID[stored.ID]; exists {
		return nil, fmt.Errorf("record %s already exists", stored.ID)
	}
	if _, ok := stored.CreatedTime(time.UTC); !ok {
		stored.CreatedAt = domain.FormatTimestamp(r.now())
	}
	r.byID[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return &stored, nil
}

func (r *MemoryRecordsRepository) Update(_ context.Context, id string, rec *domain.Record) (*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	stored := *rec
	stored.ID = id
	stored.CreatedAt = current.CreatedAt
	if stored.UpdatedAt == "" {
		stored.UpdatedAt = domain.FormatTimestamp(r.now())
	}
	r.byID[id] = stored
	return &stored, nil
}

func (r *MemoryRecordsRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
