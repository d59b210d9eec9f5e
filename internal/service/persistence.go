package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ubio-intake/internal/domain"
	"ubio-intake/internal/metrics"
	"ubio-intake/internal/repository"
	"ubio-intake/internal/vitals"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoadResult merged record list; Success=false means degraded (remote or
// local read failed) while Records still holds whatever could be read.
type LoadResult struct {
	Success bool
	Records []domain.Record
	Err     error
}

// CreateResult Success=false means the remote rejected or could not be reached;
// Record is then the locally cached copy, if caching worked.
type CreateResult struct {
	Success bool
	Record  *domain.Record
	Err     error
}

// Persistence remote records endpoint + local cache
type Persistence struct {
	remote  RemoteRecords
	local   *repository.LocalRecords
	merge   MergeFunc
	metrics *metrics.Collector
	logger  *zap.Logger
	now     func() time.Time
}

func NewPersistence(remote RemoteRecords, local *repository.LocalRecords, merge MergeFunc, m *metrics.Collector, logger *zap.Logger) *Persistence {
	if merge == nil {
		merge = Merge
	}
	return &Persistence{
		remote:  remote,
		local:   local,
		merge:   merge,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Create POSTs the record and appends the stored copy to the local cache.
// When the remote fails the record still lands in the local cache.
func (p *Persistence) Create(ctx context.Context, rec domain.Record) CreateResult {
	vitals.Recompute(&rec)
	if rec.CreatedAt == "" {
		rec.CreatedAt = domain.FormatTimestamp(p.now())
	}

	stored, err := p.remote.Create(ctx, &rec)
	if err != nil {
		p.metrics.RemoteFailure("create")
		p.metrics.RecordCreated(false)
		p.logger.Warn("remote create failed, keeping record locally",
			zap.String("name", rec.Name),
			zap.Error(err),
		)
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if lerr := p.local.Append(ctx, rec); lerr != nil {
			return CreateResult{Err: errors.Join(err, lerr)}
		}
		return CreateResult{Record: &rec, Err: err}
	}

	if lerr := p.local.Append(ctx, *stored); lerr != nil {
		p.logger.Warn("failed to cache created record", zap.String("id", stored.ID), zap.Error(lerr))
	}
	p.metrics.RecordCreated(true)
	return CreateResult{Success: true, Record: stored}
}

// LoadAll fetches remote and local records and merges them
func (p *Persistence) LoadAll(ctx context.Context) LoadResult {
	local, lerr := p.local.Load(ctx)
	if lerr != nil {
		p.logger.Warn("failed to read local cache", zap.Error(lerr))
		local = []domain.Record{}
	}

	remote, rerr := p.remote.List(ctx)
	if rerr != nil {
		p.metrics.RemoteFailure("list")
		p.logger.Warn("remote list failed, using local cache only",
			zap.Int("local_count", len(local)),
			zap.Error(rerr),
		)
		return LoadResult{Records: local, Err: errors.Join(rerr, lerr)}
	}

	merged := p.merge(remote, local)
	if lerr != nil {
		return LoadResult{Records: merged, Err: lerr}
	}
	return LoadResult{Success: true, Records: merged}
}

// Update overwrites every editable field of record id. Derived values are
// recomputed and updatedAt stamped. A remote 404 is accepted when the local
// cache held the record.
func (p *Persistence) Update(ctx context.Context, id string, rec domain.Record) (*domain.Record, error) {
	rec.ID = id
	vitals.Recompute(&rec)
	rec.UpdatedAt = domain.FormatTimestamp(p.now())

	merged, cached, err := p.local.Replace(ctx, rec)
	if err != nil {
		return nil, err
	}
	if cached {
		rec = merged
	}

	stored, err := p.remote.Update(ctx, id, &rec)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) && cached {
			return &rec, nil
		}
		if !errors.Is(err, domain.ErrRecordNotFound) {
			p.metrics.RemoteFailure("update")
		}
		return nil, fmt.Errorf("update %s: %w", id, err)
	}
	return stored, nil
}

// Delete removes id from the local cache and from the remote.
// A remote 404 is accepted when the local cache held the record.
func (p *Persistence) Delete(ctx context.Context, id string) error {
	removed, err := p.local.Remove(ctx, id)
	if err != nil {
		return err
	}

	if err := p.remote.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) && removed {
			p.metrics.RecordDeleted()
			return nil
		}
		if !errors.Is(err, domain.ErrRecordNotFound) {
			p.metrics.RemoteFailure("delete")
		}
		return fmt.Errorf("delete %s: %w", id, err)
	}
	p.metrics.RecordDeleted()
	return nil
}
