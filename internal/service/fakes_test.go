package service_test

import (
	"context"
	"fmt"
	"sync"

	"ubio-intake/internal/domain"
)

// fakeRemote in-memory RemoteRecords with switchable failures
type fakeRemote struct {
	mu      sync.Mutex
	records []domain.Record
	nextID  int
	down    bool
	calls   map[string]int
}

func newFakeRemote(records ...domain.Record) *fakeRemote {
	return &fakeRemote{records: records, calls: map[string]int{}}
}

func (f *fakeRemote) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *fakeRemote) hit(op string) error {
	f.calls[op]++
	if f.down {
		return fmt.Errorf("%w: %s: connection refused", domain.ErrRemoteUnavailable, op)
	}
	return nil
}

func (f *fakeRemote) List(_ context.Context) ([]domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("list"); err != nil {
		return nil, err
	}
	return append([]domain.Record(nil), f.records...), nil
}

func (f *fakeRemote) Create(_ context.Context, rec *domain.Record) (*domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("create"); err != nil {
		return nil, err
	}
	f.nextID++
	stored := *rec
	stored.ID = fmt.Sprintf("remote-%d", f.nextID)
	f.records = append(f.records, stored)
	return &stored, nil
}

func (f *fakeRemote) Update(_ context.Context, id string, rec *domain.Record) (*domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("update"); err != nil {
		return nil, err
	}
	for i := range f.records {
		if f.records[i].ID == id {
			f.records[i] = *rec
			stored := *rec
			return &stored, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
}

func (f *fakeRemote) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("delete"); err != nil {
		return err
	}
	for i := range f.records {
		if f.records[i].ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
}
