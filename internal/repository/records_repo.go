package repository

import (
	"context"

	"ubio-intake/internal/domain"
)

// RecordsRepository storage behind the remote records endpoint.
// List returns records in insertion order.
type RecordsRepository interface {
	List(ctx context.Context) ([]domain.Record, error)
	Get(ctx context.Context, id string) (*domain.Record, error)
	// Create assigns id/createdAt when empty and returns the stored record
	Create(ctx context.Context, rec *domain.Record) (*domain.Record, error)
	// Update overwrites every field except id and createdAt
	Update(ctx context.Context, id string, rec *domain.Record) (*domain.Record, error)
	Delete(ctx context.Context, id string) error
}
