// Package store persists imported-domain records and the shared operator settings.
package store

import (
	"context"
	"errors"

	"domainacq/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// RecordStore is the durable home of imported-domain records. List results are
// ordered newest first.
type RecordStore interface {
	Create(ctx context.Context, rec *models.ImportedDomain) error
	// CreateBatch inserts every record whose original domain is not already
	// stored and returns how many were inserted.
	CreateBatch(ctx context.Context, recs []*models.ImportedDomain) (int, error)
	FindByID(ctx context.Context, id string) (*models.ImportedDomain, error)
	List(ctx context.Context) ([]models.ImportedDomain, error)
	ListByStatus(ctx context.Context, status models.Status) ([]models.ImportedDomain, error)
	Update(ctx context.Context, id string, patch models.ImportedDomainPatch) (*models.ImportedDomain, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// PrefixState holds the single "last used email prefix" cell.
type PrefixState interface {
	LoadLastPrefix(ctx context.Context) (string, error)
	SaveLastPrefix(ctx context.Context, prefix string) error
}

func isConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
