package repositories

import (
	"context"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// ImportRepository provides access to distribution cycles
type ImportRepository interface {
	// GetImport returns a NotFoundError when the import is missing or soft-deleted
	GetImport(ctx context.Context, id entities.ImportID) (*entities.Import, error)
}

// ImportWriter retires distribution cycles
type ImportWriter interface {
	// SoftDeleteImport hides an import from every later read. It returns a
	// NotFoundError when the import does not exist.
	SoftDeleteImport(ctx context.Context, id entities.ImportID) error
}

// Snapshot is a consistent read over every table a reconciliation needs.
// A snapshot belongs to a single request and must be closed by its opener.
type Snapshot interface {
	ImportRepository
	MaterialCatalog
	CriteriaAssignmentStore
	DirectAssignmentStore
	RepresentativeDirectory
	Close() error
}

// SnapshotProvider opens short-lived snapshots
type SnapshotProvider interface {
	OpenSnapshot(ctx context.Context) (Snapshot, error)
}
