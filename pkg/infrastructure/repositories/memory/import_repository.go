package memory

import (
	"context"
	"sync"

	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/domain/repositories"
)

// ImportRepository provides in-memory import storage
type ImportRepository struct {
	mu      sync.RWMutex
	imports map[entities.ImportID]entities.Import
}

// NewImportRepository creates a new in-memory import repository
func NewImportRepository() *ImportRepository {
	return &ImportRepository{
		imports: make(map[entities.ImportID]entities.Import),
	}
}

// Verify interface compliance
var _ repositories.ImportRepository = (*ImportRepository)(nil)

// AddImport adds or replaces an import
func (r *ImportRepository) AddImport(imp entities.Import) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imports[imp.ID] = imp
}

// GetImport returns an import that exists and is not deleted
func (r *ImportRepository) GetImport(_ context.Context, id entities.ImportID) (*entities.Import, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	imp, exists := r.imports[id]
	if !exists || imp.Deleted {
		return nil, entities.ImportNotFound(id)
	}
	return &imp, nil
}

// SoftDelete marks an import as deleted
func (r *ImportRepository) SoftDelete(id entities.ImportID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	imp, exists := r.imports[id]
	if !exists {
		return entities.ImportNotFound(id)
	}
	imp.Deleted = true
	r.imports[id] = imp
	return nil
}

// Clone returns an independent copy of the repository
func (r *ImportRepository) Clone() *ImportRepository {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := NewImportRepository()
	for k, v := range r.imports {
		c.imports[k] = v
	}
	return c
}

// RepresentativeRepository provides in-memory representative roster storage
type RepresentativeRepository struct {
	mu     sync.RWMutex
	roster map[entities.ImportID][]entities.Representative
}

// NewRepresentativeRepository creates a new in-memory roster
func NewRepresentativeRepository() *RepresentativeRepository {
	return &RepresentativeRepository{
		roster: make(map[entities.ImportID][]entities.Representative),
	}
}

// Verify interface compliance
var _ repositories.RepresentativeDirectory = (*RepresentativeRepository)(nil)

// LoadRepresentatives loads the roster of an import
func (r *RepresentativeRepository) LoadRepresentatives(importID entities.ImportID, reps []*entities.Representative) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range reps {
		r.roster[importID] = append(r.roster[importID], *rep)
	}
	return nil
}

// ListRepresentatives returns the roster of an import
func (r *RepresentativeRepository) ListRepresentatives(_ context.Context, importID entities.ImportID) ([]*entities.Representative, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reps []*entities.Representative
	for i := range r.roster[importID] {
		rep := r.roster[importID][i]
		reps = append(reps, &rep)
	}
	return reps, nil
}

// Clone returns an independent copy of the repository
func (r *RepresentativeRepository) Clone() *RepresentativeRepository {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := NewRepresentativeRepository()
	for k, v := range r.roster {
		c.roster[k] = append([]entities.Representative(nil), v...)
	}
	return c
}
