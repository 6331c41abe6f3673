package memory

import (
	"context"
	"sync"

	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/domain/repositories"
)

// CriteriaRepository provides in-memory criterion demand storage
type CriteriaRepository struct {
	mu      sync.RWMutex
	demands []entities.CriterionDemand
}

// NewCriteriaRepository creates a new in-memory criteria repository
func NewCriteriaRepository() *CriteriaRepository {
	return &CriteriaRepository{
		demands: []entities.CriterionDemand{},
	}
}

// Verify interface compliance
var _ repositories.CriteriaAssignmentStore = (*CriteriaRepository)(nil)

// LoadCriterionDemands loads criterion demands into the repository
func (r *CriteriaRepository) LoadCriterionDemands(demands []*entities.CriterionDemand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range demands {
		r.demands = append(r.demands, *d)
	}
	return nil
}

// ListCriterionDemands returns the criterion demands of an import
func (r *CriteriaRepository) ListCriterionDemands(_ context.Context, importID entities.ImportID) ([]*entities.CriterionDemand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var demands []*entities.CriterionDemand
	for i := range r.demands {
		if r.demands[i].ImportID == importID {
			d := r.demands[i]
			demands = append(demands, &d)
		}
	}
	return demands, nil
}

// Clone returns an independent copy of the repository
func (r *CriteriaRepository) Clone() *CriteriaRepository {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &CriteriaRepository{demands: append([]entities.CriterionDemand(nil), r.demands...)}
}

// DirectRepository provides in-memory direct assignment storage
type DirectRepository struct {
	mu      sync.RWMutex
	demands []entities.DirectDemand
}

// NewDirectRepository creates a new in-memory direct assignment repository
func NewDirectRepository() *DirectRepository {
	return &DirectRepository{
		demands: []entities.DirectDemand{},
	}
}

// Verify interface compliance
var _ repositories.DirectAssignmentStore = (*DirectRepository)(nil)

// LoadDirectDemands loads direct demands into the repository
func (r *DirectRepository) LoadDirectDemands(demands []*entities.DirectDemand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range demands {
		r.demands = append(r.demands, *d)
	}
	return nil
}

// ListDirectDemands returns the direct demands of an import
func (r *DirectRepository) ListDirectDemands(_ context.Context, importID entities.ImportID) ([]*entities.DirectDemand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var demands []*entities.DirectDemand
	for i := range r.demands {
		if r.demands[i].ImportID == importID {
			d := r.demands[i]
			demands = append(demands, &d)
		}
	}
	return demands, nil
}

// Clone returns an independent copy of the repository
func (r *DirectRepository) Clone() *DirectRepository {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &DirectRepository{demands: append([]entities.DirectDemand(nil), r.demands...)}
}
