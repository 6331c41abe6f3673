package repositories

import (
	"context"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// CriteriaAssignmentStore provides the criterion-based (segmented) demand of an import
type CriteriaAssignmentStore interface {
	ListCriterionDemands(ctx context.Context, importID entities.ImportID) ([]*entities.CriterionDemand, error)
}

// DirectAssignmentStore provides the direct supervisor/representative demand of an import
type DirectAssignmentStore interface {
	ListDirectDemands(ctx context.Context, importID entities.ImportID) ([]*entities.DirectDemand, error)
}

// RepresentativeDirectory resolves representatives to their supervisors
type RepresentativeDirectory interface {
	ListRepresentatives(ctx context.Context, importID entities.ImportID) ([]*entities.Representative, error)
}
