package memory

import (
	"context"
	"fmt"

	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/domain/repositories"
)

// Store bundles the in-memory repositories of every import
type Store struct {
	Imports         *ImportRepository
	Materials       *MaterialRepository
	Criteria        *CriteriaRepository
	Directs         *DirectRepository
	Representatives *RepresentativeRepository
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		Imports:         NewImportRepository(),
		Materials:       NewMaterialRepository(0),
		Criteria:        NewCriteriaRepository(),
		Directs:         NewDirectRepository(),
		Representatives: NewRepresentativeRepository(),
	}
}

// Ingest loads a complete import into the store
func (s *Store) Ingest(dataset *entities.Dataset) error {
	s.Imports.AddImport(dataset.Import)
	if err := s.Materials.LoadMaterials(dataset.Import.ID, dataset.Materials); err != nil {
		return fmt.Errorf("failed to load materials: %w", err)
	}
	if err := s.Materials.LoadStock(dataset.Stock); err != nil {
		return fmt.Errorf("failed to load stock: %w", err)
	}
	if err := s.Criteria.LoadCriterionDemands(dataset.Criteria); err != nil {
		return fmt.Errorf("failed to load criterion demands: %w", err)
	}
	if err := s.Directs.LoadDirectDemands(dataset.Directs); err != nil {
		return fmt.Errorf("failed to load direct demands: %w", err)
	}
	if err := s.Representatives.LoadRepresentatives(dataset.Import.ID, dataset.Representatives); err != nil {
		return fmt.Errorf("failed to load representatives: %w", err)
	}
	return nil
}

// Verify interface compliance
var (
	_ repositories.SnapshotProvider = (*Store)(nil)
	_ repositories.StockWriter      = (*Store)(nil)
	_ repositories.ImportWriter     = (*Store)(nil)
	_ repositories.Snapshot         = (*Snapshot)(nil)
)

// OpenSnapshot copies the store so later writes are not visible to the reader
func (s *Store) OpenSnapshot(ctx context.Context) (repositories.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Snapshot{
		imports:   s.Imports.Clone(),
		materials: s.Materials.Clone(),
		criteria:  s.Criteria.Clone(),
		directs:   s.Directs.Clone(),
		reps:      s.Representatives.Clone(),
	}, nil
}

// UpdateStockManual delegates to the material repository
func (s *Store) UpdateStockManual(
	ctx context.Context,
	importID entities.ImportID,
	code entities.MaterialCode,
	value *entities.Quantity,
	expectedVersion int64,
) (*entities.StockRecord, error) {
	if _, err := s.Imports.GetImport(ctx, importID); err != nil {
		return nil, err
	}
	return s.Materials.UpdateStockManual(ctx, importID, code, value, expectedVersion)
}

// SoftDeleteImport marks an import as deleted
func (s *Store) SoftDeleteImport(_ context.Context, id entities.ImportID) error {
	return s.Imports.SoftDelete(id)
}

// Snapshot is a frozen copy of a Store
type Snapshot struct {
	imports   *ImportRepository
	materials *MaterialRepository
	criteria  *CriteriaRepository
	directs   *DirectRepository
	reps      *RepresentativeRepository
}

func (s *Snapshot) GetImport(ctx context.Context, id entities.ImportID) (*entities.Import, error) {
	return s.imports.GetImport(ctx, id)
}

func (s *Snapshot) GetMaterial(ctx context.Context, importID entities.ImportID, code entities.MaterialCode) (*entities.Material, error) {
	return s.materials.GetMaterial(ctx, importID, code)
}

func (s *Snapshot) GetStock(ctx context.Context, importID entities.ImportID, code entities.MaterialCode) (*entities.StockRecord, error) {
	return s.materials.GetStock(ctx, importID, code)
}

func (s *Snapshot) ListMaterials(ctx context.Context, importID entities.ImportID) ([]*entities.Material, error) {
	return s.materials.ListMaterials(ctx, importID)
}

func (s *Snapshot) ListStock(ctx context.Context, importID entities.ImportID) ([]*entities.StockRecord, error) {
	return s.materials.ListStock(ctx, importID)
}

func (s *Snapshot) ListCriterionDemands(ctx context.Context, importID entities.ImportID) ([]*entities.CriterionDemand, error) {
	return s.criteria.ListCriterionDemands(ctx, importID)
}

func (s *Snapshot) ListDirectDemands(ctx context.Context, importID entities.ImportID) ([]*entities.DirectDemand, error) {
	return s.directs.ListDirectDemands(ctx, importID)
}

func (s *Snapshot) ListRepresentatives(ctx context.Context, importID entities.ImportID) ([]*entities.Representative, error) {
	return s.reps.ListRepresentatives(ctx, importID)
}

// Close is a no-op for in-memory snapshots
func (s *Snapshot) Close() error {
	return nil
}
