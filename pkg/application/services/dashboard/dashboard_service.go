package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/sampledist/pkg/application/dto"
	"github.com/vsinha/sampledist/pkg/application/services/allocation"
	"github.com/vsinha/sampledist/pkg/application/services/coverage"
	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/domain/repositories"
	"github.com/vsinha/sampledist/pkg/infrastructure/cache"
	"github.com/vsinha/sampledist/pkg/infrastructure/events"
)

// Config holds dashboard service settings
type Config struct {
	// Workers bounds per-material reconciliation concurrency (0 = GOMAXPROCS)
	Workers int
	// TopN is the size of the top materials list
	TopN int
	// CacheTTL is how long a cached dashboard stays valid (0 = until invalidated)
	CacheTTL time.Duration
}

// DefaultConfig returns the settings used when none are configured
func DefaultConfig() Config {
	return Config{TopN: 10, CacheTTL: 5 * time.Minute}
}

// Dependencies are the collaborators of the dashboard service. Imports,
// Cache and Events are optional.
type Dependencies struct {
	Snapshots repositories.SnapshotProvider
	Stock     repositories.StockWriter
	Imports   repositories.ImportWriter
	Cache     cache.DashboardCache
	Events    events.Bus
}

// Service answers the dashboard queries of an import
type Service struct {
	config    Config
	snapshots repositories.SnapshotProvider
	stock     repositories.StockWriter
	imports   repositories.ImportWriter
	cache     cache.DashboardCache
	events    events.Bus
	coverage  *coverage.Service
	allocator *allocation.Service
	projector *Projector
	logger    *zap.Logger

	// generations counts invalidations per import. mu also serializes cache
	// writes against invalidation.
	mu          sync.Mutex
	generations map[entities.ImportID]uint64
}

// NewService wires the reconciler, allocator and projector over deps
func NewService(config Config, deps Dependencies, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NopCache{}
	}
	cov := coverage.NewServiceWithConfig(coverage.Config{Workers: config.Workers}, logger)

	s := &Service{
		config:    config,
		snapshots: deps.Snapshots,
		stock:     deps.Stock,
		imports:   deps.Imports,
		cache:     deps.Cache,
		events:    deps.Events,
		coverage:  cov,
		allocator: allocation.NewService(cov, logger),
		projector: NewProjector(),
		logger:    logger,

		generations: make(map[entities.ImportID]uint64),
	}

	if s.events != nil {
		s.events.Subscribe(s.onImportChanged, events.StockManualUpdatedEvent, events.ImportDeletedEvent)
	}
	return s
}

func importPrefix(importID entities.ImportID) string {
	return fmt.Sprintf("import:%d:", importID)
}

func coverageKey(importID entities.ImportID) string {
	return importPrefix(importID) + "coverage"
}

func detailKey(importID entities.ImportID, code entities.MaterialCode) string {
	return importPrefix(importID) + "detail:" + string(code)
}

// GetCoverageDashboard reconciles every material of the import
func (s *Service) GetCoverageDashboard(ctx context.Context, importID entities.ImportID) (*dto.CoverageDashboard, error) {
	key := coverageKey(importID)
	var cached dto.CoverageDashboard
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	gen := s.generation(importID)
	snap, err := s.snapshots.OpenSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer snap.Close()

	result, err := s.coverage.ComputeCoverage(ctx, snap, importID)
	if err != nil {
		return nil, err
	}

	dashboard := &dto.CoverageDashboard{
		ImportID:  importID,
		Materials: result.Materials,
		Summary:   s.projector.CoverageSummary(result.Materials),
		Top:       s.projector.TopMaterials(result.Materials, s.config.TopN),
		Warnings:  result.Warnings,
	}

	s.writeCache(ctx, importID, gen, key, dashboard)
	s.publish(events.NewCoverageComputedEvent(importID, len(result.Materials), dashboard.Summary.TotalShipQty, len(result.Warnings)))
	return dashboard, nil
}

// GetMaterialDetailDashboard allocates one material to its representatives, or
// every material when materialID is empty
func (s *Service) GetMaterialDetailDashboard(
	ctx context.Context,
	importID entities.ImportID,
	materialID entities.MaterialCode,
) (*dto.MaterialDetailDashboard, error) {
	key := detailKey(importID, materialID)
	var cached dto.MaterialDetailDashboard
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	gen := s.generation(importID)
	snap, err := s.snapshots.OpenSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer snap.Close()

	var result *dto.AllocationResult
	if materialID == "" {
		result, err = s.allocator.AllocateAll(ctx, snap, importID)
	} else {
		result, err = s.allocator.Allocate(ctx, snap, importID, materialID)
	}
	if err != nil {
		return nil, err
	}

	dashboard := &dto.MaterialDetailDashboard{
		ImportID:   importID,
		MaterialID: materialID,
		Details:    result.Rows,
		Summary:    s.projector.DetailSummary(result.Rows),
		Warnings:   result.Warnings,
	}
	if dashboard.Details == nil {
		dashboard.Details = []entities.RepresentativeAllocationRow{}
	}
	if materialID != "" && len(result.Materials) == 1 {
		dashboard.MaterialName = result.Materials[0].Description
	}

	s.writeCache(ctx, importID, gen, key, dashboard)
	return dashboard, nil
}

// UpdateStockManual sets (or clears, when value is nil) the manual stock of a
// material. expectedVersion must match the stock row's current version.
func (s *Service) UpdateStockManual(
	ctx context.Context,
	importID entities.ImportID,
	code entities.MaterialCode,
	value *entities.Quantity,
	expectedVersion int64,
) (*entities.StockRecord, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: material code is required", entities.ErrInvalidArgument)
	}
	if value != nil && *value < 0 {
		return nil, fmt.Errorf("%w: manual stock cannot be negative, got %d", entities.ErrInvalidArgument, *value)
	}

	record, err := s.stock.UpdateStockManual(ctx, importID, code, value, expectedVersion)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Manual stock updated",
		zap.Int64("import_id", int64(importID)),
		zap.String("material", string(code)),
		zap.Int64("version", record.Version),
	)

	if s.events != nil {
		s.publish(events.NewStockManualUpdatedEvent(*record, value))
	} else {
		s.invalidate(ctx, importID)
	}
	return record, nil
}

// DeleteImport soft-deletes an import and drops its cached dashboards
func (s *Service) DeleteImport(ctx context.Context, importID entities.ImportID) error {
	if s.imports == nil {
		return fmt.Errorf("%w: import deletion is not configured", entities.ErrInvalidArgument)
	}
	if err := s.imports.SoftDeleteImport(ctx, importID); err != nil {
		return err
	}

	s.logger.Info("Import deleted", zap.Int64("import_id", int64(importID)))

	if s.events != nil {
		s.publish(events.NewImportDeletedEvent(importID))
	} else {
		s.invalidate(ctx, importID)
	}
	return nil
}

func (s *Service) onImportChanged(e events.Event) error {
	switch e.Data.(type) {
	case events.StockManualUpdated, events.ImportDeleted:
	default:
		return fmt.Errorf("unexpected payload %T for %s", e.Data, e.Type)
	}
	s.invalidate(context.Background(), e.ImportID)
	return nil
}

func (s *Service) generation(importID entities.ImportID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[importID]
}

func (s *Service) invalidate(ctx context.Context, importID entities.ImportID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generations[importID]++
	if err := s.cache.DeletePrefix(ctx, importPrefix(importID)); err != nil {
		s.logger.Warn("Dashboard cache invalidation failed",
			zap.Int64("import_id", int64(importID)),
			zap.Error(err),
		)
	}
}

func (s *Service) publish(e events.Event) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Publish(e); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("event_type", e.Type), zap.Error(err))
	}
}

// readCache decodes a cached dashboard into out. Cache failures count as misses.
func (s *Service) readCache(ctx context.Context, key string, out interface{}) bool {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Dashboard cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("Dashboard cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// writeCache stores value unless the import was invalidated after gen was read
func (s *Service) writeCache(ctx context.Context, importID entities.ImportID, gen uint64, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("Failed to encode dashboard", zap.String("key", key), zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[importID] != gen {
		s.logger.Debug("Dashboard changed while computing, not cached", zap.String("key", key))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.config.CacheTTL); err != nil {
		s.logger.Warn("Dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
