package coverage

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/sampledist/pkg/application/dto"
	"github.com/vsinha/sampledist/pkg/application/services/shared"
	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/domain/repositories"
	"github.com/vsinha/sampledist/pkg/domain/services"
)

// Config holds configuration for the reconciler
type Config struct {
	// Workers bounds the number of materials reconciled concurrently (0 = GOMAXPROCS)
	Workers int
}

// Service reconciles per-material demand against stock, packs and bounds
type Service struct {
	config Config
	logger *zap.Logger
	codes  *services.MaterialCodeComparator
}

// NewService creates a reconciler with default configuration
func NewService(logger *zap.Logger) *Service {
	return NewServiceWithConfig(Config{}, logger)
}

// NewServiceWithConfig creates a reconciler with custom configuration
func NewServiceWithConfig(config Config, logger *zap.Logger) *Service {
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		config: config,
		logger: logger,
		codes:  services.NewMaterialCodeComparator(),
	}
}

// ComputeCoverage produces one result per material referenced by demand, the
// catalog or a stock row of the import
func (s *Service) ComputeCoverage(
	ctx context.Context,
	snap repositories.Snapshot,
	importID entities.ImportID,
) (*dto.CoverageResult, error) {
	diag := shared.NewDiagnostics(s.logger)
	results, _, err := s.Reconciliation(ctx, snap, importID, diag)
	if err != nil {
		return nil, err
	}
	return &dto.CoverageResult{
		ImportID:  importID,
		Materials: results,
		Warnings:  diag.Warnings(),
	}, nil
}

// Reconciliation reconciles every material of the import and also returns the
// demand index the results were computed from
func (s *Service) Reconciliation(
	ctx context.Context,
	snap repositories.Snapshot,
	importID entities.ImportID,
	diag *shared.Diagnostics,
) ([]entities.MaterialCoverageResult, shared.DemandIndex, error) {
	start := time.Now()

	if _, err := snap.GetImport(ctx, importID); err != nil {
		return nil, nil, err
	}

	criteria, err := snap.ListCriterionDemands(ctx, importID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list criterion demands: %w", err)
	}
	directs, err := snap.ListDirectDemands(ctx, importID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list direct demands: %w", err)
	}
	materials, err := snap.ListMaterials(ctx, importID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list materials: %w", err)
	}
	stock, err := snap.ListStock(ctx, importID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list stock: %w", err)
	}

	index := shared.BuildDemandIndex(importID, criteria, directs, diag)

	materialByCode := make(map[entities.MaterialCode]*entities.Material, len(materials))
	for _, m := range materials {
		materialByCode[m.Code] = m
	}
	stockByCode := make(map[entities.MaterialCode]*entities.StockRecord, len(stock))
	for _, st := range stock {
		stockByCode[st.Code] = st
	}

	codes := s.materialUniverse(index, materialByCode, stockByCode)
	results := make([]entities.MaterialCoverageResult, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i, code := range codes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.Reconcile(importID, code, materialByCode[code], stockByCode[code], index.Get(code), diag)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("coverage computation for import %d aborted: %w", importID, err)
	}

	s.logger.Debug("Coverage computed",
		zap.Int64("import_id", int64(importID)),
		zap.Int("materials", len(results)),
		zap.Int64("segmented_qty", int64(index.GetTotalSegmented())),
		zap.Int64("direct_qty", int64(index.GetTotalDirect())),
		zap.Int("warnings", diag.Len()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Stringer("demand", index),
	)

	return results, index, nil
}

// ComputeMaterialCoverage reconciles a single material using point lookups
func (s *Service) ComputeMaterialCoverage(
	ctx context.Context,
	snap repositories.Snapshot,
	importID entities.ImportID,
	code entities.MaterialCode,
) (*entities.MaterialCoverageResult, []entities.DataIntegrityWarning, error) {
	diag := shared.NewDiagnostics(s.logger)
	result, _, err := s.MaterialReconciliation(ctx, snap, importID, code, diag)
	if err != nil {
		return nil, nil, err
	}
	return result, diag.Warnings(), nil
}

// MaterialReconciliation reconciles one material and returns its demand context,
// which is nil when no demand row references the material
func (s *Service) MaterialReconciliation(
	ctx context.Context,
	snap repositories.Snapshot,
	importID entities.ImportID,
	code entities.MaterialCode,
	diag *shared.Diagnostics,
) (*entities.MaterialCoverageResult, *shared.DemandContext, error) {
	if _, err := snap.GetImport(ctx, importID); err != nil {
		return nil, nil, err
	}

	material, err := snap.GetMaterial(ctx, importID, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get material %s: %w", code, err)
	}
	stock, err := snap.GetStock(ctx, importID, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get stock of %s: %w", code, err)
	}
	criteria, err := snap.ListCriterionDemands(ctx, importID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list criterion demands: %w", err)
	}
	directs, err := snap.ListDirectDemands(ctx, importID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list direct demands: %w", err)
	}

	criteria = filterCriteria(criteria, code)
	directs = filterDirects(directs, code)
	demand := shared.BuildDemandIndex(importID, criteria, directs, diag).Get(code)
	if material == nil && stock == nil && demand == nil {
		return nil, nil, entities.MaterialNotFound(importID, code)
	}

	result := s.Reconcile(importID, code, material, stock, demand, diag)
	return &result, demand, nil
}

// Reconcile applies pack rounding, stock bounds and stock availability to one
// material's demand. material, stock and demand may each be nil.
func (s *Service) Reconcile(
	importID entities.ImportID,
	code entities.MaterialCode,
	material *entities.Material,
	stock *entities.StockRecord,
	demand *shared.DemandContext,
	diag *shared.Diagnostics,
) entities.MaterialCoverageResult {
	result := entities.MaterialCoverageResult{
		MaterialID: code,
		Pack:       1,
	}

	if demand != nil {
		result.SegmentedQty = demand.SegmentedQty
		result.DirectQty = demand.DirectQty
	}
	result.TotalQty = result.SegmentedQty + result.DirectQty

	if material == nil {
		diag.Warn(importID, code, entities.WarningOrphanMaterial,
			"material is not in the import catalog, reconciled with pack 1 and no bounds")
	} else {
		result.Description = material.Description
		result.MinStock = material.MinStock
		result.MaxStock = material.MaxStock
		result.Pack = material.Pack
		if result.Pack < 1 {
			diag.Warn(importID, code, entities.WarningInvalidPack,
				fmt.Sprintf("pack %d is below 1, treated as 1", material.Pack))
			result.Pack = 1
		}
	}

	adj := services.AdjustQuantity(result.TotalQty, result.Pack, result.MinStock, result.MaxStock)
	if adj.InvertedBounds {
		diag.Warn(importID, code, entities.WarningInvertedBounds,
			fmt.Sprintf("min stock %d exceeds max stock %d", *result.MinStock, *result.MaxStock))
	}
	result.AdjustedQty = adj.Quantity

	if material == nil {
		// orphans reconcile against their stock row, or zero stock
		result.Stock, result.StockKnown = entities.EffectiveStock(nil, stock)
		result.StockKnown = true
	} else {
		result.Stock, result.StockKnown = entities.EffectiveStock(material, stock)
	}

	if stock != nil {
		result.StockVersion = stock.Version
	}

	result.ShipQty = services.ClipToStock(result.AdjustedQty, result.Stock, result.StockKnown)
	if result.Stock < 0 {
		diag.Warn(importID, code, entities.WarningNegativeStock,
			fmt.Sprintf("effective stock is %d, ship quantity %d", result.Stock, result.ShipQty))
	}

	result.Coverage, _ = services.Ratio(result.ShipQty, result.TotalQty)
	if result.MinStock != nil && *result.MinStock > 0 {
		r, _ := services.Ratio(result.ShipQty, *result.MinStock)
		result.CoverageOfMinStock = &r
	}
	result.Semaforo = services.ClassifySemaforo(result.ShipQty, result.MinStock, result.MaxStock)

	return result
}

// materialUniverse returns every material code of the import in display order
func (s *Service) materialUniverse(
	index shared.DemandIndex,
	materials map[entities.MaterialCode]*entities.Material,
	stock map[entities.MaterialCode]*entities.StockRecord,
) []entities.MaterialCode {
	seen := make(map[entities.MaterialCode]bool, len(materials)+index.Size())
	var codes []entities.MaterialCode
	add := func(code entities.MaterialCode) {
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	for _, code := range index.Codes() {
		add(code)
	}
	for code := range materials {
		add(code)
	}
	for code := range stock {
		add(code)
	}

	s.SortCodes(codes)
	return codes
}

// SortCodes orders material codes by display code, then by code
func (s *Service) SortCodes(codes []entities.MaterialCode) {
	sort.Slice(codes, func(i, j int) bool { return s.codes.Less(codes[i], codes[j]) })
}

func filterCriteria(rows []*entities.CriterionDemand, code entities.MaterialCode) []*entities.CriterionDemand {
	var out []*entities.CriterionDemand
	for _, r := range rows {
		if r.Code == code {
			out = append(out, r)
		}
	}
	return out
}

func filterDirects(rows []*entities.DirectDemand, code entities.MaterialCode) []*entities.DirectDemand {
	var out []*entities.DirectDemand
	for _, r := range rows {
		if r.Code == code {
			out = append(out, r)
		}
	}
	return out
}
