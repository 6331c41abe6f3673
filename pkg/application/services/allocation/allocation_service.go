package allocation

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/vsinha/sampledist/pkg/application/dto"
	"github.com/vsinha/sampledist/pkg/application/services/coverage"
	"github.com/vsinha/sampledist/pkg/application/services/shared"
	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/domain/repositories"
	"github.com/vsinha/sampledist/pkg/domain/services"
)

// Service expands reconciled ship quantities into per-representative rows
type Service struct {
	coverage *coverage.Service
	logger   *zap.Logger
}

// NewService creates an allocator on top of a reconciler
func NewService(cov *coverage.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cov == nil {
		cov = coverage.NewService(logger)
	}
	return &Service{
		coverage: cov,
		logger:   logger,
	}
}

// Allocate reconciles one material and splits its ship quantity over its claimants
func (s *Service) Allocate(
	ctx context.Context,
	snap repositories.Snapshot,
	importID entities.ImportID,
	code entities.MaterialCode,
) (*dto.AllocationResult, error) {
	diag := shared.NewDiagnostics(s.logger)

	result, demand, err := s.coverage.MaterialReconciliation(ctx, snap, importID, code, diag)
	if err != nil {
		return nil, err
	}
	roster, err := loadRoster(ctx, snap, importID)
	if err != nil {
		return nil, err
	}

	return &dto.AllocationResult{
		ImportID:  importID,
		Materials: []entities.MaterialCoverageResult{*result},
		Rows:      AllocateResult(importID, result, demand, roster, diag),
		Warnings:  diag.Warnings(),
	}, nil
}

// AllocateAll reconciles and allocates every material of the import
func (s *Service) AllocateAll(
	ctx context.Context,
	snap repositories.Snapshot,
	importID entities.ImportID,
) (*dto.AllocationResult, error) {
	diag := shared.NewDiagnostics(s.logger)

	results, index, err := s.coverage.Reconciliation(ctx, snap, importID, diag)
	if err != nil {
		return nil, err
	}
	roster, err := loadRoster(ctx, snap, importID)
	if err != nil {
		return nil, err
	}

	var rows []entities.RepresentativeAllocationRow
	for i := range results {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("allocation for import %d aborted: %w", importID, err)
		}
		rows = append(rows, AllocateResult(importID, &results[i], index.Get(results[i].MaterialID), roster, diag)...)
	}

	s.logger.Debug("Allocation computed",
		zap.Int64("import_id", int64(importID)),
		zap.Int("materials", len(results)),
		zap.Int("rows", len(rows)),
	)

	return &dto.AllocationResult{
		ImportID:  importID,
		Materials: results,
		Rows:      rows,
		Warnings:  diag.Warnings(),
	}, nil
}

func loadRoster(
	ctx context.Context,
	snap repositories.Snapshot,
	importID entities.ImportID,
) (map[string]*entities.Representative, error) {
	reps, err := snap.ListRepresentatives(ctx, importID)
	if err != nil {
		return nil, fmt.Errorf("failed to list representatives: %w", err)
	}
	roster := make(map[string]*entities.Representative, len(reps))
	for _, rep := range reps {
		roster[rep.Code] = rep
	}
	return roster, nil
}

// claim is one claimant's requested quantity
type claim struct {
	holder holderKey
	qty    entities.Quantity
}

// holderKey identifies an output row
type holderKey struct {
	supervisor     string
	representative string
	jefe           bool
}

// AllocateResult splits result.ShipQty over the criterion and direct claims in
// demand. Direct claims are served first; the remainder goes to criterion claims.
// The returned rows always sum to result.ShipQty, or are empty when the quantity
// cannot be allocated.
func AllocateResult(
	importID entities.ImportID,
	result *entities.MaterialCoverageResult,
	demand *shared.DemandContext,
	roster map[string]*entities.Representative,
	diag *shared.Diagnostics,
) []entities.RepresentativeAllocationRow {
	code := result.MaterialID
	ship := result.ShipQty

	if ship < 0 {
		diag.Warn(importID, code, entities.WarningUnallocatableQuantity,
			fmt.Sprintf("ship quantity %d is negative, no rows produced", ship))
		return nil
	}

	var criteria, directs []claim
	if demand != nil {
		criteria = criterionClaims(importID, code, demand.Criteria, roster, diag)
		directs = directClaims(importID, code, demand.Directs, roster, diag)
	}
	criteriaSum := sumClaims(criteria)
	directSum := sumClaims(directs)

	if ship > 0 && criteriaSum+directSum == 0 {
		diag.Warn(importID, code, entities.WarningUnallocatableQuantity,
			fmt.Sprintf("ship quantity %d has no demand to allocate against", ship))
		return nil
	}

	directPortion := ship
	if criteriaSum > 0 {
		directPortion = min(ship, directSum)
	}
	criteriaPortion := ship - directPortion

	shares := make(map[holderKey]entities.Quantity)
	var order []holderKey
	distribute := func(claims []claim, portion entities.Quantity) {
		if len(claims) == 0 {
			return
		}
		sizes := make([]entities.Quantity, len(claims))
		for i, c := range claims {
			sizes[i] = c.qty
		}
		split, err := services.Apportion(sizes, portion)
		if err != nil {
			// an empty or all-zero claim set only receives a zero portion
			split = make([]entities.Quantity, len(claims))
		}
		for i, c := range claims {
			if _, seen := shares[c.holder]; !seen {
				order = append(order, c.holder)
			}
			shares[c.holder] += split[i]
		}
	}
	distribute(directs, directPortion)
	distribute(criteria, criteriaPortion)

	rows := make([]entities.RepresentativeAllocationRow, 0, len(order))
	for _, h := range order {
		row := entities.RepresentativeAllocationRow{
			Supervisor: h.supervisor,
			MaterialID: code,
			ShipQty:    shares[h],
			IsJefe:     h.jefe,
		}
		if !h.jefe {
			rep := h.representative
			row.RepresentativeCode = &rep
		}
		rows = append(rows, row)
	}
	SortRows(rows)
	return rows
}

func criterionClaims(
	importID entities.ImportID,
	code entities.MaterialCode,
	rows []*entities.CriterionDemand,
	roster map[string]*entities.Representative,
	diag *shared.Diagnostics,
) []claim {
	sorted := append([]*entities.CriterionDemand(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RowID < sorted[j].RowID })

	claims := make([]claim, 0, len(sorted))
	for _, c := range sorted {
		var h holderKey
		switch {
		case c.RepresentativeCode != "":
			h = holderKey{supervisor: c.SupervisorCode, representative: c.RepresentativeCode}
			if h.supervisor == "" {
				h.supervisor = resolveSupervisor(importID, code, c.RepresentativeCode, roster, diag)
			}
		case c.SupervisorCode != "":
			h = holderKey{supervisor: c.SupervisorCode, jefe: true}
		default:
			diag.Warn(importID, code, entities.WarningUnknownRepresentative,
				fmt.Sprintf("criterion row %d has no supervisor or representative, booked as an unassigned delegation", c.RowID))
			h = holderKey{jefe: true}
		}
		claims = append(claims, claim{holder: h, qty: c.Quantity})
	}
	return claims
}

func directClaims(
	importID entities.ImportID,
	code entities.MaterialCode,
	rows []*entities.DirectDemand,
	roster map[string]*entities.Representative,
	diag *shared.Diagnostics,
) []claim {
	sorted := append([]*entities.DirectDemand(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RowID < sorted[j].RowID })

	claims := make([]claim, 0, len(sorted))
	for _, d := range sorted {
		var h holderKey
		if d.IsDelegation() {
			h = holderKey{supervisor: d.SupervisorCode, jefe: true}
		} else {
			h = holderKey{
				supervisor:     resolveSupervisor(importID, code, d.RepresentativeCode, roster, diag),
				representative: d.RepresentativeCode,
			}
		}
		claims = append(claims, claim{holder: h, qty: d.Quantity})
	}
	return claims
}

func resolveSupervisor(
	importID entities.ImportID,
	code entities.MaterialCode,
	representative string,
	roster map[string]*entities.Representative,
	diag *shared.Diagnostics,
) string {
	if rep, ok := roster[representative]; ok {
		return rep.SupervisorCode
	}
	diag.Warn(importID, code, entities.WarningUnknownRepresentative,
		fmt.Sprintf("representative %s is not in the roster, supervisor left empty", representative))
	return ""
}

func sumClaims(claims []claim) entities.Quantity {
	var total entities.Quantity
	for _, c := range claims {
		total += c.qty
	}
	return total
}

// SortRows orders rows by supervisor, the supervisor's own row first, then by
// representative and material
func SortRows(rows []entities.RepresentativeAllocationRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Supervisor != b.Supervisor {
			return a.Supervisor < b.Supervisor
		}
		if a.IsJefe != b.IsJefe {
			return a.IsJefe
		}
		if ra, rb := repCode(a), repCode(b); ra != rb {
			return ra < rb
		}
		return a.MaterialID < b.MaterialID
	})
}

func repCode(row entities.RepresentativeAllocationRow) string {
	if row.RepresentativeCode == nil {
		return ""
	}
	return *row.RepresentativeCode
}
