package dashboard

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sampledist/pkg/application/dto"
	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// Projector aggregates reconciler and allocator output for display
type Projector struct{}

// NewProjector creates a projector
func NewProjector() *Projector {
	return &Projector{}
}

// CoverageSummary totals the coverage rows. The average coverage only counts
// materials with demand, since the ratio is undefined otherwise.
func (p *Projector) CoverageSummary(materials []entities.MaterialCoverageResult) dto.CoverageSummary {
	summary := dto.CoverageSummary{TotalMaterials: len(materials)}

	coverageSum := decimal.Zero
	defined := 0
	for _, m := range materials {
		summary.TotalStock += m.Stock
		summary.TotalShipQty += m.ShipQty
		if m.ShipQty < 0 {
			summary.MaterialsWithNegativeStock++
		}
		if m.Semaforo == entities.Verde {
			summary.MaterialsWithinRange++
		}
		if m.TotalQty > 0 {
			coverageSum = coverageSum.Add(decimal.NewFromFloat(m.Coverage))
			defined++
		}
	}

	if defined > 0 {
		summary.AverageCoverage = coverageSum.DivRound(decimal.NewFromInt(int64(defined)), 4).InexactFloat64()
	}
	return summary
}

// DetailSummary totals allocation rows
func (p *Projector) DetailSummary(rows []entities.RepresentativeAllocationRow) dto.DetailSummary {
	summary := dto.DetailSummary{TotalRecords: len(rows)}

	reps := make(map[string]bool)
	supervisors := make(map[string]bool)
	jefes := make(map[string]bool)
	for _, r := range rows {
		summary.TotalShipQty += r.ShipQty
		if r.Supervisor != "" {
			supervisors[r.Supervisor] = true
		}
		if r.IsJefe {
			jefes[r.Supervisor] = true
			summary.ShipQtyJefes += r.ShipQty
			continue
		}
		if r.RepresentativeCode != nil {
			reps[*r.RepresentativeCode] = true
		}
		summary.ShipQtyRepresentatives += r.ShipQty
	}

	summary.TotalRepresentatives = len(reps)
	summary.TotalSupervisors = len(supervisors)
	summary.TotalJefes = len(jefes)
	return summary
}

// TopMaterials returns the n materials with the largest ship quantity. Equal
// quantities keep their input order.
func (p *Projector) TopMaterials(materials []entities.MaterialCoverageResult, n int) []entities.MaterialCoverageResult {
	if n <= 0 {
		return nil
	}
	top := append([]entities.MaterialCoverageResult(nil), materials...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].ShipQty > top[j].ShipQty })
	if len(top) > n {
		top = top[:n]
	}
	return top
}
