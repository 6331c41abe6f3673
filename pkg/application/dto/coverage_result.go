package dto

import (
	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// CoverageResult contains the complete output of a reconciliation run
type CoverageResult struct {
	ImportID  entities.ImportID
	Materials []entities.MaterialCoverageResult
	Warnings  []entities.DataIntegrityWarning
}

// Material returns the result row of one material, or nil
func (r *CoverageResult) Material(code entities.MaterialCode) *entities.MaterialCoverageResult {
	for i := range r.Materials {
		if r.Materials[i].MaterialID == code {
			return &r.Materials[i]
		}
	}
	return nil
}

// AllocationResult contains the per-representative expansion of one or more
// materials together with the coverage rows it was derived from
type AllocationResult struct {
	ImportID  entities.ImportID
	Materials []entities.MaterialCoverageResult
	Rows      []entities.RepresentativeAllocationRow
	Warnings  []entities.DataIntegrityWarning
}

// CoverageSummary aggregates the coverage dashboard
type CoverageSummary struct {
	TotalMaterials             int               `json:"totalMaterials"`
	TotalStock                 entities.Quantity `json:"totalStock"`
	TotalShipQty               entities.Quantity `json:"totalCantEnviar"`
	AverageCoverage            float64           `json:"averageCoverage"`
	MaterialsWithNegativeStock int               `json:"materialsWithNegativeStock"`
	MaterialsWithinRange       int               `json:"materialsWithinRange"`
}

// CoverageDashboard is the payload of the coverage dashboard
type CoverageDashboard struct {
	ImportID  entities.ImportID                 `json:"importId"`
	Materials []entities.MaterialCoverageResult `json:"materials"`
	Summary   CoverageSummary                   `json:"summary"`
	Top       []entities.MaterialCoverageResult `json:"topMaterials"`
	Warnings  []entities.DataIntegrityWarning   `json:"warnings"`
}

// DetailSummary aggregates the material detail dashboard
type DetailSummary struct {
	TotalRecords           int               `json:"totalRecords"`
	TotalRepresentatives   int               `json:"totalRepresentantes"`
	TotalSupervisors       int               `json:"totalSupervisores"`
	TotalShipQty           entities.Quantity `json:"totalCantEnviar"`
	TotalJefes             int               `json:"totalJefes"`
	ShipQtyJefes           entities.Quantity `json:"cantEnviarJefes"`
	ShipQtyRepresentatives entities.Quantity `json:"cantEnviarRepresentantes"`
}

// MaterialDetailDashboard is the payload of the material detail (or general
// distribution, when MaterialID is empty) dashboard
type MaterialDetailDashboard struct {
	ImportID     entities.ImportID                      `json:"importId"`
	MaterialID   entities.MaterialCode                  `json:"materialId"`
	MaterialName string                                 `json:"materialName"`
	Details      []entities.RepresentativeAllocationRow `json:"details"`
	Summary      DetailSummary                          `json:"summary"`
	Warnings     []entities.DataIntegrityWarning        `json:"warnings"`
}
