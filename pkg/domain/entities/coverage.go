package entities

// Semaforo is the traffic-light status of a material's coverage
type Semaforo string

const (
	Verde    Semaforo = "VERDE"
	Amarillo Semaforo = "AMARILLO"
	Rojo     Semaforo = "ROJO"
)

// String method for Semaforo enum
func (s Semaforo) String() string {
	return string(s)
}

// MaterialCoverageResult is the reconciled ship quantity of one material in one import
type MaterialCoverageResult struct {
	MaterialID         MaterialCode `json:"materialId"`
	Description        string       `json:"description"`
	Pack               Quantity     `json:"pack"`
	MinStock           *Quantity    `json:"minStock"`
	MaxStock           *Quantity    `json:"maxStock"`
	SegmentedQty       Quantity     `json:"cantXCriterioSegmentado"`
	DirectQty          Quantity     `json:"cantidadCrierioDirecto"`
	TotalQty           Quantity     `json:"cantTotal"`
	AdjustedQty        Quantity     `json:"cantAjustada"`
	Stock              Quantity     `json:"stock"`
	StockKnown         bool         `json:"stockKnown"`
	StockVersion       int64        `json:"stockVersion"`
	ShipQty            Quantity     `json:"cantEnviar"`
	Coverage           float64      `json:"porcCobert"`
	CoverageOfMinStock *float64     `json:"porcCobertStockMin"`
	Semaforo           Semaforo     `json:"semaforo"`
}

// RepresentativeAllocationRow is one representative's (or one delegation's) share of a
// material's ship quantity
type RepresentativeAllocationRow struct {
	Supervisor         string       `json:"supervisor"`
	RepresentativeCode *string      `json:"representativeCode"`
	MaterialID         MaterialCode `json:"materialId"`
	ShipQty            Quantity     `json:"cantEnviar"`
	IsJefe             bool         `json:"isJefe"`
}

// WarningKind classifies a non-fatal data problem found during reconciliation
type WarningKind string

const (
	WarningOrphanMaterial        WarningKind = "orphan_material"
	WarningInvalidPack           WarningKind = "invalid_pack"
	WarningInvertedBounds        WarningKind = "inverted_bounds"
	WarningNegativeStock         WarningKind = "negative_stock"
	WarningNegativeDemand        WarningKind = "negative_demand"
	WarningUnallocatableQuantity WarningKind = "unallocatable_quantity"
	WarningUnknownRepresentative WarningKind = "unknown_representative"
)

// DataIntegrityWarning reports a data anomaly that was skipped instead of aborting
type DataIntegrityWarning struct {
	ImportID     ImportID     `json:"importId"`
	MaterialCode MaterialCode `json:"materialId"`
	Kind         WarningKind  `json:"kind"`
	Message      string       `json:"message"`
}

func (w DataIntegrityWarning) String() string {
	return string(w.Kind) + " [" + string(w.MaterialCode) + "]: " + w.Message
}
