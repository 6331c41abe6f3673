package testing

import (
	"time"

	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/infrastructure/repositories/memory"
)

// ScenarioImport is the import id used by the scenario builders
const ScenarioImport entities.ImportID = 1

// mustCreateMaterial is a helper for tests - panics on validation error
func mustCreateMaterial(
	code, description string,
	pack entities.Quantity,
	minStock, maxStock *entities.Quantity,
	useStockReal bool,
) *entities.Material {
	m, err := entities.NewMaterial(entities.MaterialCode(code), description, pack, minStock, maxStock, useStockReal, nil)
	if err != nil {
		panic(err)
	}
	return m
}

// mustCreateDirect is a helper for tests - panics on validation error
func mustCreateDirect(rowID int64, code string, quantity entities.Quantity, supervisor, representative string) *entities.DirectDemand {
	d, err := entities.NewDirectDemand(ScenarioImport, rowID, entities.MaterialCode(code), quantity, supervisor, representative)
	if err != nil {
		panic(err)
	}
	return d
}

// DeletedImport is a soft-deleted import present in every scenario store
var DeletedImport = entities.Import{ID: 99, Name: "Ciclo borrado", Deleted: true}

func scenarioImport() entities.Import {
	return entities.Import{
		ID:        ScenarioImport,
		Name:      "Ciclo 2025-01",
		CreatedAt: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
	}
}

func buildStore(dataset *entities.Dataset) *memory.Store {
	store := memory.NewStore()
	if err := store.Ingest(dataset); err != nil {
		panic(err)
	}
	store.Imports.AddImport(DeletedImport)
	return store
}

// BuildCoverageScenario builds material M1 with pack 10, bounds [20, 100],
// 15 segmented units (two criteria) and 10 direct units, against the given
// effective stock
func BuildCoverageScenario(stock entities.Quantity) *memory.Store {
	return buildStore(CoverageDataset(stock))
}

// CoverageDataset is the dataset behind BuildCoverageScenario
func CoverageDataset(stock entities.Quantity) *entities.Dataset {
	return &entities.Dataset{
		Import: scenarioImport(),
		Materials: []*entities.Material{
			mustCreateMaterial("M1", "Folleto Cardio [0114M]", 10, entities.QuantityPtr(20), entities.QuantityPtr(100), false),
		},
		Stock: []*entities.StockRecord{
			{ImportID: ScenarioImport, Code: "M1", Stock: entities.QuantityPtr(stock), StockReal: entities.QuantityPtr(0)},
		},
		Criteria: []*entities.CriterionDemand{
			{ImportID: ScenarioImport, RowID: 1, Code: "M1", Quantity: 10, PorcenDeAplic: 100, SupervisorCode: "S1", RepresentativeCode: "R1"},
			{ImportID: ScenarioImport, RowID: 2, Code: "M1", Quantity: 5, PorcenDeAplic: 50, SupervisorCode: "S1", RepresentativeCode: "R2"},
		},
		Directs: []*entities.DirectDemand{
			mustCreateDirect(1, "M1", 10, "S2", ""),
		},
		Representatives: roster(),
	}
}

func roster() []*entities.Representative {
	return []*entities.Representative{
		{Code: "R1", Name: "Ana Ruiz", SupervisorCode: "S1"},
		{Code: "R2", Name: "Luis Mora", SupervisorCode: "S1"},
		{Code: "R3", Name: "Eva Sol", SupervisorCode: "S2"},
	}
}

// BuildDistributionScenario builds a multi-material import exercising orphans,
// unbounded materials, stock-only materials, real stock and representative-level
// direct assignments
func BuildDistributionScenario() *memory.Store {
	return buildStore(DistributionDataset())
}

// DistributionDataset is the dataset behind BuildDistributionScenario
func DistributionDataset() *entities.Dataset {
	return &entities.Dataset{
		Import: scenarioImport(),
		Materials: []*entities.Material{
			mustCreateMaterial("A [0010M]", "Muestra Analgesico", 1, entities.QuantityPtr(5), entities.QuantityPtr(40), false),
			mustCreateMaterial("B [0020M]", "Muestra Antibiotico", 6, nil, nil, true),
			mustCreateMaterial("C [0030M]", "Recetario", 1, entities.QuantityPtr(10), entities.QuantityPtr(50), false),
			mustCreateMaterial("D [0040M]", "Solo stock", 1, nil, nil, false),
		},
		Stock: []*entities.StockRecord{
			{ImportID: ScenarioImport, Code: "A [0010M]", Stock: entities.QuantityPtr(7)},
			{ImportID: ScenarioImport, Code: "B [0020M]", Stock: entities.QuantityPtr(500), StockReal: entities.QuantityPtr(24)},
			{ImportID: ScenarioImport, Code: "C [0030M]", Stock: entities.QuantityPtr(-3)},
			{ImportID: ScenarioImport, Code: "D [0040M]", Stock: entities.QuantityPtr(12)},
		},
		Criteria: []*entities.CriterionDemand{
			{ImportID: ScenarioImport, RowID: 10, Code: "A [0010M]", Quantity: 7, PorcenDeAplic: 100, SupervisorCode: "S1", RepresentativeCode: "R1"},
			{ImportID: ScenarioImport, RowID: 11, Code: "A [0010M]", Quantity: 3, PorcenDeAplic: 100, SupervisorCode: "S1", RepresentativeCode: "R2"},
			{ImportID: ScenarioImport, RowID: 12, Code: "B [0020M]", Quantity: 8, PorcenDeAplic: 80, SupervisorCode: "S1", RepresentativeCode: "R1"},
			{ImportID: ScenarioImport, RowID: 13, Code: "B [0020M]", Quantity: 8, PorcenDeAplic: 80, SupervisorCode: "S2", RepresentativeCode: "R3"},
			{ImportID: ScenarioImport, RowID: 14, Code: "C [0030M]", Quantity: 20, PorcenDeAplic: 100, SupervisorCode: "S2", RepresentativeCode: "R3"},
			{ImportID: ScenarioImport, RowID: 15, Code: "Z [0990M]", Quantity: 4, PorcenDeAplic: 100, SupervisorCode: "S1", RepresentativeCode: "R2"},
		},
		Directs: []*entities.DirectDemand{
			mustCreateDirect(20, "B [0020M]", 4, "", "R2"),
			mustCreateDirect(21, "B [0020M]", 2, "S2", ""),
		},
		Representatives: roster(),
	}
}

// UnstockedDataset builds material E with 5 segmented units and no stock row
func UnstockedDataset() *entities.Dataset {
	return &entities.Dataset{
		Import: scenarioImport(),
		Materials: []*entities.Material{
			mustCreateMaterial("E [0050M]", "Sin stock", 1, nil, nil, false),
		},
		Criteria: []*entities.CriterionDemand{
			{ImportID: ScenarioImport, RowID: 30, Code: "E [0050M]", Quantity: 5, PorcenDeAplic: 100, SupervisorCode: "S1", RepresentativeCode: "R1"},
		},
		Representatives: roster(),
	}
}

// BuildUnstockedScenario builds the store behind UnstockedDataset
func BuildUnstockedScenario() *memory.Store {
	return buildStore(UnstockedDataset())
}
