package main

import (
	"context"
	"fmt"
	"time"

	"github.com/vsinha/sampledist/pkg/application/services/dashboard"
	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()

	// One cycle: a brochure packed by 10, bounded to [20, 100]
	dataset := &entities.Dataset{
		Import: entities.Import{ID: 1, Name: "Ciclo demo", CreatedAt: time.Now().UTC()},
		Materials: []*entities.Material{
			{
				Code:        "FOLLETO [0114M]",
				Description: "Folleto Cardio",
				Pack:        10,
				MinStock:    entities.QuantityPtr(20),
				MaxStock:    entities.QuantityPtr(100),
			},
		},
		Stock: []*entities.StockRecord{
			{Code: "FOLLETO [0114M]", Stock: entities.QuantityPtr(45)},
		},
		Criteria: []*entities.CriterionDemand{
			{RowID: 1, Code: "FOLLETO [0114M]", Quantity: 12, PorcenDeAplic: 100, SupervisorCode: "S1", RepresentativeCode: "R1"},
			{RowID: 2, Code: "FOLLETO [0114M]", Quantity: 9, PorcenDeAplic: 100, SupervisorCode: "S1", RepresentativeCode: "R2"},
			{RowID: 3, Code: "FOLLETO [0114M]", Quantity: 10, PorcenDeAplic: 50, SupervisorCode: "S2", RepresentativeCode: "R3"},
		},
		Directs: []*entities.DirectDemand{
			{RowID: 1, Code: "FOLLETO [0114M]", Quantity: 6, SupervisorCode: "S2"},
		},
		Representatives: []*entities.Representative{
			{Code: "R1", Name: "Ana Ruiz", SupervisorCode: "S1"},
			{Code: "R2", Name: "Luis Mora", SupervisorCode: "S1"},
			{Code: "R3", Name: "Eva Sol", SupervisorCode: "S2"},
		},
	}
	dataset.Stamp(dataset.Import.ID)

	store := memory.NewStore()
	if err := store.Ingest(dataset); err != nil {
		fmt.Printf("❌ Load failed: %v\n", err)
		return
	}
	svc := dashboard.NewService(dashboard.DefaultConfig(), dashboard.Dependencies{Snapshots: store, Stock: store}, nil)

	fmt.Println("📊 Reconciling coverage...")
	cov, err := svc.GetCoverageDashboard(ctx, 1)
	if err != nil {
		fmt.Printf("❌ Coverage failed: %v\n", err)
		return
	}
	for _, m := range cov.Materials {
		fmt.Printf("  %s: total %d, adjusted %d, stock %d, ship %d (%s)\n",
			m.MaterialID, m.TotalQty, m.AdjustedQty, m.Stock, m.ShipQty, m.Semaforo)
	}
	fmt.Println()

	fmt.Println("📦 Distributing to representatives...")
	detail, err := svc.GetMaterialDetailDashboard(ctx, 1, "FOLLETO [0114M]")
	if err != nil {
		fmt.Printf("❌ Distribution failed: %v\n", err)
		return
	}
	for _, row := range detail.Details {
		holder := row.Supervisor + " (jefe)"
		if row.RepresentativeCode != nil {
			holder = *row.RepresentativeCode
		}
		fmt.Printf("  %-12s %d\n", holder, row.ShipQty)
	}
	fmt.Printf("\n✅ %d units to %d representatives and %d jefes\n",
		detail.Summary.TotalShipQty, detail.Summary.TotalRepresentatives, detail.Summary.TotalJefes)
}
