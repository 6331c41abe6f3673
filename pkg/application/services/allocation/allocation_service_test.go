package allocation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/vsinha/sampledist/pkg/application/services/coverage"
	"github.com/vsinha/sampledist/pkg/application/services/shared"
	"github.com/vsinha/sampledist/pkg/domain/entities"
	testhelpers "github.com/vsinha/sampledist/pkg/infrastructure/testing"
)

var testRoster = map[string]*entities.Representative{
	"R1": {Code: "R1", SupervisorCode: "S1"},
	"R2": {Code: "R2", SupervisorCode: "S1"},
	"R3": {Code: "R3", SupervisorCode: "S2"},
}

func criteria(code entities.MaterialCode, holders ...interface{}) []*entities.CriterionDemand {
	var rows []*entities.CriterionDemand
	for i := 0; i+2 < len(holders); i += 3 {
		rows = append(rows, &entities.CriterionDemand{
			ImportID:           1,
			RowID:              int64(i/3 + 1),
			Code:               code,
			SupervisorCode:     holders[i].(string),
			RepresentativeCode: holders[i+1].(string),
			Quantity:           entities.Quantity(holders[i+2].(int)),
		})
	}
	return rows
}

func rowKey(row entities.RepresentativeAllocationRow) string {
	if row.IsJefe {
		return row.Supervisor + "/*"
	}
	return row.Supervisor + "/" + *row.RepresentativeCode
}

func rowMap(rows []entities.RepresentativeAllocationRow) map[string]entities.Quantity {
	m := make(map[string]entities.Quantity, len(rows))
	for _, r := range rows {
		m[rowKey(r)] += r.ShipQty
	}
	return m
}

func sumRows(rows []entities.RepresentativeAllocationRow) entities.Quantity {
	var total entities.Quantity
	for _, r := range rows {
		total += r.ShipQty
	}
	return total
}

func TestAllocateResult_ProportionalScaling(t *testing.T) {
	tests := []struct {
		name   string
		claims []*entities.CriterionDemand
		ship   entities.Quantity
		want   map[string]entities.Quantity
	}{
		{
			name:   "integral_shares",
			claims: criteria("M", "S1", "R1", 10, "S1", "R2", 5),
			ship:   9,
			want:   map[string]entities.Quantity{"S1/R1": 6, "S1/R2": 3},
		},
		{
			name:   "largest_fraction_gets_remainder",
			claims: criteria("M", "S1", "R1", 7, "S2", "R3", 3),
			ship:   7,
			want:   map[string]entities.Quantity{"S1/R1": 5, "S2/R3": 2},
		},
		{
			name:   "full_coverage",
			claims: criteria("M", "S1", "R1", 4, "S1", "R2", 6),
			ship:   10,
			want:   map[string]entities.Quantity{"S1/R1": 4, "S1/R2": 6},
		},
		{
			name:   "pack_rounding_surplus",
			claims: criteria("M", "S1", "R1", 5, "S1", "R2", 5),
			ship:   12,
			want:   map[string]entities.Quantity{"S1/R1": 6, "S1/R2": 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			demand := &shared.DemandContext{Criteria: tt.claims}
			for _, c := range tt.claims {
				demand.SegmentedQty += c.Quantity
			}
			result := &entities.MaterialCoverageResult{MaterialID: "M", TotalQty: demand.TotalQty(), ShipQty: tt.ship}

			rows := AllocateResult(1, result, demand, testRoster, nil)

			got := rowMap(rows)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d rows, got %v", len(tt.want), got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("Row %s: expected %d, got %d", k, v, got[k])
				}
			}
			if sumRows(rows) != tt.ship {
				t.Errorf("Expected rows to sum to %d, got %d", tt.ship, sumRows(rows))
			}
		})
	}
}

func TestAllocateResult_DirectClaimsFirst(t *testing.T) {
	directs := []*entities.DirectDemand{
		{ImportID: 1, RowID: 1, Code: "M", Quantity: 10, SupervisorCode: "S2"},
		{ImportID: 1, RowID: 2, Code: "M", Quantity: 4, RepresentativeCode: "R3"},
	}
	demand := &shared.DemandContext{
		SegmentedQty: 15,
		DirectQty:    14,
		Criteria:     criteria("M", "S1", "R1", 10, "S1", "R2", 5),
		Directs:      directs,
	}

	tests := []struct {
		ship entities.Quantity
		want map[string]entities.Quantity
	}{
		{ship: 29, want: map[string]entities.Quantity{"S2/*": 10, "S2/R3": 4, "S1/R1": 10, "S1/R2": 5}},
		{ship: 20, want: map[string]entities.Quantity{"S2/*": 10, "S2/R3": 4, "S1/R1": 4, "S1/R2": 2}},
		{ship: 7, want: map[string]entities.Quantity{"S2/*": 5, "S2/R3": 2, "S1/R1": 0, "S1/R2": 0}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("ship_%d", tt.ship), func(t *testing.T) {
			result := &entities.MaterialCoverageResult{MaterialID: "M", TotalQty: 29, ShipQty: tt.ship}
			rows := AllocateResult(1, result, demand, testRoster, nil)

			got := rowMap(rows)
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("Row %s: expected %d, got %d (all: %v)", k, v, got[k], got)
				}
			}
			if sumRows(rows) != tt.ship {
				t.Errorf("Expected rows to sum to %d, got %d", tt.ship, sumRows(rows))
			}
		})
	}
}

func TestAllocateResult_JefeRows(t *testing.T) {
	demand := &shared.DemandContext{
		DirectQty: 6,
		Directs: []*entities.DirectDemand{
			{ImportID: 1, RowID: 1, Code: "M", Quantity: 6, SupervisorCode: "S1"},
		},
	}
	result := &entities.MaterialCoverageResult{MaterialID: "M", TotalQty: 6, ShipQty: 6}

	rows := AllocateResult(1, result, demand, testRoster, nil)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if !row.IsJefe || row.RepresentativeCode != nil || row.Supervisor != "S1" || row.ShipQty != 6 {
		t.Errorf("Expected jefe row S1=6, got %+v", row)
	}
}

func TestAllocateResult_RowOrder(t *testing.T) {
	demand := &shared.DemandContext{
		SegmentedQty: 9,
		DirectQty:    3,
		Criteria:     criteria("M", "S2", "R3", 3, "S1", "R2", 3, "S1", "R1", 3),
		Directs: []*entities.DirectDemand{
			{ImportID: 1, RowID: 1, Code: "M", Quantity: 3, SupervisorCode: "S1"},
		},
	}
	result := &entities.MaterialCoverageResult{MaterialID: "M", TotalQty: 12, ShipQty: 12}

	rows := AllocateResult(1, result, demand, testRoster, nil)

	want := []string{"S1/*", "S1/R1", "S1/R2", "S2/R3"}
	if len(rows) != len(want) {
		t.Fatalf("Expected %d rows, got %d", len(want), len(rows))
	}
	for i, w := range want {
		if got := rowKey(rows[i]); got != w {
			t.Errorf("Row %d: expected %s, got %s", i, w, got)
		}
	}
}

func TestAllocateResult_Anomalies(t *testing.T) {
	tests := []struct {
		name     string
		demand   *shared.DemandContext
		total    entities.Quantity
		ship     entities.Quantity
		wantRows int
		wantKind entities.WarningKind
	}{
		{
			name:     "negative_ship",
			demand:   &shared.DemandContext{SegmentedQty: 5, Criteria: criteria("M", "S1", "R1", 5)},
			total:    5,
			ship:     -3,
			wantKind: entities.WarningUnallocatableQuantity,
		},
		{
			name:     "ship_without_demand",
			demand:   nil,
			total:    0,
			ship:     20,
			wantKind: entities.WarningUnallocatableQuantity,
		},
		{
			name:     "unknown_representative",
			demand:   &shared.DemandContext{DirectQty: 2, Directs: []*entities.DirectDemand{{ImportID: 1, RowID: 1, Code: "M", Quantity: 2, RepresentativeCode: "R9"}}},
			total:    2,
			ship:     2,
			wantRows: 1,
			wantKind: entities.WarningUnknownRepresentative,
		},
		{
			name:     "criterion_without_holder",
			demand:   &shared.DemandContext{SegmentedQty: 2, Criteria: criteria("M", "", "", 2)},
			total:    2,
			ship:     2,
			wantRows: 1,
			wantKind: entities.WarningUnknownRepresentative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diag := shared.NewDiagnostics(nil)
			result := &entities.MaterialCoverageResult{MaterialID: "M", TotalQty: tt.total, ShipQty: tt.ship}

			rows := AllocateResult(1, result, tt.demand, testRoster, diag)

			if len(rows) != tt.wantRows {
				t.Errorf("Expected %d rows, got %d", tt.wantRows, len(rows))
			}
			warnings := diag.Warnings()
			if len(warnings) != 1 || warnings[0].Kind != tt.wantKind {
				t.Errorf("Expected a single %s warning, got %v", tt.wantKind, warnings)
			}
		})
	}
}

func TestAllocateResult_ZeroShipKeepsClaimants(t *testing.T) {
	demand := &shared.DemandContext{SegmentedQty: 8, Criteria: criteria("M", "S1", "R1", 5, "S1", "R2", 3)}
	result := &entities.MaterialCoverageResult{MaterialID: "M", TotalQty: 8, ShipQty: 0}

	rows := AllocateResult(1, result, demand, testRoster, nil)
	if len(rows) != 2 {
		t.Fatalf("Expected 2 zero rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.ShipQty != 0 {
			t.Errorf("Expected zero ship, got %+v", r)
		}
	}
}

func TestAllocateResult_Conservation(t *testing.T) {
	demand := &shared.DemandContext{
		SegmentedQty: 7 + 11 + 2,
		DirectQty:    5 + 3,
		Criteria:     criteria("M", "S1", "R1", 7, "S1", "R2", 11, "S2", "R3", 2),
		Directs: []*entities.DirectDemand{
			{ImportID: 1, RowID: 1, Code: "M", Quantity: 5, SupervisorCode: "S2"},
			{ImportID: 1, RowID: 2, Code: "M", Quantity: 3, RepresentativeCode: "R1"},
		},
	}

	for ship := entities.Quantity(0); ship <= 120; ship++ {
		result := &entities.MaterialCoverageResult{MaterialID: "M", TotalQty: demand.TotalQty(), ShipQty: ship}
		rows := AllocateResult(1, result, demand, testRoster, nil)
		if got := sumRows(rows); got != ship {
			t.Fatalf("ship %d: rows sum to %d", ship, got)
		}
		for _, r := range rows {
			if r.ShipQty < 0 {
				t.Fatalf("ship %d: negative row %+v", ship, r)
			}
		}
	}
}

func TestService_Allocate(t *testing.T) {
	ctx := context.Background()
	snap, _ := testhelpers.BuildCoverageScenario(50).OpenSnapshot(ctx)
	service := NewService(coverage.NewService(nil), nil)

	result, err := service.Allocate(ctx, snap, testhelpers.ScenarioImport, "M1")
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	want := map[string]entities.Quantity{"S1/R1": 13, "S1/R2": 7, "S2/*": 10}
	got := rowMap(result.Rows)
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Row %s: expected %d, got %d", k, v, got[k])
		}
	}
	if sumRows(result.Rows) != result.Materials[0].ShipQty {
		t.Errorf("Rows sum to %d, material ships %d", sumRows(result.Rows), result.Materials[0].ShipQty)
	}

	_, err = service.Allocate(ctx, snap, 42, "M1")
	if !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a missing import, got %v", err)
	}
}

func TestService_AllocateAll(t *testing.T) {
	ctx := context.Background()
	snap, _ := testhelpers.BuildDistributionScenario().OpenSnapshot(ctx)
	service := NewService(nil, nil)

	result, err := service.AllocateAll(ctx, snap, testhelpers.ScenarioImport)
	if err != nil {
		t.Fatalf("AllocateAll failed: %v", err)
	}

	perMaterial := make(map[entities.MaterialCode]entities.Quantity)
	for _, r := range result.Rows {
		perMaterial[r.MaterialID] += r.ShipQty
	}
	for _, m := range result.Materials {
		if m.ShipQty < 0 {
			if perMaterial[m.MaterialID] != 0 {
				t.Errorf("%s: negative ship should produce no rows", m.MaterialID)
			}
			continue
		}
		if perMaterial[m.MaterialID] != m.ShipQty {
			t.Errorf("%s: rows sum to %d, material ships %d", m.MaterialID, perMaterial[m.MaterialID], m.ShipQty)
		}
	}

	var b []entities.RepresentativeAllocationRow
	for _, r := range result.Rows {
		if r.MaterialID == "B [0020M]" {
			b = append(b, r)
		}
	}
	wantB := []struct {
		key string
		qty entities.Quantity
	}{
		{"S1/R1", 9}, {"S1/R2", 4}, {"S2/*", 2}, {"S2/R3", 9},
	}
	if len(b) != len(wantB) {
		t.Fatalf("B: expected %d rows, got %d", len(wantB), len(b))
	}
	for i, w := range wantB {
		if rowKey(b[i]) != w.key || b[i].ShipQty != w.qty {
			t.Errorf("B row %d: expected %s=%d, got %s=%d", i, w.key, w.qty, rowKey(b[i]), b[i].ShipQty)
		}
	}

	found := false
	for _, w := range result.Warnings {
		if w.MaterialCode == "C [0030M]" && w.Kind == entities.WarningUnallocatableQuantity {
			found = true
		}
	}
	if !found {
		t.Error("Expected unallocatable warning for C")
	}
}
