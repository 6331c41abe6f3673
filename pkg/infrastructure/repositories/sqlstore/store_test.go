package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vsinha/sampledist/pkg/application/services/coverage"
	"github.com/vsinha/sampledist/pkg/domain/entities"
	testhelpers "github.com/vsinha/sampledist/pkg/infrastructure/testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	dsn := filepath.Join(t.TempDir(), "sampledist.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := Open(ctx, DriverSQLite, dsn, PoolConfig{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewStore(db, nil)
	if err := store.ApplySchema(ctx); err != nil {
		t.Fatalf("ApplySchema failed: %v", err)
	}
	// applying twice must be harmless
	if err := store.ApplySchema(ctx); err != nil {
		t.Fatalf("ApplySchema failed on second run: %v", err)
	}
	return store
}

func ingest(t *testing.T, store *Store, datasets ...*entities.Dataset) {
	t.Helper()
	for _, d := range datasets {
		if err := store.Ingest(context.Background(), d); err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "", PoolConfig{}); err == nil {
		t.Error("Expected an error for an unsupported driver")
	}
}

func TestStore_CoverageMatchesMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ingest(t, store, testhelpers.DistributionDataset(), &entities.Dataset{Import: testhelpers.DeletedImport})

	service := coverage.NewService(nil)

	sqlSnap, err := store.OpenSnapshot(ctx)
	if err != nil {
		t.Fatalf("OpenSnapshot failed: %v", err)
	}
	defer sqlSnap.Close()
	fromSQL, err := service.ComputeCoverage(ctx, sqlSnap, testhelpers.ScenarioImport)
	if err != nil {
		t.Fatalf("ComputeCoverage over sql failed: %v", err)
	}

	memSnap, _ := testhelpers.BuildDistributionScenario().OpenSnapshot(ctx)
	fromMemory, err := service.ComputeCoverage(ctx, memSnap, testhelpers.ScenarioImport)
	if err != nil {
		t.Fatalf("ComputeCoverage over memory failed: %v", err)
	}

	if !reflect.DeepEqual(fromSQL.Materials, fromMemory.Materials) {
		t.Errorf("Results differ:\n sql    %+v\n memory %+v", fromSQL.Materials, fromMemory.Materials)
	}
	if !reflect.DeepEqual(fromSQL.Warnings, fromMemory.Warnings) {
		t.Errorf("Warnings differ:\n sql    %v\n memory %v", fromSQL.Warnings, fromMemory.Warnings)
	}

	if _, err := service.ComputeCoverage(ctx, sqlSnap, testhelpers.DeletedImport.ID); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a deleted import, got %v", err)
	}
}

func TestSnapshot_Reads(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ingest(t, store, testhelpers.DistributionDataset())

	snap, err := store.OpenSnapshot(ctx)
	if err != nil {
		t.Fatalf("OpenSnapshot failed: %v", err)
	}
	defer snap.Close()

	imp, err := snap.GetImport(ctx, testhelpers.ScenarioImport)
	if err != nil || imp.Name != "Ciclo 2025-01" {
		t.Fatalf("GetImport returned %+v, %v", imp, err)
	}

	m, err := snap.GetMaterial(ctx, testhelpers.ScenarioImport, "B [0020M]")
	if err != nil || m == nil {
		t.Fatalf("GetMaterial returned %+v, %v", m, err)
	}
	if m.Pack != 6 || !m.UseStockReal || m.MinStock != nil || m.MaxStock != nil {
		t.Errorf("Unexpected material %+v", m)
	}
	if missing, err := snap.GetMaterial(ctx, testhelpers.ScenarioImport, "Z [0990M]"); missing != nil || err != nil {
		t.Errorf("Expected nil for a material outside the catalog, got %+v, %v", missing, err)
	}

	st, err := snap.GetStock(ctx, testhelpers.ScenarioImport, "A [0010M]")
	if err != nil || st == nil || *st.Stock != 7 || st.StockReal != nil {
		t.Errorf("Unexpected stock row %+v, %v", st, err)
	}

	directs, err := snap.ListDirectDemands(ctx, testhelpers.ScenarioImport)
	if err != nil || len(directs) != 2 {
		t.Fatalf("Expected 2 direct demands, got %d, %v", len(directs), err)
	}
	if directs[0].RepresentativeCode != "R2" || directs[1].SupervisorCode != "S2" {
		t.Errorf("Unexpected direct holders %+v %+v", directs[0], directs[1])
	}

	criteria, _ := snap.ListCriterionDemands(ctx, testhelpers.ScenarioImport)
	if len(criteria) != 6 || criteria[2].PorcenDeAplic != 80 {
		t.Errorf("Unexpected criterion demands %+v", criteria)
	}

	reps, _ := snap.ListRepresentatives(ctx, testhelpers.ScenarioImport)
	if len(reps) != 3 || reps[2].SupervisorCode != "S2" {
		t.Errorf("Unexpected roster %+v", reps)
	}
}

func TestStore_UpdateStockManual(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	noStock, err := entities.NewMaterial("E [0050M]", "Sin stock", 1, nil, nil, false, nil)
	if err != nil {
		t.Fatalf("NewMaterial failed: %v", err)
	}
	extra := &entities.Dataset{Import: testhelpers.DistributionDataset().Import, Materials: []*entities.Material{noStock}}
	ingest(t, store, testhelpers.DistributionDataset(), extra, &entities.Dataset{Import: testhelpers.DeletedImport})

	rec, err := store.UpdateStockManual(ctx, testhelpers.ScenarioImport, "A [0010M]", entities.QuantityPtr(3), 0)
	if err != nil {
		t.Fatalf("UpdateStockManual failed: %v", err)
	}
	if rec.Version != 1 || *rec.Stock != 7 {
		t.Errorf("Expected version 1 keeping system stock 7, got %+v", rec)
	}

	if _, err := store.UpdateStockManual(ctx, testhelpers.ScenarioImport, "A [0010M]", entities.QuantityPtr(4), 0); !errors.Is(err, entities.ErrVersionConflict) {
		t.Errorf("Expected ErrVersionConflict for a stale version, got %v", err)
	}

	snap, _ := store.OpenSnapshot(ctx)
	m, _ := snap.GetMaterial(ctx, testhelpers.ScenarioImport, "A [0010M]")
	snap.Close()
	if m.StockManual == nil || *m.StockManual != 3 {
		t.Errorf("Expected manual stock 3, got %v", m.StockManual)
	}

	if rec, err = store.UpdateStockManual(ctx, testhelpers.ScenarioImport, "A [0010M]", nil, 1); err != nil || rec.Version != 2 {
		t.Errorf("Expected clearing to move to version 2, got %+v, %v", rec, err)
	}

	rec, err = store.UpdateStockManual(ctx, testhelpers.ScenarioImport, "E [0050M]", entities.QuantityPtr(9), 0)
	if err != nil {
		t.Fatalf("UpdateStockManual without a stock row failed: %v", err)
	}
	if rec.Version != 1 || rec.Stock != nil {
		t.Errorf("Expected a new stock row at version 1, got %+v", rec)
	}

	notFound := []struct {
		id   entities.ImportID
		code entities.MaterialCode
	}{
		{testhelpers.ScenarioImport, "Z [0990M]"},
		{testhelpers.DeletedImport.ID, "A [0010M]"},
		{42, "A [0010M]"},
	}
	for _, nf := range notFound {
		if _, err := store.UpdateStockManual(ctx, nf.id, nf.code, nil, 0); !errors.Is(err, entities.ErrNotFound) {
			t.Errorf("%d/%s: expected ErrNotFound, got %v", nf.id, nf.code, err)
		}
	}
}

func TestStore_ClearedOverrideRestoresShip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ingest(t, store, testhelpers.UnstockedDataset())
	service := coverage.NewService(nil)

	ship := func() entities.MaterialCoverageResult {
		t.Helper()
		snap, err := store.OpenSnapshot(ctx)
		if err != nil {
			t.Fatalf("OpenSnapshot failed: %v", err)
		}
		defer snap.Close()
		result, err := service.ComputeCoverage(ctx, snap, testhelpers.ScenarioImport)
		if err != nil {
			t.Fatalf("ComputeCoverage failed: %v", err)
		}
		return result.Materials[0]
	}

	before := ship()
	if before.ShipQty != 5 || before.StockKnown {
		t.Fatalf("Expected unknown stock to ship the full 5, got %d (known=%t)", before.ShipQty, before.StockKnown)
	}

	rec, err := store.UpdateStockManual(ctx, testhelpers.ScenarioImport, "E [0050M]", entities.QuantityPtr(2), 0)
	if err != nil {
		t.Fatalf("UpdateStockManual failed: %v", err)
	}
	if !rec.ManualOnly {
		t.Errorf("Expected the inserted row to be marked manual-only, got %+v", rec)
	}
	if m := ship(); m.ShipQty != 2 {
		t.Errorf("Expected the override to clip ship to 2, got %d", m.ShipQty)
	}

	if _, err := store.UpdateStockManual(ctx, testhelpers.ScenarioImport, "E [0050M]", nil, 1); err != nil {
		t.Fatalf("clearing UpdateStockManual failed: %v", err)
	}
	after := ship()
	if after.ShipQty != before.ShipQty || after.StockKnown {
		t.Errorf("Expected clearing to restore ship %d with unknown stock, got %d (known=%t)",
			before.ShipQty, after.ShipQty, after.StockKnown)
	}

	// a later export of the stock columns turns the row into a loaded one
	ingest(t, store, &entities.Dataset{
		Import: testhelpers.UnstockedDataset().Import,
		Stock:  []*entities.StockRecord{{ImportID: testhelpers.ScenarioImport, Code: "E [0050M]", Stock: entities.QuantityPtr(3)}},
	})
	if m := ship(); m.ShipQty != 3 || !m.StockKnown || m.StockVersion != 2 {
		t.Errorf("Expected loaded stock 3 at version 2, got ship %d known=%t version %d", m.ShipQty, m.StockKnown, m.StockVersion)
	}
}

func TestStore_SoftDeleteImport(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ingest(t, store, testhelpers.CoverageDataset(50))

	if err := store.SoftDeleteImport(ctx, testhelpers.ScenarioImport); err != nil {
		t.Fatalf("SoftDeleteImport failed: %v", err)
	}
	if err := store.SoftDeleteImport(ctx, 42); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	snap, _ := store.OpenSnapshot(ctx)
	defer snap.Close()
	if _, err := snap.GetImport(ctx, testhelpers.ScenarioImport); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("Expected deleted import to be hidden, got %v", err)
	}
}
