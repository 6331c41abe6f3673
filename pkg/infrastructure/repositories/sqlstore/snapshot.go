package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// Snapshot reads one import inside a read-only transaction
type Snapshot struct {
	tx *sqlx.Tx
}

// Close ends the read transaction
func (s *Snapshot) Close() error {
	if err := s.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	return nil
}

func (s *Snapshot) GetImport(ctx context.Context, id entities.ImportID) (*entities.Import, error) {
	return getImport(ctx, s.tx, id)
}

func (s *Snapshot) GetMaterial(ctx context.Context, importID entities.ImportID, code entities.MaterialCode) (*entities.Material, error) {
	return getMaterial(ctx, s.tx, importID, code)
}

func (s *Snapshot) GetStock(ctx context.Context, importID entities.ImportID, code entities.MaterialCode) (*entities.StockRecord, error) {
	return getStock(ctx, s.tx, importID, code)
}

func (s *Snapshot) ListMaterials(ctx context.Context, importID entities.ImportID) ([]*entities.Material, error) {
	var rows []materialRow
	if err := s.tx.SelectContext(ctx, &rows, s.tx.Rebind(selectMaterials+`
		WHERE m.import_id = ? ORDER BY m.codigo_sap`), int64(importID)); err != nil {
		return nil, fmt.Errorf("failed to list materials of import %d: %w", importID, err)
	}
	materials := make([]*entities.Material, 0, len(rows))
	for _, r := range rows {
		materials = append(materials, r.toEntity())
	}
	return materials, nil
}

func (s *Snapshot) ListStock(ctx context.Context, importID entities.ImportID) ([]*entities.StockRecord, error) {
	var rows []stockRow
	if err := s.tx.SelectContext(ctx, &rows, s.tx.Rebind(selectStock+`
		WHERE import_id = ? ORDER BY codigo_sap`), int64(importID)); err != nil {
		return nil, fmt.Errorf("failed to list stock of import %d: %w", importID, err)
	}
	records := make([]*entities.StockRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toEntity())
	}
	return records, nil
}

func (s *Snapshot) ListCriterionDemands(ctx context.Context, importID entities.ImportID) ([]*entities.CriterionDemand, error) {
	var rows []criterionRow
	if err := s.tx.SelectContext(ctx, &rows, s.tx.Rebind(`
		SELECT a.import_id, a.row_id, a.codigo_sap, a.quantity,
			c.porcen_de_aplic, c.supervisor_code, c.representative_code
		FROM migration_assignment a
		JOIN migration_configuration c ON c.import_id = a.import_id AND c.row_id = a.row_id
		WHERE a.import_id = ? AND a.source = ?
		ORDER BY a.row_id, a.codigo_sap`), int64(importID), sourceCriterion); err != nil {
		return nil, fmt.Errorf("failed to list criterion demands of import %d: %w", importID, err)
	}
	demands := make([]*entities.CriterionDemand, 0, len(rows))
	for _, r := range rows {
		demands = append(demands, &entities.CriterionDemand{
			ImportID:           entities.ImportID(r.ImportID),
			RowID:              r.RowID,
			Code:               entities.MaterialCode(r.Code),
			Quantity:           entities.Quantity(r.Quantity),
			PorcenDeAplic:      r.PorcenDeAplic,
			SupervisorCode:     r.SupervisorCode,
			RepresentativeCode: r.RepresentativeCode,
		})
	}
	return demands, nil
}

func (s *Snapshot) ListDirectDemands(ctx context.Context, importID entities.ImportID) ([]*entities.DirectDemand, error) {
	var rows []directRow
	if err := s.tx.SelectContext(ctx, &rows, s.tx.Rebind(`
		SELECT a.import_id, a.row_id, a.codigo_sap, a.quantity,
			d.supervisor_code, d.representative_code
		FROM migration_assignment a
		JOIN migration_direct d ON d.import_id = a.import_id AND d.row_id = a.row_id
		WHERE a.import_id = ? AND a.source = ?
		ORDER BY a.row_id, a.codigo_sap`), int64(importID), sourceDirect); err != nil {
		return nil, fmt.Errorf("failed to list direct demands of import %d: %w", importID, err)
	}
	demands := make([]*entities.DirectDemand, 0, len(rows))
	for _, r := range rows {
		demands = append(demands, &entities.DirectDemand{
			ImportID:           entities.ImportID(r.ImportID),
			RowID:              r.RowID,
			Code:               entities.MaterialCode(r.Code),
			Quantity:           entities.Quantity(r.Quantity),
			SupervisorCode:     r.SupervisorCode,
			RepresentativeCode: r.RepresentativeCode,
		})
	}
	return demands, nil
}

func (s *Snapshot) ListRepresentatives(ctx context.Context, importID entities.ImportID) ([]*entities.Representative, error) {
	var rows []representativeRow
	if err := s.tx.SelectContext(ctx, &rows, s.tx.Rebind(`
		SELECT code, name, supervisor_code
		FROM representatives WHERE import_id = ? ORDER BY code`), int64(importID)); err != nil {
		return nil, fmt.Errorf("failed to list representatives of import %d: %w", importID, err)
	}
	reps := make([]*entities.Representative, 0, len(rows))
	for _, r := range rows {
		reps = append(reps, &entities.Representative{Code: r.Code, Name: r.Name, SupervisorCode: r.SupervisorCode})
	}
	return reps, nil
}

type importRow struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Deleted   bool      `db:"deleted"`
	CreatedAt time.Time `db:"created_at"`
}

type materialRow struct {
	Code         string        `db:"codigo_sap"`
	Description  string        `db:"description"`
	Pack         int64         `db:"pack"`
	MinStock     sql.NullInt64 `db:"min_stock"`
	MaxStock     sql.NullInt64 `db:"max_stock"`
	UseStockReal bool          `db:"use_stock_real"`
	StockManual  sql.NullInt64 `db:"stock_manual"`
}

func (r materialRow) toEntity() *entities.Material {
	return &entities.Material{
		Code:         entities.MaterialCode(r.Code),
		Description:  r.Description,
		Pack:         entities.Quantity(r.Pack),
		MinStock:     quantityPtr(r.MinStock),
		MaxStock:     quantityPtr(r.MaxStock),
		UseStockReal: r.UseStockReal,
		StockManual:  quantityPtr(r.StockManual),
	}
}

type stockRow struct {
	ImportID   int64         `db:"import_id"`
	Code       string        `db:"codigo_sap"`
	Stock      sql.NullInt64 `db:"stock"`
	StockReal  sql.NullInt64 `db:"stock_real"`
	ManualOnly bool          `db:"manual_only"`
	Version    int64         `db:"version"`
}

func (r stockRow) toEntity() *entities.StockRecord {
	return &entities.StockRecord{
		ImportID:   entities.ImportID(r.ImportID),
		Code:       entities.MaterialCode(r.Code),
		Stock:      quantityPtr(r.Stock),
		StockReal:  quantityPtr(r.StockReal),
		Version:    r.Version,
		ManualOnly: r.ManualOnly,
	}
}

type criterionRow struct {
	ImportID           int64  `db:"import_id"`
	RowID              int64  `db:"row_id"`
	Code               string `db:"codigo_sap"`
	Quantity           int64  `db:"quantity"`
	PorcenDeAplic      int    `db:"porcen_de_aplic"`
	SupervisorCode     string `db:"supervisor_code"`
	RepresentativeCode string `db:"representative_code"`
}

type representativeRow struct {
	Code           string `db:"code"`
	Name           string `db:"name"`
	SupervisorCode string `db:"supervisor_code"`
}

type directRow struct {
	ImportID           int64  `db:"import_id"`
	RowID              int64  `db:"row_id"`
	Code               string `db:"codigo_sap"`
	Quantity           int64  `db:"quantity"`
	SupervisorCode     string `db:"supervisor_code"`
	RepresentativeCode string `db:"representative_code"`
}

const selectMaterials = `
	SELECT m.codigo_sap, m.description, m.pack, m.min_stock, m.max_stock, m.use_stock_real, s.stock_manual
	FROM migration_material m
	LEFT JOIN material_stock s ON s.import_id = m.import_id AND s.codigo_sap = m.codigo_sap`

const selectStock = `
	SELECT import_id, codigo_sap, stock, stock_real, manual_only, version
	FROM material_stock`

func getImport(ctx context.Context, q DBTX, id entities.ImportID) (*entities.Import, error) {
	var row importRow
	err := q.GetContext(ctx, &row, q.Rebind(`
		SELECT id, name, deleted, created_at FROM imports WHERE id = ?`), int64(id))
	if isNoRows(err) {
		return nil, entities.ImportNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import %d: %w", id, err)
	}
	if row.Deleted {
		return nil, entities.ImportNotFound(id)
	}
	return &entities.Import{
		ID:        entities.ImportID(row.ID),
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}, nil
}

func getMaterial(ctx context.Context, q DBTX, importID entities.ImportID, code entities.MaterialCode) (*entities.Material, error) {
	var row materialRow
	err := q.GetContext(ctx, &row, q.Rebind(selectMaterials+`
		WHERE m.import_id = ? AND m.codigo_sap = ?`), int64(importID), string(code))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get material %s: %w", code, err)
	}
	return row.toEntity(), nil
}

func getStock(ctx context.Context, q DBTX, importID entities.ImportID, code entities.MaterialCode) (*entities.StockRecord, error) {
	var row stockRow
	err := q.GetContext(ctx, &row, q.Rebind(selectStock+`
		WHERE import_id = ? AND codigo_sap = ?`), int64(importID), string(code))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock of %s: %w", code, err)
	}
	return row.toEntity(), nil
}
