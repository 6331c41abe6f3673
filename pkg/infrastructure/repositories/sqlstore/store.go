package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/domain/repositories"
)

//go:embed schema.sql
var schemaSQL string

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	sourceCriterion = "criterion"
	sourceDirect    = "direct"
)

// DBTX is the query surface shared by *sqlx.DB and *sqlx.Tx
type DBTX interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Rebind(query string) string
}

// PoolConfig sizes the connection pool
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to the database and checks the connection
func Open(ctx context.Context, driver, dsn string, pool PoolConfig) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return db, nil
}

// Store reads and writes imports in a relational database
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStore wraps an open database
func NewStore(db *sqlx.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Verify interface compliance
var (
	_ repositories.SnapshotProvider = (*Store)(nil)
	_ repositories.StockWriter      = (*Store)(nil)
	_ repositories.ImportWriter     = (*Store)(nil)
	_ repositories.Snapshot         = (*Snapshot)(nil)
)

// ApplySchema creates the tables if they do not exist
func (s *Store) ApplySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// OpenSnapshot starts a read-only transaction. The caller must Close it.
func (s *Store) OpenSnapshot(ctx context.Context) (repositories.Snapshot, error) {
	opts := &sql.TxOptions{ReadOnly: true}
	if s.db.DriverName() == DriverPostgres {
		opts.Isolation = sql.LevelRepeatableRead
	}
	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot: %w", err)
	}
	return &Snapshot{tx: tx}, nil
}

// UpdateStockManual sets the manual stock of a material when the stored
// version still matches expectedVersion
func (s *Store) UpdateStockManual(
	ctx context.Context,
	importID entities.ImportID,
	code entities.MaterialCode,
	value *entities.Quantity,
	expectedVersion int64,
) (*entities.StockRecord, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := getImport(ctx, tx, importID); err != nil {
		return nil, err
	}
	material, err := getMaterial(ctx, tx, importID, code)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, entities.MaterialNotFound(importID, code)
	}

	current, err := getStock(ctx, tx, importID, code)
	if err != nil {
		return nil, err
	}

	manual := nullQuantity(value)
	if current == nil {
		if expectedVersion != 0 {
			return nil, fmt.Errorf("%w: stock of %s is at version 0, expected %d",
				entities.ErrVersionConflict, code, expectedVersion)
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO material_stock (import_id, codigo_sap, stock_manual, manual_only, version)
			VALUES (?, ?, ?, TRUE, 1)`),
			int64(importID), string(code), manual)
		if err != nil {
			return nil, fmt.Errorf("failed to insert stock of %s: %w", code, err)
		}
	} else {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE material_stock SET stock_manual = ?, version = version + 1
			WHERE import_id = ? AND codigo_sap = ? AND version = ?`),
			manual, int64(importID), string(code), expectedVersion)
		if err != nil {
			return nil, fmt.Errorf("failed to update stock of %s: %w", code, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to update stock of %s: %w", code, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: stock of %s is at version %d, expected %d",
				entities.ErrVersionConflict, code, current.Version, expectedVersion)
		}
	}

	record, err := getStock(ctx, tx, importID, code)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock update of %s: %w", code, err)
	}

	s.logger.Debug("Stock manual stored",
		zap.Int64("import_id", int64(importID)),
		zap.String("material", string(code)),
		zap.Int64("version", record.Version),
	)
	return record, nil
}

// Ingest writes a complete import in one transaction. Existing rows with the
// same keys are replaced.
func (s *Store) Ingest(ctx context.Context, dataset *entities.Dataset) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := int64(dataset.Import.ID)
	createdAt := dataset.Import.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO imports (id, name, deleted, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, deleted = excluded.deleted`),
		id, dataset.Import.Name, dataset.Import.Deleted, createdAt); err != nil {
		return fmt.Errorf("failed to save import %d: %w", id, err)
	}

	for _, m := range dataset.Materials {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO migration_material (import_id, codigo_sap, description, pack, min_stock, max_stock, use_stock_real)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(import_id, codigo_sap) DO UPDATE SET
				description = excluded.description, pack = excluded.pack,
				min_stock = excluded.min_stock, max_stock = excluded.max_stock,
				use_stock_real = excluded.use_stock_real`),
			id, string(m.Code), m.Description, int64(m.Pack),
			nullQuantity(m.MinStock), nullQuantity(m.MaxStock), m.UseStockReal); err != nil {
			return fmt.Errorf("failed to save material %s: %w", m.Code, err)
		}
		if m.StockManual != nil {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO material_stock (import_id, codigo_sap, stock_manual, manual_only) VALUES (?, ?, ?, TRUE)
				ON CONFLICT(import_id, codigo_sap) DO UPDATE SET stock_manual = excluded.stock_manual`),
				id, string(m.Code), int64(*m.StockManual)); err != nil {
				return fmt.Errorf("failed to save manual stock of %s: %w", m.Code, err)
			}
		}
	}

	for _, st := range dataset.Stock {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO material_stock (import_id, codigo_sap, stock, stock_real, manual_only) VALUES (?, ?, ?, ?, FALSE)
			ON CONFLICT(import_id, codigo_sap) DO UPDATE SET
				stock = excluded.stock, stock_real = excluded.stock_real, manual_only = FALSE`),
			id, string(st.Code), nullQuantity(st.Stock), nullQuantity(st.StockReal)); err != nil {
			return fmt.Errorf("failed to save stock of %s: %w", st.Code, err)
		}
	}

	for _, c := range dataset.Criteria {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO migration_configuration (import_id, row_id, porcen_de_aplic, supervisor_code, representative_code)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(import_id, row_id) DO UPDATE SET
				porcen_de_aplic = excluded.porcen_de_aplic,
				supervisor_code = excluded.supervisor_code,
				representative_code = excluded.representative_code`),
			id, c.RowID, c.PorcenDeAplic, c.SupervisorCode, c.RepresentativeCode); err != nil {
			return fmt.Errorf("failed to save criterion %d: %w", c.RowID, err)
		}
		if err := saveAssignment(ctx, tx, id, sourceCriterion, c.RowID, c.Code, c.Quantity); err != nil {
			return err
		}
	}

	for _, d := range dataset.Directs {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO migration_direct (import_id, row_id, supervisor_code, representative_code)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(import_id, row_id) DO UPDATE SET
				supervisor_code = excluded.supervisor_code,
				representative_code = excluded.representative_code`),
			id, d.RowID, d.SupervisorCode, d.RepresentativeCode); err != nil {
			return fmt.Errorf("failed to save direct assignment %d: %w", d.RowID, err)
		}
		if err := saveAssignment(ctx, tx, id, sourceDirect, d.RowID, d.Code, d.Quantity); err != nil {
			return err
		}
	}

	for _, r := range dataset.Representatives {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO representatives (import_id, code, name, supervisor_code) VALUES (?, ?, ?, ?)
			ON CONFLICT(import_id, code) DO UPDATE SET
				name = excluded.name, supervisor_code = excluded.supervisor_code`),
			id, r.Code, r.Name, r.SupervisorCode); err != nil {
			return fmt.Errorf("failed to save representative %s: %w", r.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import %d: %w", id, err)
	}
	s.logger.Info("Import stored", zap.String("dataset", dataset.String()))
	return nil
}

func saveAssignment(
	ctx context.Context,
	tx *sqlx.Tx,
	importID int64,
	source string,
	rowID int64,
	code entities.MaterialCode,
	quantity entities.Quantity,
) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO migration_assignment (import_id, source, row_id, codigo_sap, quantity)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(import_id, source, row_id, codigo_sap) DO UPDATE SET quantity = excluded.quantity`),
		importID, source, rowID, string(code), int64(quantity)); err != nil {
		return fmt.Errorf("failed to save %s assignment %d/%s: %w", source, rowID, code, err)
	}
	return nil
}

// SoftDeleteImport marks an import as deleted
func (s *Store) SoftDeleteImport(ctx context.Context, importID entities.ImportID) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE imports SET deleted = ? WHERE id = ?`), true, int64(importID))
	if err != nil {
		return fmt.Errorf("failed to delete import %d: %w", importID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entities.ImportNotFound(importID)
	}
	return nil
}

func nullQuantity(q *entities.Quantity) sql.NullInt64 {
	if q == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*q), Valid: true}
}

func quantityPtr(n sql.NullInt64) *entities.Quantity {
	if !n.Valid {
		return nil
	}
	return entities.QuantityPtr(entities.Quantity(n.Int64))
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
