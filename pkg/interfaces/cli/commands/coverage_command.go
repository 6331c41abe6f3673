package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/sampledist/pkg/application/services/dashboard"
	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/domain/repositories"
	"github.com/vsinha/sampledist/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/sampledist/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/sampledist/pkg/infrastructure/repositories/sqlstore"
	"github.com/vsinha/sampledist/pkg/interfaces/cli/output"
)

// Config holds configuration for the coverage command
type Config struct {
	ScenarioDir string
	Encoding    string
	ImportID    int64
	ImportName  string
	Material    string
	General     bool
	DBDriver    string
	DBDSN       string
	OutputDir   string
	Format      string
	Workers     int
	TopN        int
	Verbose     bool
	Help        bool

	// Stdout receives the rendered dashboards (os.Stdout when nil)
	Stdout io.Writer
	Logger *zap.Logger
}

// CoverageCommand loads an import and renders one of its dashboards
type CoverageCommand struct {
	config Config
	out    io.Writer
	logger *zap.Logger
}

// NewCoverageCommand creates a new coverage command with the given configuration
func NewCoverageCommand(config Config) *CoverageCommand {
	out := config.Stdout
	if out == nil {
		out = os.Stdout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ImportID == 0 {
		config.ImportID = 1
	}
	if config.Format == "" {
		config.Format = "text"
	}
	return &CoverageCommand{config: config, out: out, logger: logger}
}

// Execute runs the coverage command
func (c *CoverageCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	importID := entities.ImportID(c.config.ImportID)

	var dataset *entities.Dataset
	if c.config.ScenarioDir != "" {
		loaded, err := c.loadDataset(importID)
		if err != nil {
			return err
		}
		dataset = loaded
	}

	snapshots, stock, closeStore, err := c.openStore(ctx, dataset)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := dashboard.NewService(dashboard.Config{
		Workers: c.config.Workers,
		TopN:    c.config.TopN,
	}, dashboard.Dependencies{Snapshots: snapshots, Stock: stock}, c.logger)

	outputConfig := output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
	}

	startTime := time.Now()
	if c.config.Material != "" || c.config.General {
		if c.config.Verbose {
			fmt.Fprintln(c.out, "🔄 Allocating to representatives...")
		}
		detail, err := svc.GetMaterialDetailDashboard(ctx, importID, entities.MaterialCode(c.config.Material))
		if err != nil {
			return fmt.Errorf("error computing material detail: %w", err)
		}
		outputConfig.ElapsedTime = time.Since(startTime)
		if err := output.GenerateDetail(c.out, detail, outputConfig); err != nil {
			return fmt.Errorf("error generating output: %w", err)
		}
		return nil
	}

	if c.config.Verbose {
		fmt.Fprintln(c.out, "🔄 Reconciling coverage...")
	}
	cov, err := svc.GetCoverageDashboard(ctx, importID)
	if err != nil {
		return fmt.Errorf("error computing coverage: %w", err)
	}
	outputConfig.ElapsedTime = time.Since(startTime)
	if err := output.GenerateCoverage(c.out, cov, outputConfig); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return nil
}

// validateInputs validates the command configuration
func (c *CoverageCommand) validateInputs() error {
	if c.config.ScenarioDir == "" && c.config.DBDSN == "" {
		return fmt.Errorf("must specify a -scenario directory or a -db-dsn")
	}
	if c.config.Material != "" && c.config.General {
		return fmt.Errorf("-material and -general cannot be combined")
	}
	if c.config.ImportID < 1 {
		return fmt.Errorf("import id must be positive, got %d", c.config.ImportID)
	}
	return (output.Config{Format: c.config.Format}).Validate()
}

func (c *CoverageCommand) loadDataset(importID entities.ImportID) (*entities.Dataset, error) {
	loader := csv.NewLoader()
	if c.config.Encoding != "" {
		var err error
		if loader, err = csv.NewLoaderWithEncoding(c.config.Encoding); err != nil {
			return nil, err
		}
	}

	name := c.config.ImportName
	if name == "" {
		name = c.config.ScenarioDir
	}

	if c.config.Verbose {
		fmt.Fprintf(c.out, "📂 Loading export from %s...\n", c.config.ScenarioDir)
	}
	dataset, err := loader.LoadDataset(c.config.ScenarioDir, entities.Import{ID: importID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("error loading export: %w", err)
	}
	if c.config.Verbose {
		fmt.Fprintf(c.out, "✅ Loaded %s\n\n", dataset)
	}
	return dataset, nil
}

// openStore returns the store the dashboards read from. With a DSN the
// dataset (if any) is written to the database first.
func (c *CoverageCommand) openStore(
	ctx context.Context,
	dataset *entities.Dataset,
) (repositories.SnapshotProvider, repositories.StockWriter, func(), error) {
	if c.config.DBDSN == "" {
		store := memory.NewStore()
		if err := store.Ingest(dataset); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to load export into memory: %w", err)
		}
		return store, store, func() {}, nil
	}

	driver := c.config.DBDriver
	if driver == "" {
		driver = sqlstore.DriverSQLite
	}
	db, err := sqlstore.Open(ctx, driver, c.config.DBDSN, sqlstore.PoolConfig{})
	if err != nil {
		return nil, nil, nil, err
	}
	store := sqlstore.NewStore(db, c.logger)
	if err := store.ApplySchema(ctx); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	if dataset != nil {
		if err := store.Ingest(ctx, dataset); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		if c.config.Verbose {
			fmt.Fprintf(c.out, "💾 Import %d saved to %s\n", dataset.Import.ID, driver)
		}
	}
	return store, store, func() { db.Close() }, nil
}

// showHelp displays the help message
func (c *CoverageCommand) showHelp() {
	fmt.Fprintf(c.out, `sampledist - sample coverage and representative distribution

USAGE:
    sampledist -scenario <directory>            # Coverage dashboard of an export
    sampledist -scenario <directory> -material <code>
    sampledist -scenario <directory> -general
    sampledist -db-dsn <dsn> -import <id>       # Read a previously saved import
    sampledist generate -output <directory>     # Write a synthetic export

OPTIONS:
    -scenario <dir>     Directory holding the export CSV files
    -encoding <name>    CSV encoding: utf-8, windows-1252, iso-8859-1 (default: utf-8)
    -import <id>        Import id (default: 1)
    -name <name>        Import name (default: the scenario directory)
    -material <code>    Show the representative distribution of one material
    -general            Show the distribution of every material
    -db-driver <name>   Database driver: sqlite3, postgres (default: sqlite3)
    -db-dsn <dsn>       Save the export to (or read it from) this database
    -output <dir>       Output directory for results (optional)
    -format <fmt>       Output format: text, json, csv, html (default: text)
    -workers <n>        Reconciliation workers (default: GOMAXPROCS)
    -top <n>            Size of the top materials list (default: 10)
    -verbose            Enable verbose output
    -help               Show this help message

SCENARIO DIRECTORY STRUCTURE:
    export_name/
    ├── materials.csv        # Material catalog (required)
    ├── stock.csv            # Stock per material
    ├── criteria.csv         # Segmented criterion demand
    ├── direct.csv           # Direct assignments
    └── representatives.csv  # Representative roster

CSV FILE FORMATS:

materials.csv:
    codigo_sap,description,pack,min_stock,max_stock,use_stock_real,stock_manual
    A [0010M],Muestra Analgesico,5,10,30,false,

stock.csv:
    codigo_sap,stock,stock_real
    A [0010M],7,6

criteria.csv:
    row_id,codigo_sap,quantity,porcen_de_aplic,supervisor_code,representative_code
    1,A [0010M],4,100,S1,R1

direct.csv:
    row_id,codigo_sap,quantity,supervisor_code,representative_code
    1,A [0010M],2,S2,

representatives.csv:
    code,name,supervisor_code
    R1,Ana Torres,S1

EXAMPLES:
    sampledist -scenario exports/2025-01 -verbose
    sampledist -scenario exports/2025-01 -material "A [0010M]" -format csv
    sampledist -scenario exports/2025-01 -format html -output reports/
    sampledist -scenario exports/2025-01 -db-dsn "file:sampledist.db" -import 7
`)
}
