package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vsinha/sampledist/pkg/infrastructure/config"
	"github.com/vsinha/sampledist/pkg/infrastructure/logging"
	"github.com/vsinha/sampledist/pkg/interfaces/cli/commands"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "generate" {
		err = runGenerate(ctx, os.Args[2:])
	} else {
		err = runCoverage(ctx, os.Args[1:])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCoverage(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sampledist", flag.ExitOnError)
	var (
		scenarioDir = fs.String("scenario", "", "Directory holding the export CSV files")
		encoding    = fs.String("encoding", "", "CSV encoding: utf-8, windows-1252, iso-8859-1")
		importID    = fs.Int64("import", 1, "Import id")
		importName  = fs.String("name", "", "Import name")
		material    = fs.String("material", "", "Show the representative distribution of one material")
		general     = fs.Bool("general", false, "Show the distribution of every material")
		dbDriver    = fs.String("db-driver", os.Getenv("DB_DRIVER"), "Database driver: sqlite3, postgres")
		dbDSN       = fs.String("db-dsn", os.Getenv("DB_DSN"), "Save the export to (or read it from) this database")
		outputDir   = fs.String("output", "", "Output directory for results (optional)")
		format      = fs.String("format", "text", "Output format: text, json, csv, html")
		workers     = fs.Int("workers", 0, "Reconciliation workers (0 = GOMAXPROCS)")
		topN        = fs.Int("top", 10, "Size of the top materials list")
		verbose     = fs.Bool("verbose", false, "Enable verbose output")
		help        = fs.Bool("help", false, "Show help message")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New(config.LogConfig{Level: level, Format: "console"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	cmd := commands.NewCoverageCommand(commands.Config{
		ScenarioDir: *scenarioDir,
		Encoding:    *encoding,
		ImportID:    *importID,
		ImportName:  *importName,
		Material:    *material,
		General:     *general,
		DBDriver:    *dbDriver,
		DBDSN:       *dbDSN,
		OutputDir:   *outputDir,
		Format:      *format,
		Workers:     *workers,
		TopN:        *topN,
		Verbose:     *verbose,
		Help:        *help,
		Logger:      logger,
	})
	return cmd.Execute(ctx)
}

func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		materials   = fs.Int("materials", 50, "Number of materials in the catalog")
		supervisors = fs.Int("supervisors", 4, "Number of supervisors")
		reps        = fs.Int("reps", 5, "Representatives per supervisor")
		criteria    = fs.Int("criteria", 8, "Maximum criterion rows per material")
		direct      = fs.Float64("direct", 0.3, "Share of materials with a direct assignment")
		inventory   = fs.Float64("inventory", 1.0, "Stock multiplier over demand")
		outputDir   = fs.String("output", "", "Output directory for generated files")
		seed        = fs.Int64("seed", 0, "Random seed for reproducible generation")
		verbose     = fs.Bool("verbose", false, "Enable verbose output")
		help        = fs.Bool("help", false, "Show help message")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := commands.NewGenerateCommand(commands.GenerateConfig{
		Materials:           *materials,
		Supervisors:         *supervisors,
		RepsPerSupervisor:   *reps,
		CriteriaPerMaterial: *criteria,
		DirectRatio:         *direct,
		Inventory:           *inventory,
		OutputDir:           *outputDir,
		Seed:                *seed,
		Verbose:             *verbose,
		Help:                *help,
	})
	return cmd.Execute(ctx)
}
