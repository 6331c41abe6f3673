package commands

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/infrastructure/repositories/csv"
)

// GenerateConfig holds configuration for synthetic export generation
type GenerateConfig struct {
	Materials           int     // Number of materials in the catalog
	Supervisors         int     // Number of supervisors
	RepsPerSupervisor   int     // Representatives reporting to each supervisor
	CriteriaPerMaterial int     // Upper bound of criterion rows per material
	DirectRatio         float64 // Share of materials that get a direct assignment
	Inventory           float64 // Stock multiplier over demand (e.g., 0.5 = half coverage)
	OutputDir           string  // Output directory for generated files
	Seed                int64   // Random seed for reproducible generation
	Help                bool    // Show help
	Verbose             bool    // Verbose output

	Stdout io.Writer
}

// GenerateCommand writes a synthetic export directory
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	out    io.Writer
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	out := config.Stdout
	if out == nil {
		out = os.Stdout
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
		out:    out,
	}
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}
	if err := cmd.validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.out,
			"🔧 Generating export with %d materials, %d supervisors x %d representatives, %.1fx inventory\n",
			cmd.config.Materials,
			cmd.config.Supervisors,
			cmd.config.RepsPerSupervisor,
			cmd.config.Inventory,
		)
		fmt.Fprintf(cmd.out, "📁 Output directory: %s\n", cmd.config.OutputDir)
	}

	dataset := cmd.Build()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := csv.WriteDataset(cmd.config.OutputDir, dataset); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.out, "✅ Generated %s\n", dataset)
	}
	return nil
}

func (cmd *GenerateCommand) validate() error {
	switch {
	case cmd.config.OutputDir == "":
		return fmt.Errorf("-output is required")
	case cmd.config.Materials < 1:
		return fmt.Errorf("materials must be at least 1, got %d", cmd.config.Materials)
	case cmd.config.Supervisors < 1 || cmd.config.RepsPerSupervisor < 1:
		return fmt.Errorf("need at least one supervisor with one representative")
	case cmd.config.Inventory < 0:
		return fmt.Errorf("inventory multiplier cannot be negative, got %.2f", cmd.config.Inventory)
	case cmd.config.DirectRatio < 0 || cmd.config.DirectRatio > 1:
		return fmt.Errorf("direct ratio must be between 0 and 1, got %.2f", cmd.config.DirectRatio)
	}
	return nil
}

var packSizes = []entities.Quantity{1, 1, 2, 5, 6, 10, 12}

var porcenChoices = []int{100, 100, 100, 80, 50}

// Build generates the dataset in memory
func (cmd *GenerateCommand) Build() *entities.Dataset {
	dataset := &entities.Dataset{
		Import: entities.Import{ID: 1, Name: "generated", CreatedAt: time.Now().UTC()},
	}

	for s := 0; s < cmd.config.Supervisors; s++ {
		supervisor := fmt.Sprintf("S%02d", s+1)
		for r := 0; r < cmd.config.RepsPerSupervisor; r++ {
			dataset.Representatives = append(dataset.Representatives, &entities.Representative{
				Code:           fmt.Sprintf("R%02d%02d", s+1, r+1),
				Name:           fmt.Sprintf("Representative %d-%d", s+1, r+1),
				SupervisorCode: supervisor,
			})
		}
	}

	var criterionRow, directRow int64
	for i := 0; i < cmd.config.Materials; i++ {
		code := entities.MaterialCode(fmt.Sprintf("MAT%03d [%04dM]", i+1, (i+1)*10))
		material := &entities.Material{
			Code:         code,
			Description:  fmt.Sprintf("Sample %d", i+1),
			Pack:         packSizes[cmd.rand.Intn(len(packSizes))],
			UseStockReal: cmd.rand.Float64() < 0.2,
		}
		if cmd.rand.Float64() < 0.7 {
			lo := entities.Quantity(cmd.rand.Intn(20))
			hi := lo + entities.Quantity(cmd.rand.Intn(60)+1)
			material.MinStock = &lo
			material.MaxStock = &hi
		}
		dataset.Materials = append(dataset.Materials, material)

		var demand entities.Quantity
		rows := 0
		if cmd.config.CriteriaPerMaterial > 0 {
			rows = cmd.rand.Intn(cmd.config.CriteriaPerMaterial + 1)
		}
		for j := 0; j < rows; j++ {
			rep := dataset.Representatives[cmd.rand.Intn(len(dataset.Representatives))]
			criterionRow++
			qty := entities.Quantity(cmd.rand.Intn(20) + 1)
			porcen := porcenChoices[cmd.rand.Intn(len(porcenChoices))]
			demand += qty * entities.Quantity(porcen) / 100
			dataset.Criteria = append(dataset.Criteria, &entities.CriterionDemand{
				RowID:              criterionRow,
				Code:               code,
				Quantity:           qty,
				PorcenDeAplic:      porcen,
				SupervisorCode:     rep.SupervisorCode,
				RepresentativeCode: rep.Code,
			})
		}

		if cmd.rand.Float64() < cmd.config.DirectRatio {
			directRow++
			rep := dataset.Representatives[cmd.rand.Intn(len(dataset.Representatives))]
			direct := &entities.DirectDemand{
				RowID:    directRow,
				Code:     code,
				Quantity: entities.Quantity(cmd.rand.Intn(10) + 1),
			}
			if cmd.rand.Intn(2) == 0 {
				direct.SupervisorCode = rep.SupervisorCode
			} else {
				direct.RepresentativeCode = rep.Code
			}
			demand += direct.Quantity
			dataset.Directs = append(dataset.Directs, direct)
		}

		stock := entities.Quantity(float64(demand) * cmd.config.Inventory)
		stockReal := stock - entities.Quantity(cmd.rand.Intn(int(stock)/4+1))
		dataset.Stock = append(dataset.Stock, &entities.StockRecord{
			Code:      code,
			Stock:     &stock,
			StockReal: &stockReal,
		})
	}

	dataset.Stamp(dataset.Import.ID)
	return dataset
}

// printHelp shows usage information
func (cmd *GenerateCommand) printHelp() {
	fmt.Fprintln(cmd.out, `Synthetic Export Generator

USAGE:
    sampledist generate [OPTIONS]

OPTIONS:
    -materials <N>      Number of materials in the catalog (default: 50)
    -supervisors <N>    Number of supervisors (default: 4)
    -reps <N>           Representatives per supervisor (default: 5)
    -criteria <N>       Maximum criterion rows per material (default: 8)
    -direct <F>         Share of materials with a direct assignment (default: 0.3)
    -inventory <F>      Stock multiplier over demand (e.g., 0.5 = half coverage) (default: 1.0)
    -output <DIR>       Output directory for generated files (required)
    -seed <N>           Random seed for reproducible generation (optional)
    -verbose            Enable verbose output
    -help               Show this help message

EXAMPLES:
    # Generate a small export
    sampledist generate -materials 20 -output ./exports/small

    # Generate a short-stock export
    sampledist generate -materials 500 -inventory 0.4 -output ./exports/short -verbose

    # Generate a reproducible export
    sampledist generate -materials 100 -seed 12345 -output ./exports/repro`)
}
