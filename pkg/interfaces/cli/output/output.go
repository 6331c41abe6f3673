package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vsinha/sampledist/pkg/application/dto"
	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format      string
	OutputDir   string
	Verbose     bool
	ElapsedTime time.Duration
}

// Validate checks the format name
func (c Config) Validate() error {
	switch c.Format {
	case "text", "json", "csv", "html":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", c.Format)
	}
}

// GenerateCoverage renders the coverage dashboard in the configured format
func GenerateCoverage(w io.Writer, dashboard *dto.CoverageDashboard, config Config) error {
	switch config.Format {
	case "text":
		return coverageText(w, dashboard, config)
	case "json":
		return writeJSON(w, dashboard, config, "coverage_dashboard.json")
	case "csv":
		return writeCSV(w, coverageRows(dashboard.Materials), config, "coverage.csv")
	case "html":
		return generateHTMLOutput(w, dashboard, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateDetail renders a material detail (or general distribution) dashboard
func GenerateDetail(w io.Writer, detail *dto.MaterialDetailDashboard, config Config) error {
	switch config.Format {
	case "text":
		return detailText(w, detail, config)
	case "json":
		return writeJSON(w, detail, config, detailFileName(detail, "json"))
	case "csv":
		return writeCSV(w, detailRows(detail.Details), config, detailFileName(detail, "csv"))
	case "html":
		return fmt.Errorf("html output is only available for the coverage dashboard")
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func detailFileName(detail *dto.MaterialDetailDashboard, ext string) string {
	if detail.MaterialID == "" {
		return "general_distribution." + ext
	}
	return "material_detail." + ext
}

func coverageText(w io.Writer, d *dto.CoverageDashboard, config Config) error {
	s := d.Summary
	fmt.Fprintf(w, "📊 Coverage Dashboard - import %d\n", d.ImportID)
	fmt.Fprintf(w, "==================================\n\n")
	fmt.Fprintf(w, "Materials: %d\n", s.TotalMaterials)
	fmt.Fprintf(w, "Total Stock: %d\n", s.TotalStock)
	fmt.Fprintf(w, "Total To Ship: %d\n", s.TotalShipQty)
	fmt.Fprintf(w, "Average Coverage: %.2f%%\n", s.AverageCoverage*100)
	fmt.Fprintf(w, "Within Range: %d\n", s.MaterialsWithinRange)
	fmt.Fprintf(w, "Negative Ship: %d\n", s.MaterialsWithNegativeStock)
	if config.ElapsedTime > 0 {
		fmt.Fprintf(w, "Computed In: %v\n", config.ElapsedTime)
	}
	fmt.Fprintln(w)

	if len(d.Materials) > 0 {
		fmt.Fprintf(w, "%-24s %-6s %-8s %-8s %-8s %-8s %-8s %-9s %-8s\n",
			"Material", "Pack", "Crit", "Direct", "Total", "Stock", "Ship", "Coverage", "Status")
		fmt.Fprintf(w, "%-24s %-6s %-8s %-8s %-8s %-8s %-8s %-9s %-8s\n",
			"------------------------", "------", "--------", "--------", "--------", "--------", "--------", "---------", "--------")
		for _, m := range d.Materials {
			fmt.Fprintf(w, "%-24s %-6d %-8d %-8d %-8d %-8d %-8d %-9s %-8s\n",
				m.MaterialID, m.Pack, m.SegmentedQty, m.DirectQty, m.TotalQty,
				m.Stock, m.ShipQty, fmt.Sprintf("%.2f%%", m.Coverage*100), m.Semaforo)
		}
		fmt.Fprintln(w)
	}

	writeWarningsText(w, d.Warnings, config)
	return nil
}

func detailText(w io.Writer, d *dto.MaterialDetailDashboard, config Config) error {
	if d.MaterialID == "" {
		fmt.Fprintf(w, "📦 General Distribution - import %d\n", d.ImportID)
	} else {
		fmt.Fprintf(w, "📦 Material Detail - %s %s\n", d.MaterialID, d.MaterialName)
	}
	fmt.Fprintf(w, "==================================\n\n")

	s := d.Summary
	fmt.Fprintf(w, "Records: %d\n", s.TotalRecords)
	fmt.Fprintf(w, "Representatives: %d (%d units)\n", s.TotalRepresentatives, s.ShipQtyRepresentatives)
	fmt.Fprintf(w, "Jefes: %d (%d units)\n", s.TotalJefes, s.ShipQtyJefes)
	fmt.Fprintf(w, "Supervisors: %d\n", s.TotalSupervisors)
	fmt.Fprintf(w, "Total To Ship: %d\n\n", s.TotalShipQty)

	if len(d.Details) > 0 {
		fmt.Fprintf(w, "%-12s %-16s %-24s %-8s %-5s\n", "Supervisor", "Representative", "Material", "Ship", "Jefe")
		fmt.Fprintf(w, "%-12s %-16s %-24s %-8s %-5s\n",
			"------------", "----------------", "------------------------", "--------", "-----")
		for _, r := range d.Details {
			rep := "-"
			if r.RepresentativeCode != nil {
				rep = *r.RepresentativeCode
			}
			jefe := ""
			if r.IsJefe {
				jefe = "yes"
			}
			fmt.Fprintf(w, "%-12s %-16s %-24s %-8d %-5s\n", r.Supervisor, rep, r.MaterialID, r.ShipQty, jefe)
		}
		fmt.Fprintln(w)
	}

	writeWarningsText(w, d.Warnings, config)
	return nil
}

func writeWarningsText(w io.Writer, warnings []entities.DataIntegrityWarning, config Config) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "⚠️  Data warnings: %d\n", len(warnings))
	if !config.Verbose {
		fmt.Fprintln(w, "  (use -verbose to list them)")
		return
	}
	for _, warning := range warnings {
		fmt.Fprintf(w, "  %s\n", warning)
	}
}

// writeJSON prints to w, or saves to OutputDir when one is configured
func writeJSON(w io.Writer, value interface{}, config Config, name string) error {
	jsonData, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err := fmt.Fprintln(w, string(jsonData))
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, name)
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(w, "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// writeCSV prints to w, or saves to OutputDir when one is configured
func writeCSV(w io.Writer, rows [][]string, config Config, name string) error {
	if config.OutputDir == "" {
		return writeRows(w, rows)
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, name)
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	if err := writeRows(file, rows); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(w, "💾 CSV results saved to: %s\n", filename)
	}
	return nil
}

func writeRows(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func coverageRows(materials []entities.MaterialCoverageResult) [][]string {
	rows := [][]string{{
		"material_id", "description", "pack", "min_stock", "max_stock",
		"cant_x_criterio_segmentado", "cantidad_criterio_directo", "cant_total", "cant_ajustada",
		"stock", "cant_enviar", "porc_cobert", "porc_cobert_stock_min", "semaforo",
	}}
	for _, m := range materials {
		rows = append(rows, []string{
			string(m.MaterialID),
			m.Description,
			qty(m.Pack),
			optionalQty(m.MinStock),
			optionalQty(m.MaxStock),
			qty(m.SegmentedQty),
			qty(m.DirectQty),
			qty(m.TotalQty),
			qty(m.AdjustedQty),
			qty(m.Stock),
			qty(m.ShipQty),
			strconv.FormatFloat(m.Coverage, 'f', 4, 64),
			optionalRatio(m.CoverageOfMinStock),
			m.Semaforo.String(),
		})
	}
	return rows
}

func detailRows(details []entities.RepresentativeAllocationRow) [][]string {
	rows := [][]string{{"supervisor", "representative_code", "material_id", "cant_enviar", "is_jefe"}}
	for _, r := range details {
		rep := ""
		if r.RepresentativeCode != nil {
			rep = *r.RepresentativeCode
		}
		rows = append(rows, []string{
			r.Supervisor,
			rep,
			string(r.MaterialID),
			qty(r.ShipQty),
			strconv.FormatBool(r.IsJefe),
		})
	}
	return rows
}

func qty(q entities.Quantity) string {
	return strconv.FormatInt(int64(q), 10)
}

func optionalQty(q *entities.Quantity) string {
	if q == nil {
		return ""
	}
	return qty(*q)
}

func optionalRatio(r *float64) string {
	if r == nil {
		return ""
	}
	return strconv.FormatFloat(*r, 'f', 4, 64)
}
