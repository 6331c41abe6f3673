package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// File names of an import export directory
const (
	MaterialsFile       = "materials.csv"
	StockFile           = "stock.csv"
	CriteriaFile        = "criteria.csv"
	DirectFile          = "direct.csv"
	RepresentativesFile = "representatives.csv"
)

var (
	materialsHeader       = []string{"codigo_sap", "description", "pack", "min_stock", "max_stock", "use_stock_real", "stock_manual"}
	stockHeader           = []string{"codigo_sap", "stock", "stock_real"}
	criteriaHeader        = []string{"row_id", "codigo_sap", "quantity", "porcen_de_aplic", "supervisor_code", "representative_code"}
	directHeader          = []string{"row_id", "codigo_sap", "quantity", "supervisor_code", "representative_code"}
	representativesHeader = []string{"code", "name", "supervisor_code"}
)

// Loader reads an import from the CSV files exported by the planning sheet
type Loader struct {
	encoding encoding.Encoding
}

// NewLoader creates a loader for UTF-8 files (a leading BOM is skipped)
func NewLoader() *Loader {
	return &Loader{encoding: unicode.UTF8BOM}
}

// NewLoaderWithEncoding creates a loader for the named charset:
// utf-8, windows-1252 or iso-8859-1
func NewLoaderWithEncoding(name string) (*Loader, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return NewLoader(), nil
	case "windows-1252", "cp1252":
		return &Loader{encoding: charmap.Windows1252}, nil
	case "iso-8859-1", "latin1":
		return &Loader{encoding: charmap.ISO8859_1}, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q (expected utf-8, windows-1252 or iso-8859-1)", name)
	}
}

// LoadDataset reads every export file in dir. materials.csv is required, the
// other files are optional and count as empty when absent.
func (l *Loader) LoadDataset(dir string, imp entities.Import) (*entities.Dataset, error) {
	dataset := &entities.Dataset{Import: imp}

	var err error
	if dataset.Materials, err = l.LoadMaterials(filepath.Join(dir, MaterialsFile)); err != nil {
		return nil, err
	}
	if dataset.Stock, err = optional(l.LoadStock(filepath.Join(dir, StockFile), imp.ID)); err != nil {
		return nil, err
	}
	if dataset.Criteria, err = optional(l.LoadCriteria(filepath.Join(dir, CriteriaFile), imp.ID)); err != nil {
		return nil, err
	}
	if dataset.Directs, err = optional(l.LoadDirect(filepath.Join(dir, DirectFile), imp.ID)); err != nil {
		return nil, err
	}
	if dataset.Representatives, err = optional(l.LoadRepresentatives(filepath.Join(dir, RepresentativesFile))); err != nil {
		return nil, err
	}
	return dataset, nil
}

func optional[T any](rows []T, err error) ([]T, error) {
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return rows, err
}

// LoadMaterials loads the material catalog of an import
func (l *Loader) LoadMaterials(filename string) ([]*entities.Material, error) {
	records, err := l.readFile(filename, "materials", materialsHeader)
	if err != nil {
		return nil, err
	}

	var materials []*entities.Material
	for i, record := range records {
		material, err := parseMaterial(record)
		if err != nil {
			return nil, fmt.Errorf("materials CSV row %d: %w", i+2, err)
		}
		materials = append(materials, material)
	}
	return materials, nil
}

// LoadStock loads the system and counted stock of an import
func (l *Loader) LoadStock(filename string, importID entities.ImportID) ([]*entities.StockRecord, error) {
	records, err := l.readFile(filename, "stock", stockHeader)
	if err != nil {
		return nil, err
	}

	var stock []*entities.StockRecord
	for i, record := range records {
		code, err := parseCode(record[0])
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: %w", i+2, err)
		}
		system, err := parseOptionalQuantity("stock", record[1])
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: %w", i+2, err)
		}
		counted, err := parseOptionalQuantity("stock_real", record[2])
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: %w", i+2, err)
		}
		stock = append(stock, &entities.StockRecord{
			ImportID:  importID,
			Code:      code,
			Stock:     system,
			StockReal: counted,
		})
	}
	return stock, nil
}

// LoadCriteria loads the segmentation criterion demand lines of an import
func (l *Loader) LoadCriteria(filename string, importID entities.ImportID) ([]*entities.CriterionDemand, error) {
	records, err := l.readFile(filename, "criteria", criteriaHeader)
	if err != nil {
		return nil, err
	}

	var demands []*entities.CriterionDemand
	for i, record := range records {
		demand, err := parseCriterion(importID, record)
		if err != nil {
			return nil, fmt.Errorf("criteria CSV row %d: %w", i+2, err)
		}
		demands = append(demands, demand)
	}
	return demands, nil
}

// LoadDirect loads the direct assignment lines of an import
func (l *Loader) LoadDirect(filename string, importID entities.ImportID) ([]*entities.DirectDemand, error) {
	records, err := l.readFile(filename, "direct", directHeader)
	if err != nil {
		return nil, err
	}

	var demands []*entities.DirectDemand
	for i, record := range records {
		rowID, err := parseRowID(record[0])
		if err != nil {
			return nil, fmt.Errorf("direct CSV row %d: %w", i+2, err)
		}
		quantity, err := parseQuantity("quantity", record[2])
		if err != nil {
			return nil, fmt.Errorf("direct CSV row %d: %w", i+2, err)
		}
		demand, err := entities.NewDirectDemand(importID, rowID, entities.MaterialCode(strings.TrimSpace(record[1])),
			quantity, strings.TrimSpace(record[3]), strings.TrimSpace(record[4]))
		if err != nil {
			return nil, fmt.Errorf("direct CSV row %d: %w", i+2, err)
		}
		demands = append(demands, demand)
	}
	return demands, nil
}

// LoadRepresentatives loads the representative roster
func (l *Loader) LoadRepresentatives(filename string) ([]*entities.Representative, error) {
	records, err := l.readFile(filename, "representatives", representativesHeader)
	if err != nil {
		return nil, err
	}

	var reps []*entities.Representative
	for i, record := range records {
		code := strings.TrimSpace(record[0])
		if code == "" {
			return nil, fmt.Errorf("representatives CSV row %d: code cannot be empty", i+2)
		}
		reps = append(reps, &entities.Representative{
			Code:           code,
			Name:           strings.TrimSpace(record[1]),
			SupervisorCode: strings.TrimSpace(record[2]),
		})
	}
	return reps, nil
}

// readFile decodes a CSV file, validates its header and returns the data rows
func (l *Loader) readFile(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	records, err := l.read(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}
	return rows, nil
}

func (l *Loader) read(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(transform.NewReader(r, l.encoding.NewDecoder()))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

// Helper functions for parsing CSV records

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseMaterial(record []string) (*entities.Material, error) {
	code, err := parseCode(record[0])
	if err != nil {
		return nil, err
	}

	// pack < 1 is kept as exported; the reconciler reports it
	pack, err := parseQuantity("pack", record[2])
	if err != nil {
		return nil, err
	}

	minStock, err := parseOptionalQuantity("min_stock", record[3])
	if err != nil {
		return nil, err
	}
	maxStock, err := parseOptionalQuantity("max_stock", record[4])
	if err != nil {
		return nil, err
	}

	useStockReal, err := parseBool(record[5])
	if err != nil {
		return nil, fmt.Errorf("invalid use_stock_real: %s", record[5])
	}

	stockManual, err := parseOptionalQuantity("stock_manual", record[6])
	if err != nil {
		return nil, err
	}

	return &entities.Material{
		Code:         code,
		Description:  strings.TrimSpace(record[1]),
		Pack:         pack,
		MinStock:     minStock,
		MaxStock:     maxStock,
		UseStockReal: useStockReal,
		StockManual:  stockManual,
	}, nil
}

func parseCriterion(importID entities.ImportID, record []string) (*entities.CriterionDemand, error) {
	rowID, err := parseRowID(record[0])
	if err != nil {
		return nil, err
	}
	code, err := parseCode(record[1])
	if err != nil {
		return nil, err
	}
	quantity, err := parseQuantity("quantity", record[2])
	if err != nil {
		return nil, err
	}

	porcen := 100
	if s := strings.TrimSpace(record[3]); s != "" {
		if porcen, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("invalid porcen_de_aplic: %s", record[3])
		}
	}

	return &entities.CriterionDemand{
		ImportID:           importID,
		RowID:              rowID,
		Code:               code,
		Quantity:           quantity,
		PorcenDeAplic:      porcen,
		SupervisorCode:     strings.TrimSpace(record[4]),
		RepresentativeCode: strings.TrimSpace(record[5]),
	}, nil
}

func parseCode(s string) (entities.MaterialCode, error) {
	code := strings.TrimSpace(s)
	if code == "" {
		return "", fmt.Errorf("codigo_sap cannot be empty")
	}
	return entities.MaterialCode(code), nil
}

func parseRowID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid row_id: %s", s)
	}
	return id, nil
}

func parseQuantity(field, s string) (entities.Quantity, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", field, s)
	}
	return entities.Quantity(n), nil
}

// parseOptionalQuantity maps an empty cell to nil
func parseOptionalQuantity(field, s string) (*entities.Quantity, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	q, err := parseQuantity(field, s)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "si", "sí", "s", "yes", "y", "x":
		return true, nil
	default:
		return false, fmt.Errorf("invalid boolean: %s", s)
	}
}
