package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// WriteDataset writes dataset as a UTF-8 export directory readable by LoadDataset
func WriteDataset(dir string, dataset *entities.Dataset) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	materials := [][]string{materialsHeader}
	for _, m := range dataset.Materials {
		materials = append(materials, []string{
			string(m.Code),
			m.Description,
			formatQuantity(m.Pack),
			formatOptional(m.MinStock),
			formatOptional(m.MaxStock),
			strconv.FormatBool(m.UseStockReal),
			formatOptional(m.StockManual),
		})
	}

	stock := [][]string{stockHeader}
	for _, s := range dataset.Stock {
		stock = append(stock, []string{string(s.Code), formatOptional(s.Stock), formatOptional(s.StockReal)})
	}

	criteria := [][]string{criteriaHeader}
	for _, c := range dataset.Criteria {
		criteria = append(criteria, []string{
			strconv.FormatInt(c.RowID, 10),
			string(c.Code),
			formatQuantity(c.Quantity),
			strconv.Itoa(c.PorcenDeAplic),
			c.SupervisorCode,
			c.RepresentativeCode,
		})
	}

	directs := [][]string{directHeader}
	for _, d := range dataset.Directs {
		directs = append(directs, []string{
			strconv.FormatInt(d.RowID, 10),
			string(d.Code),
			formatQuantity(d.Quantity),
			d.SupervisorCode,
			d.RepresentativeCode,
		})
	}

	reps := [][]string{representativesHeader}
	for _, r := range dataset.Representatives {
		reps = append(reps, []string{r.Code, r.Name, r.SupervisorCode})
	}

	files := []struct {
		name string
		rows [][]string
	}{
		{MaterialsFile, materials},
		{StockFile, stock},
		{CriteriaFile, criteria},
		{DirectFile, directs},
		{RepresentativesFile, reps},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.rows); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

func formatQuantity(q entities.Quantity) string {
	return strconv.FormatInt(int64(q), 10)
}

func formatOptional(q *entities.Quantity) string {
	if q == nil {
		return ""
	}
	return formatQuantity(*q)
}
