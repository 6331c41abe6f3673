package csv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func writeScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, dir, MaterialsFile, "\ufeffcodigo_sap,description,pack,min_stock,max_stock,use_stock_real,stock_manual\n"+
		"M1,Folleto Cardio [0114M],10,20,100,false,\n"+
		"M2,Muestra Antibiotico,6,,,true,12\n")
	writeFixture(t, dir, StockFile, "codigo_sap,stock,stock_real\n"+
		"M1,50,0\n"+
		"M2,500,\n")
	writeFixture(t, dir, CriteriaFile, "row_id,codigo_sap,quantity,porcen_de_aplic,supervisor_code,representative_code\n"+
		"1,M1,10,100,S1,R1\n"+
		"2,M1,5,,S1,R2\n")
	writeFixture(t, dir, DirectFile, "row_id,codigo_sap,quantity,supervisor_code,representative_code\n"+
		"1,M1,10,S2,\n")
	return dir
}

func TestLoader_LoadDataset(t *testing.T) {
	dir := writeScenario(t)

	dataset, err := NewLoader().LoadDataset(dir, entities.Import{ID: 7, Name: "csv"})
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}

	if len(dataset.Materials) != 2 || len(dataset.Stock) != 2 || len(dataset.Criteria) != 2 || len(dataset.Directs) != 1 {
		t.Fatalf("Unexpected dataset %s", dataset)
	}
	if dataset.Representatives != nil {
		t.Errorf("Expected no roster when representatives.csv is absent, got %v", dataset.Representatives)
	}

	m1 := dataset.Materials[0]
	if m1.Code != "M1" || m1.Pack != 10 || *m1.MinStock != 20 || *m1.MaxStock != 100 || m1.StockManual != nil {
		t.Errorf("Unexpected material %+v", m1)
	}
	m2 := dataset.Materials[1]
	if !m2.UseStockReal || m2.MinStock != nil || m2.StockManual == nil || *m2.StockManual != 12 {
		t.Errorf("Unexpected material %+v", m2)
	}

	if dataset.Stock[1].StockReal != nil || dataset.Stock[1].ImportID != 7 {
		t.Errorf("Unexpected stock row %+v", dataset.Stock[1])
	}
	if dataset.Criteria[1].PorcenDeAplic != 100 {
		t.Errorf("Expected default porcen_de_aplic 100, got %d", dataset.Criteria[1].PorcenDeAplic)
	}
	if !dataset.Directs[0].IsDelegation() || dataset.Directs[0].ImportID != 7 {
		t.Errorf("Expected a supervisor-level direct assignment, got %+v", dataset.Directs[0])
	}
}

func TestLoader_MissingMaterials(t *testing.T) {
	if _, err := NewLoader().LoadDataset(t.TempDir(), entities.Import{ID: 1}); err == nil {
		t.Error("Expected an error when materials.csv is missing")
	}
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{
			name:    "header_mismatch",
			file:    MaterialsFile,
			content: "code,description\nM1,x\n",
			want:    "header mismatch",
		},
		{
			name:    "column_count",
			file:    MaterialsFile,
			content: "codigo_sap,description,pack,min_stock,max_stock,use_stock_real,stock_manual\nM1,x,1\n",
			want:    "row 2: expected 7 columns",
		},
		{
			name:    "bad_pack",
			file:    MaterialsFile,
			content: "codigo_sap,description,pack,min_stock,max_stock,use_stock_real,stock_manual\nM1,x,1,,,false,\nM2,y,six,,,false,\n",
			want:    "row 3: invalid pack",
		},
		{
			name:    "empty_code",
			file:    MaterialsFile,
			content: "codigo_sap,description,pack,min_stock,max_stock,use_stock_real,stock_manual\n ,x,1,,,false,\n",
			want:    "codigo_sap cannot be empty",
		},
		{
			name:    "direct_both_holders",
			file:    DirectFile,
			content: "row_id,codigo_sap,quantity,supervisor_code,representative_code\n1,M1,3,S1,R1\n",
			want:    "cannot name both",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != MaterialsFile {
				writeFixture(t, dir, MaterialsFile, strings.Join(materialsHeader, ",")+"\n")
			}
			writeFixture(t, dir, tt.file, tt.content)

			_, err := NewLoader().LoadDataset(dir, entities.Import{ID: 1})
			if err == nil {
				t.Fatalf("Expected an error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoader_Windows1252(t *testing.T) {
	dir := t.TempDir()
	content := "codigo_sap,description,pack,min_stock,max_stock,use_stock_real,stock_manual\n" +
		"M1,Muestra Pediátrica Niño,1,,,sí,\n"
	encoded, err := charmap.Windows1252.NewEncoder().String(content)
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	writeFixture(t, dir, MaterialsFile, encoded)

	loader, err := NewLoaderWithEncoding("windows-1252")
	if err != nil {
		t.Fatalf("NewLoaderWithEncoding failed: %v", err)
	}
	materials, err := loader.LoadMaterials(filepath.Join(dir, MaterialsFile))
	if err != nil {
		t.Fatalf("LoadMaterials failed: %v", err)
	}
	if materials[0].Description != "Muestra Pediátrica Niño" {
		t.Errorf("Expected decoded description, got %q", materials[0].Description)
	}
	if !materials[0].UseStockReal {
		t.Error("Expected use_stock_real to be parsed from \"sí\"")
	}
}

func TestNewLoaderWithEncoding(t *testing.T) {
	for _, name := range []string{"", "UTF-8", "windows-1252", "iso-8859-1", "latin1"} {
		if _, err := NewLoaderWithEncoding(name); err != nil {
			t.Errorf("%q: unexpected error %v", name, err)
		}
	}
	if _, err := NewLoaderWithEncoding("shift-jis"); err == nil {
		t.Error("Expected an error for an unsupported encoding")
	}
}
