package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/sampledist/pkg/application/dto"
	"github.com/vsinha/sampledist/pkg/application/services/dashboard"
	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/infrastructure/cache"
	testhelpers "github.com/vsinha/sampledist/pkg/infrastructure/testing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store := testhelpers.BuildDistributionScenario()
	svc := dashboard.NewService(dashboard.DefaultConfig(), dashboard.Dependencies{
		Snapshots: store,
		Stock:     store,
		Imports:   store,
		Cache:     cache.NewMemoryCache(),
	}, nil)
	return NewRouter(RouterConfig{Dashboard: svc, Version: "test"})
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestCoverageDashboardEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(router, "GET", "/api/v1/imports/1/coverage-dashboard", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a request id header")
	}

	resp := parseResponse(t, w)
	if resp["code"].(float64) != 0 {
		t.Errorf("Expected code 0, got %v", resp["code"])
	}
	data := resp["data"].(map[string]interface{})
	summary := data["summary"].(map[string]interface{})
	if summary["totalCantEnviar"].(float64) != 28 {
		t.Errorf("Expected totalCantEnviar 28, got %v", summary["totalCantEnviar"])
	}
	materials := data["materials"].([]interface{})
	first := materials[0].(map[string]interface{})
	if first["materialId"] != "A [0010M]" || first["semaforo"] != "VERDE" {
		t.Errorf("Unexpected first material %v", first)
	}
}

func TestMaterialDetailEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(router, "GET", "/api/v1/imports/1/material-detail?materialId=B%20%5B0020M%5D", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := parseResponse(t, w)["data"].(map[string]interface{})
	if data["materialName"] != "Muestra Antibiotico" {
		t.Errorf("Unexpected material name %v", data["materialName"])
	}
	details := data["details"].([]interface{})
	if len(details) != 4 {
		t.Fatalf("Expected 4 detail rows, got %d", len(details))
	}
	jefes := 0
	for _, d := range details {
		row := d.(map[string]interface{})
		if row["isJefe"] == true {
			jefes++
			if row["representativeCode"] != nil || row["supervisor"] != "S2" {
				t.Errorf("Expected the S2 jefe row with a null representative, got %v", row)
			}
		}
	}
	if jefes != 1 {
		t.Errorf("Expected 1 jefe row, got %d", jefes)
	}

	w = doRequest(router, "GET", "/api/v1/imports/1/general-distribution", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	summary := parseResponse(t, w)["data"].(map[string]interface{})["summary"].(map[string]interface{})
	if summary["totalCantEnviar"].(float64) != 31 {
		t.Errorf("Expected general distribution total 31, got %v", summary["totalCantEnviar"])
	}
}

func TestEndpointErrors(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantCode   float64
	}{
		{"invalid_import_id", "GET", "/api/v1/imports/abc/coverage-dashboard", nil, 400, 40000},
		{"zero_import_id", "GET", "/api/v1/imports/0/coverage-dashboard", nil, 400, 40000},
		{"unknown_import", "GET", "/api/v1/imports/42/coverage-dashboard", nil, 404, 40400},
		{"deleted_import", "GET", "/api/v1/imports/99/general-distribution", nil, 404, 40400},
		{"unknown_material", "GET", "/api/v1/imports/1/material-detail?materialId=NOPE", nil, 404, 40400},
		{"missing_version", "PUT", "/api/v1/imports/1/materials/D%20%5B0040M%5D/stock-manual",
			map[string]interface{}{"stockManual": 3}, 400, 40000},
		{"negative_stock_manual", "PUT", "/api/v1/imports/1/materials/D%20%5B0040M%5D/stock-manual",
			map[string]interface{}{"stockManual": -1, "version": 0}, 400, 40000},
		{"stale_version", "PUT", "/api/v1/imports/1/materials/D%20%5B0040M%5D/stock-manual",
			map[string]interface{}{"stockManual": 3, "version": 5}, 409, 40900},
		{"unknown_stock_material", "PUT", "/api/v1/imports/1/materials/NOPE/stock-manual",
			map[string]interface{}{"stockManual": 3, "version": 0}, 404, 40400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if code := parseResponse(t, w)["code"].(float64); code != tt.wantCode {
				t.Errorf("Expected code %v, got %v", tt.wantCode, code)
			}
		})
	}
}

func TestUpdateStockManualEndpoint(t *testing.T) {
	router := setupRouter(t)
	path := "/api/v1/imports/1/materials/A%20%5B0010M%5D/stock-manual"

	w := doRequest(router, "PUT", path, map[string]interface{}{"stockManual": 3, "version": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := parseResponse(t, w)["data"].(map[string]interface{})
	if data["version"].(float64) != 1 || data["stockManual"].(float64) != 3 {
		t.Errorf("Unexpected update response %v", data)
	}

	// the dashboard reflects the override: A ships min(7 demand, 3 stock) = 3
	w = doRequest(router, "GET", "/api/v1/imports/1/coverage-dashboard", nil)
	materials := parseResponse(t, w)["data"].(map[string]interface{})["materials"].([]interface{})
	a := materials[0].(map[string]interface{})
	if a["cantEnviar"].(float64) != 3 {
		t.Errorf("Expected A to ship 3 after the override, got %v", a["cantEnviar"])
	}

	// clearing with a null value at the current version
	w = doRequest(router, "PUT", path, map[string]interface{}{"stockManual": nil, "version": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if v := parseResponse(t, w)["data"].(map[string]interface{})["version"].(float64); v != 2 {
		t.Errorf("Expected version 2, got %v", v)
	}
}

func TestDeleteImportEndpoint(t *testing.T) {
	router := setupRouter(t)

	if w := doRequest(router, "GET", "/api/v1/imports/1/coverage-dashboard", nil); w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w := doRequest(router, "DELETE", "/api/v1/imports/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if data := parseResponse(t, w)["data"].(map[string]interface{}); data["deleted"] != true {
		t.Errorf("Unexpected delete response %v", data)
	}

	// the cached dashboard is gone with the import
	if w := doRequest(router, "GET", "/api/v1/imports/1/coverage-dashboard", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after deletion, got %d: %s", w.Code, w.Body.String())
	}
	if w := doRequest(router, "DELETE", "/api/v1/imports/42", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown import, got %d", w.Code)
	}
}

type failingService struct {
	err error
}

func (f failingService) GetCoverageDashboard(context.Context, entities.ImportID) (*dto.CoverageDashboard, error) {
	return nil, f.err
}

func (f failingService) GetMaterialDetailDashboard(context.Context, entities.ImportID, entities.MaterialCode) (*dto.MaterialDetailDashboard, error) {
	return nil, f.err
}

func (f failingService) UpdateStockManual(context.Context, entities.ImportID, entities.MaterialCode, *entities.Quantity, int64) (*entities.StockRecord, error) {
	return nil, f.err
}

func (f failingService) DeleteImport(context.Context, entities.ImportID) error {
	return f.err
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"internal", errors.New("connection reset by peer"), 500, "internal server error"},
		{"timeout", context.DeadlineExceeded, 504, "request timed out"},
		{"wrapped_not_found", entities.ImportNotFound(5), 404, "import not found: 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(RouterConfig{Dashboard: failingService{err: tt.err}})
			w := doRequest(router, "GET", "/api/v1/imports/5/coverage-dashboard", nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d", tt.wantStatus, w.Code)
			}
			if msg := parseResponse(t, w)["message"]; msg != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, msg)
			}
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := NewRouter(RouterConfig{
		Dashboard: failingService{},
		Version:   "1.2.3",
		Ready: map[string]ReadinessCheck{
			"database": func(context.Context) error { return nil },
		},
	})

	if w := doRequest(router, "GET", "/health/live", nil); w.Code != http.StatusOK {
		t.Errorf("Expected live 200, got %d", w.Code)
	}
	if w := doRequest(router, "GET", "/health/ready", nil); w.Code != http.StatusOK {
		t.Errorf("Expected ready 200, got %d", w.Code)
	}
	w := doRequest(router, "GET", "/version", nil)
	if parseResponse(t, w)["version"] != "1.2.3" {
		t.Errorf("Unexpected version body %s", w.Body.String())
	}

	down := NewRouter(RouterConfig{
		Dashboard: failingService{},
		Ready: map[string]ReadinessCheck{
			"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
		},
	})
	if w := doRequest(down, "GET", "/health/ready", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected ready 503, got %d", w.Code)
	}
}
