package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vsinha/sampledist/pkg/application/dto"
	"github.com/vsinha/sampledist/pkg/application/services/dashboard"
	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// DashboardService is the application surface the dashboard endpoints call
type DashboardService interface {
	GetCoverageDashboard(ctx context.Context, importID entities.ImportID) (*dto.CoverageDashboard, error)
	GetMaterialDetailDashboard(ctx context.Context, importID entities.ImportID, materialID entities.MaterialCode) (*dto.MaterialDetailDashboard, error)
	UpdateStockManual(ctx context.Context, importID entities.ImportID, code entities.MaterialCode, value *entities.Quantity, expectedVersion int64) (*entities.StockRecord, error)
	DeleteImport(ctx context.Context, importID entities.ImportID) error
}

var _ DashboardService = (*dashboard.Service)(nil)

type DashboardHandler struct {
	svc    DashboardService
	logger *zap.Logger
}

func NewDashboardHandler(svc DashboardService, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{svc: svc, logger: logger}
}

// CoverageDashboard handles GET /imports/:importId/coverage-dashboard
func (h *DashboardHandler) CoverageDashboard(c *gin.Context) {
	importID, ok := importIDParam(c)
	if !ok {
		return
	}

	result, err := h.svc.GetCoverageDashboard(c.Request.Context(), importID)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	Success(c, result)
}

// MaterialDetail handles GET /imports/:importId/material-detail?materialId=
func (h *DashboardHandler) MaterialDetail(c *gin.Context) {
	importID, ok := importIDParam(c)
	if !ok {
		return
	}
	h.detail(c, importID, entities.MaterialCode(c.Query("materialId")))
}

// GeneralDistribution handles GET /imports/:importId/general-distribution
func (h *DashboardHandler) GeneralDistribution(c *gin.Context) {
	importID, ok := importIDParam(c)
	if !ok {
		return
	}
	h.detail(c, importID, "")
}

func (h *DashboardHandler) detail(c *gin.Context, importID entities.ImportID, code entities.MaterialCode) {
	result, err := h.svc.GetMaterialDetailDashboard(c.Request.Context(), importID, code)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	Success(c, result)
}

// UpdateStockManualRequest is the body of the stock-manual endpoint. A null
// stockManual clears the override.
type UpdateStockManualRequest struct {
	StockManual *int64 `json:"stockManual" binding:"omitempty,min=0"`
	Version     *int64 `json:"version" binding:"required,min=0"`
}

type stockRecordResponse struct {
	MaterialID  entities.MaterialCode `json:"materialId"`
	StockManual *int64                `json:"stockManual"`
	Version     int64                 `json:"version"`
}

// UpdateStockManual handles PUT /imports/:importId/materials/:code/stock-manual
func (h *DashboardHandler) UpdateStockManual(c *gin.Context) {
	importID, ok := importIDParam(c)
	if !ok {
		return
	}
	code := entities.MaterialCode(c.Param("code"))

	var req UpdateStockManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	var value *entities.Quantity
	if req.StockManual != nil {
		value = entities.QuantityPtr(entities.Quantity(*req.StockManual))
	}

	record, err := h.svc.UpdateStockManual(c.Request.Context(), importID, code, value, *req.Version)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	Success(c, stockRecordResponse{
		MaterialID:  record.Code,
		StockManual: req.StockManual,
		Version:     record.Version,
	})
}

// DeleteImport handles DELETE /imports/:importId
func (h *DashboardHandler) DeleteImport(c *gin.Context) {
	importID, ok := importIDParam(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteImport(c.Request.Context(), importID); err != nil {
		renderError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"importId": importID, "deleted": true})
}

func importIDParam(c *gin.Context) (entities.ImportID, bool) {
	raw := c.Param("importId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		BadRequest(c, "invalid import id: "+raw)
		return 0, false
	}
	return entities.ImportID(id), true
}
