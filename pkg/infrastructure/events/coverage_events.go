package events

import (
	"github.com/vsinha/sampledist/pkg/domain/entities"
)

const (
	StockManualUpdatedEvent = "stock.manual.updated"
	CoverageComputedEvent   = "coverage.computed"
	ImportDeletedEvent      = "import.deleted"
)

type StockManualUpdated struct {
	Code        entities.MaterialCode `json:"material_id"`
	StockManual *entities.Quantity    `json:"stock_manual"`
	Version     int64                 `json:"version"`
}

type CoverageComputed struct {
	Materials int               `json:"materials"`
	ShipQty   entities.Quantity `json:"ship_qty"`
	Warnings  int               `json:"warnings"`
}

type ImportDeleted struct {
	ImportID entities.ImportID `json:"import_id"`
}

func NewStockManualUpdatedEvent(record entities.StockRecord, value *entities.Quantity) Event {
	return newEvent(StockManualUpdatedEvent, record.ImportID, StockManualUpdated{
		Code:        record.Code,
		StockManual: value,
		Version:     record.Version,
	})
}

func NewCoverageComputedEvent(importID entities.ImportID, materials int, shipQty entities.Quantity, warnings int) Event {
	return newEvent(CoverageComputedEvent, importID, CoverageComputed{
		Materials: materials,
		ShipQty:   shipQty,
		Warnings:  warnings,
	})
}

func NewImportDeletedEvent(importID entities.ImportID) Event {
	return newEvent(ImportDeletedEvent, importID, ImportDeleted{ImportID: importID})
}
