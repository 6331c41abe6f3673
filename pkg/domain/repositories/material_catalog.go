package repositories

import (
	"context"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// MaterialCatalog provides read access to the material snapshot and stock of an import.
// Get methods return (nil, nil) when the row does not exist.
type MaterialCatalog interface {
	GetMaterial(ctx context.Context, importID entities.ImportID, code entities.MaterialCode) (*entities.Material, error)
	GetStock(ctx context.Context, importID entities.ImportID, code entities.MaterialCode) (*entities.StockRecord, error)
	ListMaterials(ctx context.Context, importID entities.ImportID) ([]*entities.Material, error)
	ListStock(ctx context.Context, importID entities.ImportID) ([]*entities.StockRecord, error)
}

// StockWriter updates the manual stock override of a stock row.
// expectedVersion must match the row's current version, otherwise
// entities.ErrVersionConflict is returned and nothing is written.
type StockWriter interface {
	UpdateStockManual(
		ctx context.Context,
		importID entities.ImportID,
		code entities.MaterialCode,
		value *entities.Quantity,
		expectedVersion int64,
	) (*entities.StockRecord, error)
}
