package entities

import "fmt"

// MaterialCode is the SAP code identifying a material (codigoSap)
type MaterialCode string

// ImportID identifies a distribution cycle
type ImportID int64

// Quantity represents an integer quantity of sample units
type Quantity int64

// QuantityPtr returns a pointer to q, for nullable bounds and overrides
func QuantityPtr(q Quantity) *Quantity {
	return &q
}

// Material is the per-import snapshot of a material's master data
type Material struct {
	Code         MaterialCode
	Description  string
	Pack         Quantity
	MinStock     *Quantity
	MaxStock     *Quantity
	UseStockReal bool
	StockManual  *Quantity
}

// NewMaterial creates a validated Material
func NewMaterial(
	code MaterialCode,
	description string,
	pack Quantity,
	minStock, maxStock *Quantity,
	useStockReal bool,
	stockManual *Quantity,
) (*Material, error) {
	if string(code) == "" {
		return nil, fmt.Errorf("material code cannot be empty")
	}
	if pack < 1 {
		return nil, fmt.Errorf("pack must be at least 1, got %d", pack)
	}
	if minStock != nil && *minStock < 0 {
		return nil, fmt.Errorf("min stock cannot be negative, got %d", *minStock)
	}
	if maxStock != nil && *maxStock < 0 {
		return nil, fmt.Errorf("max stock cannot be negative, got %d", *maxStock)
	}

	return &Material{
		Code:         code,
		Description:  description,
		Pack:         pack,
		MinStock:     minStock,
		MaxStock:     maxStock,
		UseStockReal: useStockReal,
		StockManual:  stockManual,
	}, nil
}

// HasBounds reports whether both min and max stock are defined
func (m *Material) HasBounds() bool {
	return m.MinStock != nil && m.MaxStock != nil
}

// StockRecord holds system and counted stock for a material within an import
type StockRecord struct {
	ImportID  ImportID
	Code      MaterialCode
	Stock     *Quantity
	StockReal *Quantity
	Version   int64
	// ManualOnly marks a row created to hold a manual override; its stock
	// columns were never loaded
	ManualOnly bool
}

// EffectiveStock resolves the stock a reconciliation runs against:
// stockManual ?? (useStockReal ? stockReal : stock) ?? 0.
// The second return value is false when neither an override nor a loaded stock
// record exists.
func EffectiveStock(material *Material, stock *StockRecord) (Quantity, bool) {
	if material != nil && material.StockManual != nil {
		return *material.StockManual, true
	}
	if stock == nil || stock.ManualOnly {
		return 0, false
	}

	selected := stock.Stock
	if material != nil && material.UseStockReal {
		selected = stock.StockReal
	}
	if selected == nil {
		return 0, true
	}
	return *selected, true
}
