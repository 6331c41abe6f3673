package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/sampledist/pkg/domain/entities"
	"github.com/vsinha/sampledist/pkg/domain/repositories"
)

type materialKey struct {
	importID entities.ImportID
	code     entities.MaterialCode
}

// MaterialRepository provides in-memory material snapshot and stock storage
type MaterialRepository struct {
	mu        sync.RWMutex
	materials []entities.Material
	owners    []entities.ImportID
	index     map[materialKey]int
	stock     map[materialKey]entities.StockRecord
	stockKeys []materialKey
}

// NewMaterialRepository creates a new in-memory material repository
func NewMaterialRepository(expectedMaterials int) *MaterialRepository {
	return &MaterialRepository{
		materials: make([]entities.Material, 0, expectedMaterials),
		owners:    make([]entities.ImportID, 0, expectedMaterials),
		index:     make(map[materialKey]int, expectedMaterials),
		stock:     make(map[materialKey]entities.StockRecord, expectedMaterials),
	}
}

// Verify interface compliance
var (
	_ repositories.MaterialCatalog = (*MaterialRepository)(nil)
	_ repositories.StockWriter     = (*MaterialRepository)(nil)
)

// LoadMaterials loads the material snapshot of an import
func (r *MaterialRepository) LoadMaterials(importID entities.ImportID, materials []*entities.Material) error {
	for _, m := range materials {
		r.AddMaterial(importID, *m)
	}
	return nil
}

// LoadStock loads stock records
func (r *MaterialRepository) LoadStock(records []*entities.StockRecord) error {
	for _, rec := range records {
		r.AddStock(*rec)
	}
	return nil
}

// AddMaterial adds or replaces a material of an import
func (r *MaterialRepository) AddMaterial(importID entities.ImportID, material entities.Material) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := materialKey{importID, material.Code}
	if i, exists := r.index[key]; exists {
		r.materials[i] = material
		return
	}
	r.index[key] = len(r.materials)
	r.materials = append(r.materials, material)
	r.owners = append(r.owners, importID)
}

// AddStock adds or replaces a stock record
func (r *MaterialRepository) AddStock(record entities.StockRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := materialKey{record.ImportID, record.Code}
	if _, exists := r.stock[key]; !exists {
		r.stockKeys = append(r.stockKeys, key)
	}
	r.stock[key] = record
}

// GetMaterial returns a material of an import, or nil if it is not in the catalog
func (r *MaterialRepository) GetMaterial(_ context.Context, importID entities.ImportID, code entities.MaterialCode) (*entities.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, exists := r.index[materialKey{importID, code}]
	if !exists {
		return nil, nil
	}
	m := r.materials[i]
	return &m, nil
}

// GetStock returns the stock record of a material, or nil
func (r *MaterialRepository) GetStock(_ context.Context, importID entities.ImportID, code entities.MaterialCode) (*entities.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.stock[materialKey{importID, code}]
	if !exists {
		return nil, nil
	}
	return &rec, nil
}

// ListMaterials returns the catalog of an import in insertion order
func (r *MaterialRepository) ListMaterials(_ context.Context, importID entities.ImportID) ([]*entities.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var materials []*entities.Material
	for i := range r.materials {
		if r.owners[i] == importID {
			m := r.materials[i]
			materials = append(materials, &m)
		}
	}
	return materials, nil
}

// ListStock returns the stock records of an import in insertion order
func (r *MaterialRepository) ListStock(_ context.Context, importID entities.ImportID) ([]*entities.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*entities.StockRecord
	for _, key := range r.stockKeys {
		if key.importID == importID {
			rec := r.stock[key]
			records = append(records, &rec)
		}
	}
	return records, nil
}

// UpdateStockManual sets or clears the manual stock override of a material
func (r *MaterialRepository) UpdateStockManual(
	_ context.Context,
	importID entities.ImportID,
	code entities.MaterialCode,
	value *entities.Quantity,
	expectedVersion int64,
) (*entities.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := materialKey{importID, code}
	i, exists := r.index[key]
	if !exists {
		return nil, entities.MaterialNotFound(importID, code)
	}

	rec, hasStock := r.stock[key]
	if !hasStock {
		rec = entities.StockRecord{ImportID: importID, Code: code, ManualOnly: true}
	}
	if rec.Version != expectedVersion {
		return nil, fmt.Errorf("%w: stock of %s is at version %d, expected %d",
			entities.ErrVersionConflict, code, rec.Version, expectedVersion)
	}

	if value != nil {
		v := *value
		value = &v
	}
	r.materials[i].StockManual = value
	rec.Version++
	if !hasStock {
		r.stockKeys = append(r.stockKeys, key)
	}
	r.stock[key] = rec

	return &rec, nil
}

// Clone returns an independent copy of the repository
func (r *MaterialRepository) Clone() *MaterialRepository {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := NewMaterialRepository(len(r.materials))
	c.materials = append(c.materials, r.materials...)
	c.owners = append(c.owners, r.owners...)
	for k, v := range r.index {
		c.index[k] = v
	}
	for k, v := range r.stock {
		c.stock[k] = v
	}
	c.stockKeys = append(c.stockKeys, r.stockKeys...)
	return c
}
