package shared

import (
	"fmt"
	"sort"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// DemandContext holds the demand rows and totals of one material
type DemandContext struct {
	SegmentedQty entities.Quantity
	DirectQty    entities.Quantity
	Criteria     []*entities.CriterionDemand
	Directs      []*entities.DirectDemand
}

// TotalQty is segmented plus direct demand
func (c *DemandContext) TotalQty() entities.Quantity {
	return c.SegmentedQty + c.DirectQty
}

// DemandIndex groups criterion and direct demand by material code
type DemandIndex map[entities.MaterialCode]*DemandContext

// NewDemandIndex creates a new empty demand index
func NewDemandIndex() DemandIndex {
	return make(DemandIndex)
}

// BuildDemandIndex indexes the demand rows of an import. Negative quantities are
// skipped and reported through diag.
func BuildDemandIndex(
	importID entities.ImportID,
	criteria []*entities.CriterionDemand,
	directs []*entities.DirectDemand,
	diag *Diagnostics,
) DemandIndex {
	index := NewDemandIndex()
	for _, c := range criteria {
		if c.ImportID != importID {
			continue
		}
		if c.Quantity < 0 {
			diag.Warn(importID, c.Code, entities.WarningNegativeDemand,
				fmt.Sprintf("criterion row %d requests %d units, skipped", c.RowID, c.Quantity))
			continue
		}
		ctx := index.ensure(c.Code)
		ctx.SegmentedQty += c.Quantity
		ctx.Criteria = append(ctx.Criteria, c)
	}
	for _, d := range directs {
		if d.ImportID != importID {
			continue
		}
		if d.Quantity < 0 {
			diag.Warn(importID, d.Code, entities.WarningNegativeDemand,
				fmt.Sprintf("direct row %d requests %d units, skipped", d.RowID, d.Quantity))
			continue
		}
		ctx := index.ensure(d.Code)
		ctx.DirectQty += d.Quantity
		ctx.Directs = append(ctx.Directs, d)
	}
	return index
}

// Get retrieves the demand context of a material
func (di DemandIndex) Get(code entities.MaterialCode) *DemandContext {
	return di[code]
}

// ensure returns the context of a material, creating it if needed
func (di DemandIndex) ensure(code entities.MaterialCode) *DemandContext {
	ctx, ok := di[code]
	if !ok {
		ctx = &DemandContext{}
		di[code] = ctx
	}
	return ctx
}

// Size returns the number of materials with demand
func (di DemandIndex) Size() int {
	return len(di)
}

// Codes returns the indexed material codes in lexical order
func (di DemandIndex) Codes() []entities.MaterialCode {
	codes := make([]entities.MaterialCode, 0, len(di))
	for code := range di {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// GetTotalSegmented returns segmented demand across all materials
func (di DemandIndex) GetTotalSegmented() entities.Quantity {
	var total entities.Quantity
	for _, ctx := range di {
		total += ctx.SegmentedQty
	}
	return total
}

// GetTotalDirect returns direct demand across all materials
func (di DemandIndex) GetTotalDirect() entities.Quantity {
	var total entities.Quantity
	for _, ctx := range di {
		total += ctx.DirectQty
	}
	return total
}

// String returns a string representation of the index for debugging
func (di DemandIndex) String() string {
	if len(di) == 0 {
		return "DemandIndex{empty}"
	}

	result := fmt.Sprintf("DemandIndex{%d entries:\n", len(di))
	for _, code := range di.Codes() {
		ctx := di[code]
		result += fmt.Sprintf(
			"  %s: segmented=%d (%d rows), direct=%d (%d rows)\n",
			code,
			ctx.SegmentedQty,
			len(ctx.Criteria),
			ctx.DirectQty,
			len(ctx.Directs),
		)
	}
	result += "}"
	return result
}
