package entities

import "fmt"

// Dataset is the full input of one import, as loaded from an export or a seed
type Dataset struct {
	Import          Import
	Materials       []*Material
	Stock           []*StockRecord
	Criteria        []*CriterionDemand
	Directs         []*DirectDemand
	Representatives []*Representative
}

// Stamp sets the import id on every row of the dataset
func (d *Dataset) Stamp(id ImportID) {
	d.Import.ID = id
	for _, s := range d.Stock {
		s.ImportID = id
	}
	for _, c := range d.Criteria {
		c.ImportID = id
	}
	for _, dd := range d.Directs {
		dd.ImportID = id
	}
}

// String returns a one-line description of the dataset size
func (d *Dataset) String() string {
	return fmt.Sprintf("import %d: %d materials, %d stock rows, %d criterion rows, %d direct rows, %d representatives",
		d.Import.ID, len(d.Materials), len(d.Stock), len(d.Criteria), len(d.Directs), len(d.Representatives))
}
