package entities

import (
	"fmt"
	"time"
)

// Import represents a distribution cycle
type Import struct {
	ID        ImportID
	Name      string
	Deleted   bool
	CreatedAt time.Time
}

// Representative is a field representative and the supervisor they report to
type Representative struct {
	Code           string
	Name           string
	SupervisorCode string
}

// CriterionDemand is the quantity a segmentation criterion requests for one material.
// PorcenDeAplic is already applied to Quantity upstream.
type CriterionDemand struct {
	ImportID           ImportID
	RowID              int64
	Code               MaterialCode
	Quantity           Quantity
	PorcenDeAplic      int
	SupervisorCode     string
	RepresentativeCode string
}

// DirectDemand is a quantity assigned directly to a supervisor or a representative
type DirectDemand struct {
	ImportID           ImportID
	RowID              int64
	Code               MaterialCode
	Quantity           Quantity
	SupervisorCode     string
	RepresentativeCode string
}

// NewDirectDemand creates a validated DirectDemand. Exactly one of supervisor or
// representative must be set.
func NewDirectDemand(
	importID ImportID,
	rowID int64,
	code MaterialCode,
	quantity Quantity,
	supervisorCode, representativeCode string,
) (*DirectDemand, error) {
	if string(code) == "" {
		return nil, fmt.Errorf("material code cannot be empty")
	}
	if quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative, got %d", quantity)
	}
	if supervisorCode == "" && representativeCode == "" {
		return nil, fmt.Errorf("direct assignment %d needs a supervisor or a representative", rowID)
	}
	if supervisorCode != "" && representativeCode != "" {
		return nil, fmt.Errorf("direct assignment %d cannot name both supervisor %s and representative %s",
			rowID, supervisorCode, representativeCode)
	}

	return &DirectDemand{
		ImportID:           importID,
		RowID:              rowID,
		Code:               code,
		Quantity:           quantity,
		SupervisorCode:     supervisorCode,
		RepresentativeCode: representativeCode,
	}, nil
}

// IsDelegation reports whether the assignment targets a supervisor (jefe) rather
// than an individual representative
func (d *DirectDemand) IsDelegation() bool {
	return d.SupervisorCode != "" && d.RepresentativeCode == ""
}
