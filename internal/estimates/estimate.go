// Package estimates persists finalized estimates. Totals are always derived
// server-side from stored quantities and the rates current at write time.
package estimates

import (
	"github.com/Simplici0/movequote/internal/pricing"
	"github.com/Simplici0/movequote/internal/wizard"
)

// Estimate is a persisted estimate with its line items and derived totals.
type Estimate struct {
	ID            int64  `json:"id"`
	DraftID       string `json:"draft_id,omitempty"`
	CustomerID    int64  `json:"customer_id"`
	ProjectID     int64  `json:"project_id"`
	CustomerName  string `json:"customer_name,omitempty"`
	ProjectName   string `json:"project_name,omitempty"`
	ProjectStatus string `json:"status,omitempty"`

	Vehicle          pricing.VehicleSelection `json:"vehicle"`
	VehicleUnitPrice int64                    `json:"vehicle_unit_price"`
	Staff            pricing.StaffQuantities  `json:"staff"`
	Services         pricing.ServiceLineItems `json:"services"`

	pricing.Breakdown
	pricing.Totals

	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Input returns the stored raw quantities.
func (e Estimate) Input() pricing.Input {
	return pricing.Input{Vehicle: e.Vehicle, Staff: e.Staff, Services: e.Services}
}

// Patch lists the fields an update may change. Derived amounts are not
// patchable; they are recomputed on every update.
type Patch struct {
	CustomerID *int64                    `json:"customer_id,omitempty"`
	ProjectID  *int64                    `json:"project_id,omitempty"`
	Vehicle    *pricing.VehicleSelection `json:"vehicle,omitempty"`
	Staff      *pricing.StaffQuantities  `json:"staff,omitempty"`
	Services   *pricing.ServiceLineItems `json:"services,omitempty"`
	Notes      *string                   `json:"notes,omitempty"`
}

func (p Patch) apply(e Estimate) Estimate {
	if p.CustomerID != nil {
		e.CustomerID = *p.CustomerID
	}
	if p.ProjectID != nil {
		e.ProjectID = *p.ProjectID
	}
	if p.Vehicle != nil {
		e.Vehicle = *p.Vehicle
	}
	if p.Staff != nil {
		e.Staff = *p.Staff
	}
	if p.Services != nil {
		e.Services = *p.Services
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
	return e
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	CustomerID int64
	ProjectID  int64
	Status     string
	Query      string
}

func fromDraft(d wizard.Draft) Estimate {
	in := d.Input()
	return Estimate{
		DraftID:    d.ID,
		CustomerID: d.CustomerID,
		ProjectID:  d.ProjectID,
		Vehicle:    in.Vehicle,
		Staff:      in.Staff,
		Services:   in.Services,
		Notes:      d.Notes,
	}
}
