// Package wizard merges the estimate wizard's per-step results into a draft.
//
// A Draft is a value: every transition returns a new Draft and leaves its
// argument untouched. The draft lives in the client's session storage between
// requests and is untrusted input whenever it comes back.
package wizard

import (
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/movequote/internal/pricing"
)

// Step names one wizard step.
type Step string

const (
	StepCustomer Step = "customer"
	StepVehicle  Step = "vehicle"
	StepStaff    Step = "staff"
	StepServices Step = "services"
	StepNotes    Step = "notes"
)

// Steps lists the steps in wizard order.
var Steps = []Step{StepCustomer, StepVehicle, StepStaff, StepServices, StepNotes}

// ParseStep validates a step name.
func ParseStep(s string) (Step, bool) {
	step := Step(s)
	return step, slices.Contains(Steps, step)
}

func (s Step) order() int {
	return slices.Index(Steps, s)
}

// VehicleBlock is the vehicle step result.
type VehicleBlock struct {
	Selection pricing.VehicleSelection `json:"selection"`
	UnitPrice int64                    `json:"unit_price"`
	Fallback  bool                     `json:"fallback,omitempty"`
	Cost      int64                    `json:"cost"`
}

// StaffBlock is the staff step result.
type StaffBlock struct {
	Quantities pricing.StaffQuantities `json:"quantities"`
	Rates      map[string]int64        `json:"rates"`
	Fallbacks  []string                `json:"fallbacks,omitempty"`
	Cost       int64                   `json:"cost"`
}

// ServicesBlock is the services step result.
type ServicesBlock struct {
	Items pricing.ServiceLineItems `json:"items"`
	Cost  int64                    `json:"cost"`
}

// Draft is the in-progress estimate carried across wizard steps.
type Draft struct {
	ID             string         `json:"draft_id"`
	CustomerID     int64          `json:"customer_id,omitempty"`
	ProjectID      int64          `json:"project_id,omitempty"`
	Vehicle        *VehicleBlock  `json:"vehicle,omitempty"`
	Staff          *StaffBlock    `json:"staff,omitempty"`
	Services       *ServicesBlock `json:"services,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	CompletedSteps []Step         `json:"completed_steps,omitempty"`
}

// NewDraft returns an empty draft with a fresh id.
func NewDraft() Draft {
	return Draft{ID: uuid.NewString()}
}

// clone deep-copies d so a transition never aliases the previous draft.
func (d Draft) clone() Draft {
	out := d
	if d.Vehicle != nil {
		v := *d.Vehicle
		out.Vehicle = &v
	}
	if d.Staff != nil {
		s := *d.Staff
		s.Rates = make(map[string]int64, len(d.Staff.Rates))
		for k, v := range d.Staff.Rates {
			s.Rates[k] = v
		}
		s.Fallbacks = slices.Clone(d.Staff.Fallbacks)
		out.Staff = &s
	}
	if d.Services != nil {
		s := *d.Services
		out.Services = &s
	}
	out.CompletedSteps = slices.Clone(d.CompletedSteps)
	return out
}

func (d Draft) markCompleted(step Step) Draft {
	if slices.Contains(d.CompletedSteps, step) {
		return d
	}
	d.CompletedSteps = append(d.CompletedSteps, step)
	slices.SortFunc(d.CompletedSteps, func(a, b Step) int { return a.order() - b.order() })
	return d
}

// Input returns the raw quantities held by the draft.
func (d Draft) Input() pricing.Input {
	var in pricing.Input
	if d.Vehicle != nil {
		in.Vehicle = d.Vehicle.Selection
	}
	if d.Staff != nil {
		in.Staff = d.Staff.Quantities
	}
	if d.Services != nil {
		in.Services = d.Services.Items
	}
	return in
}

// Breakdown returns the category subtotals computed at each step.
func (d Draft) Breakdown() pricing.Breakdown {
	var b pricing.Breakdown
	if d.Vehicle != nil {
		b.VehicleCost = d.Vehicle.Cost
	}
	if d.Staff != nil {
		b.StaffCost = d.Staff.Cost
	}
	if d.Services != nil {
		b.ServicesCost = d.Services.Cost
	}
	return b
}

// Totals runs the final totals engine over the draft's step subtotals. It is a
// preview; the persisted estimate is recomputed from raw quantities.
func (d Draft) Totals(taxRate decimal.Decimal) (pricing.Totals, error) {
	return pricing.ComputeTotals(d.Breakdown(), taxRate)
}
