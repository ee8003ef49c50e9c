package wizard

import (
	"context"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Simplici0/movequote/internal/apperr"
	"github.com/Simplici0/movequote/internal/pricing"
)

// RateSource supplies the current rates at the moment of a transition.
type RateSource interface {
	StaffRates(ctx context.Context) (pricing.StaffRates, []string, error)
	VehiclePrice(ctx context.Context, key pricing.VehicleKey) (int64, bool, error)
}

// CustomerInput is the customer step input.
type CustomerInput struct {
	CustomerID int64 `json:"customer_id"`
	ProjectID  int64 `json:"project_id"`
}

// NotesInput is the notes step input.
type NotesInput struct {
	Notes string `json:"notes"`
}

// Aggregator applies step transitions. Each transition recomputes the step's
// category cost from the submitted input and the rates fetched now; a cost
// carried in the old draft is never reused.
type Aggregator struct {
	rates RateSource
}

// NewAggregator returns an Aggregator reading rates from src.
func NewAggregator(src RateSource) *Aggregator {
	return &Aggregator{rates: src}
}

// Advance decodes raw as the input of step and applies it to d. On error the
// returned draft is d unchanged.
func (a *Aggregator) Advance(ctx context.Context, d Draft, step Step, raw []byte) (Draft, error) {
	if strings.TrimSpace(d.ID) == "" {
		return d, apperr.Validation("draft_id", "is required")
	}

	switch step {
	case StepCustomer:
		var in CustomerInput
		if err := decodeInput(raw, &in); err != nil {
			return d, err
		}
		return AdvanceCustomer(d, in)
	case StepVehicle:
		var in pricing.VehicleSelection
		if err := decodeInput(raw, &in); err != nil {
			return d, err
		}
		return a.AdvanceVehicle(ctx, d, in)
	case StepStaff:
		var in pricing.StaffQuantities
		if err := decodeInput(raw, &in); err != nil {
			return d, err
		}
		return a.AdvanceStaff(ctx, d, in)
	case StepServices:
		var in pricing.ServiceLineItems
		if err := decodeInput(raw, &in); err != nil {
			return d, err
		}
		return AdvanceServices(d, in)
	case StepNotes:
		var in NotesInput
		if err := decodeInput(raw, &in); err != nil {
			return d, err
		}
		return AdvanceNotes(d, in), nil
	}
	return d, apperr.Validation("step", "unknown step %q", step)
}

func decodeInput(raw []byte, dst any) error {
	if len(raw) == 0 {
		return apperr.Validation("input", "is required")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperr.Validation("input", "is malformed: %v", err)
	}
	return nil
}

// AdvanceCustomer records the customer and project references.
func AdvanceCustomer(d Draft, in CustomerInput) (Draft, error) {
	if in.CustomerID <= 0 {
		return d, apperr.Validation("customer_id", "is required")
	}
	if in.ProjectID <= 0 {
		return d, apperr.Validation("project_id", "is required")
	}

	next := d.clone()
	next.CustomerID = in.CustomerID
	next.ProjectID = in.ProjectID
	return next.markCompleted(StepCustomer), nil
}

// AdvanceVehicle prices the vehicle selection with the current rate and
// replaces the vehicle block.
func (a *Aggregator) AdvanceVehicle(ctx context.Context, d Draft, in pricing.VehicleSelection) (Draft, error) {
	sel, err := in.Normalized()
	if err != nil {
		return d, err
	}

	block := &VehicleBlock{Selection: sel}
	if sel.HasVehicle() {
		key, err := sel.Key()
		if err != nil {
			return d, err
		}
		price, fellBack, err := a.rates.VehiclePrice(ctx, key)
		if err != nil {
			return d, err
		}
		block.UnitPrice = price
		block.Fallback = fellBack
	}
	if block.Cost, err = pricing.VehicleCost(sel, block.UnitPrice); err != nil {
		return d, err
	}

	next := d.clone()
	next.Vehicle = block
	return next.markCompleted(StepVehicle), nil
}

// AdvanceStaff prices the staff quantities with the current rates and
// replaces the staff block.
func (a *Aggregator) AdvanceStaff(ctx context.Context, d Draft, in pricing.StaffQuantities) (Draft, error) {
	if err := in.Validate(); err != nil {
		return d, err
	}

	rates, fallbacks, err := a.rates.StaffRates(ctx)
	if err != nil {
		return d, err
	}
	cost, err := pricing.StaffCost(in, rates)
	if err != nil {
		return d, err
	}

	block := &StaffBlock{
		Quantities: in,
		Rates:      make(map[string]int64, pricing.NumStaffRoles),
		Fallbacks:  fallbacks,
		Cost:       cost,
	}
	for _, role := range pricing.StaffRoles {
		block.Rates[role.RateKey()] = rates.Rate(role)
	}

	next := d.clone()
	next.Staff = block
	return next.markCompleted(StepStaff), nil
}

// AdvanceServices sums the ancillary items and replaces the services block.
func AdvanceServices(d Draft, in pricing.ServiceLineItems) (Draft, error) {
	cost, err := pricing.ServicesCost(in)
	if err != nil {
		return d, err
	}

	next := d.clone()
	next.Services = &ServicesBlock{Items: in, Cost: cost}
	return next.markCompleted(StepServices), nil
}

// AdvanceNotes replaces the running notes.
func AdvanceNotes(d Draft, in NotesInput) Draft {
	next := d.clone()
	next.Notes = strings.TrimSpace(in.Notes)
	return next.markCompleted(StepNotes)
}
