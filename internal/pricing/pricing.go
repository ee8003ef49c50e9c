package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Simplici0/movequote/internal/apperr"
)

// DefaultTaxRate is applied when no tax rate is configured.
var DefaultTaxRate = decimal.RequireFromString("0.10")

// Input groups the raw quantities of one estimate. All derived amounts are
// computed from it; nothing here is a cached total.
type Input struct {
	Vehicle  VehicleSelection `json:"vehicle"`
	Staff    StaffQuantities  `json:"staff"`
	Services ServiceLineItems `json:"services"`
}

// Rates are the unit prices resolved for one calculation.
type Rates struct {
	Staff            StaffRates
	VehicleUnitPrice int64
	TaxRate          decimal.Decimal
}

// Breakdown contains the per-category subtotals.
type Breakdown struct {
	VehicleCost  int64 `json:"vehicle_cost"`
	StaffCost    int64 `json:"staff_cost"`
	ServicesCost int64 `json:"services_cost"`
}

// Totals contains roll-up values from the pricing calculation.
type Totals struct {
	Subtotal    int64           `json:"subtotal"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   int64           `json:"tax_amount"`
	TotalAmount int64           `json:"total_amount"`
}

// Result groups the full pricing output, including detailed breakdown and totals.
type Result struct {
	Breakdown Breakdown `json:"breakdown"`
	Totals    Totals    `json:"totals"`
}

// Validate rejects negative quantities and amounts. Values are never clamped.
func (in Input) Validate() error {
	if err := in.Vehicle.Validate(); err != nil {
		return err
	}
	if err := in.Staff.Validate(); err != nil {
		return err
	}
	return in.Services.Validate()
}

// Calculate computes every category subtotal and the final totals.
func Calculate(in Input, rates Rates) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	vehicleCost, err := VehicleCost(in.Vehicle, rates.VehicleUnitPrice)
	if err != nil {
		return Result{}, err
	}
	staffCost, err := StaffCost(in.Staff, rates.Staff)
	if err != nil {
		return Result{}, err
	}
	servicesCost, err := ServicesCost(in.Services)
	if err != nil {
		return Result{}, err
	}

	breakdown := Breakdown{VehicleCost: vehicleCost, StaffCost: staffCost, ServicesCost: servicesCost}
	totals, err := ComputeTotals(breakdown, rates.TaxRate)
	if err != nil {
		return Result{}, err
	}

	return Result{Breakdown: breakdown, Totals: totals}, nil
}

// ComputeTotals derives subtotal, tax and total from category subtotals:
//
//	subtotal     = vehicle + staff + services
//	tax_amount   = floor(subtotal * tax_rate)   (truncated toward zero)
//	total_amount = subtotal + tax_amount
func ComputeTotals(b Breakdown, taxRate decimal.Decimal) (Totals, error) {
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return Totals{}, apperr.Validation("tax_rate", "must be between 0 and 1")
	}

	subtotal, err := sum(b.VehicleCost, b.StaffCost, b.ServicesCost)
	if err != nil {
		return Totals{}, err
	}

	tax := decimal.NewFromInt(subtotal).Mul(taxRate).Truncate(0)
	if !tax.IsInteger() || tax.GreaterThan(decimal.NewFromInt(maxAmount)) {
		return Totals{}, apperr.Validation("tax_amount", "is out of range")
	}
	taxAmount := tax.IntPart()

	total, err := sum(subtotal, taxAmount)
	if err != nil {
		return Totals{}, err
	}

	return Totals{
		Subtotal:    subtotal,
		TaxRate:     taxRate,
		TaxAmount:   taxAmount,
		TotalAmount: total,
	}, nil
}
