// Package export renders persisted estimates as customer-facing documents.
// Renderers read the stored snapshot only; nothing is recalculated here.
package export

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/movequote/internal/estimates"
	"github.com/Simplici0/movequote/internal/pricing"
)

// Options configures document rendering.
type Options struct {
	CompanyName string
	// FontPath points at a TrueType font with Japanese glyphs. When empty the
	// PDF falls back to a core font and non-Latin text is replaced.
	FontPath string
}

type lineItem struct {
	Label    string
	Key      string
	Quantity int64
	Unit     int64
	Amount   int64

	HeadsOnly bool
}

var operationLabels = map[string]string{
	pricing.OperationHalfDay: "半日",
	pricing.OperationFullDay: "終日",
}

// lineItems lists the populated lines of e in display order.
func lineItems(e estimates.Estimate) []lineItem {
	var out []lineItem

	if e.Vehicle.Type != "" {
		op := operationLabels[e.Vehicle.Operation]
		if op == "" {
			op = e.Vehicle.Operation
		}
		out = append(out, lineItem{
			Label:    fmt.Sprintf("車両 %s %s %sエリア", e.Vehicle.Type, op, e.Vehicle.Area),
			Key:      fmt.Sprintf("vehicle %s %s %s", e.Vehicle.Type, e.Vehicle.Operation, e.Vehicle.Area),
			Quantity: e.Vehicle.Count,
			Unit:     e.VehicleUnitPrice,
			Amount:   e.VehicleCost - e.Vehicle.ExternalContractorCost,
		})
	}
	if e.Vehicle.ExternalContractorCost > 0 {
		out = append(out, lineItem{
			Label:    "外部業者費用",
			Key:      "external_contractor_cost",
			Quantity: 1,
			Unit:     e.Vehicle.ExternalContractorCost,
			Amount:   e.Vehicle.ExternalContractorCost,
		})
	}

	// Per-role rates are not part of the snapshot; staff lines carry heads
	// only and the category cost is a line of its own.
	for _, role := range pricing.StaffRoles {
		count := e.Staff.Count(role)
		if count == 0 {
			continue
		}
		out = append(out, lineItem{Label: role.Label(), Key: role.String(), Quantity: count, HeadsOnly: true})
	}
	if e.StaffCost > 0 {
		out = append(out, lineItem{Label: "人員費", Key: "staff_cost", Quantity: 1, Unit: e.StaffCost, Amount: e.StaffCost})
	}

	for _, line := range e.Services.Lines() {
		if line.Amount == 0 {
			continue
		}
		out = append(out, lineItem{Label: line.Label, Key: line.Key, Quantity: 1, Unit: line.Amount, Amount: line.Amount})
	}
	return out
}

func yen(n int64) string {
	return humanize.Comma(n) + "円"
}

func yenASCII(n int64) string {
	return "JPY " + humanize.Comma(n)
}

func taxPercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).String() + "%"
}

func title(e estimates.Estimate) string {
	return fmt.Sprintf("御見積書 No.%d", e.ID)
}

func issuedOn(e estimates.Estimate) string {
	if len(e.CreatedAt) >= 10 {
		return e.CreatedAt[:10]
	}
	return e.CreatedAt
}
