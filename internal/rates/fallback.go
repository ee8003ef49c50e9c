package rates

import (
	"github.com/shopspring/decimal"

	"github.com/Simplici0/movequote/internal/pricing"
)

// Fallback rates apply when master_settings has no row for a key. They sit
// below typical configured rates so a missing configuration shows up in totals.
var staffFallbacks = pricing.StaffRates{
	pricing.Supervisor:  20000,
	pricing.Leader:      18000,
	pricing.M2HalfDay:   7000,
	pricing.M2FullDay:   12000,
	pricing.TempHalfDay: 6000,
	pricing.TempFullDay: 10000,
}

type vehicleFallbackKey struct {
	vehicleType string
	operation   string
}

var vehicleFallbacks = map[vehicleFallbackKey]int64{
	{"軽トラ", pricing.OperationHalfDay}: 8000,
	{"軽トラ", pricing.OperationFullDay}: 12000,
	{"2t車", pricing.OperationHalfDay}:  12000,
	{"2t車", pricing.OperationFullDay}:  18000,
	{"3t車", pricing.OperationHalfDay}:  15000,
	{"3t車", pricing.OperationFullDay}:  23000,
	{"4t車", pricing.OperationHalfDay}:  18000,
	{"4t車", pricing.OperationFullDay}:  28000,
}

// StaffFallback returns the fallback rate of role.
func StaffFallback(role pricing.StaffRole) int64 {
	return staffFallbacks.Rate(role)
}

// StaffFallbacks returns a copy of the staff fallback table.
func StaffFallbacks() pricing.StaffRates {
	return staffFallbacks
}

// VehicleFallback returns the fallback unit price for key. Fallbacks do not
// depend on the delivery area.
func VehicleFallback(key pricing.VehicleKey) (int64, bool) {
	v, ok := vehicleFallbacks[vehicleFallbackKey{key.Type, key.Operation}]
	return v, ok
}

// TaxRateFallback returns the tax rate used when none is configured.
func TaxRateFallback() decimal.Decimal {
	return pricing.DefaultTaxRate
}

// FallbackTable is the serialisable view of every fallback, shared with clients.
type FallbackTable struct {
	Staff   map[string]int64 `json:"staff"`
	Vehicle map[string]int64 `json:"vehicle"`
	TaxRate string           `json:"tax_rate"`
}

// Fallbacks returns the full fallback table keyed the way master_settings is.
func Fallbacks() FallbackTable {
	t := FallbackTable{
		Staff:   make(map[string]int64, pricing.NumStaffRoles),
		Vehicle: make(map[string]int64, len(vehicleFallbacks)),
		TaxRate: TaxRateFallback().String(),
	}
	for _, role := range pricing.StaffRoles {
		t.Staff[role.RateKey()] = staffFallbacks.Rate(role)
	}
	for k, v := range vehicleFallbacks {
		t.Vehicle[k.vehicleType+"_"+k.operation] = v
	}
	return t
}
