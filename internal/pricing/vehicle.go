package pricing

import (
	"strings"

	"golang.org/x/text/width"

	"github.com/Simplici0/movequote/internal/apperr"
)

// Operation modes of a vehicle booking.
const (
	OperationHalfDay = "half_day"
	OperationFullDay = "full_day"
)

var operationAliases = map[string]string{
	"half_day": OperationHalfDay,
	"half":     OperationHalfDay,
	"halfday":  OperationHalfDay,
	"半日":       OperationHalfDay,
	"午前":       OperationHalfDay,
	"午後":       OperationHalfDay,
	"full_day": OperationFullDay,
	"full":     OperationFullDay,
	"fullday":  OperationFullDay,
	"終日":       OperationFullDay,
	"全日":       OperationFullDay,
	"1日":       OperationFullDay,
}

var vehicleTypeReplacer = strings.NewReplacer(
	"トン", "t",
	"ton", "t",
	"T", "t",
	" ", "",
)

// VehicleSelection is the vehicle step input.
type VehicleSelection struct {
	Type                   string `json:"vehicle_type"`
	Operation              string `json:"operation_type"`
	Area                   string `json:"delivery_area"`
	Count                  int64  `json:"vehicle_count"`
	ExternalContractorCost int64  `json:"external_contractor_cost"`
}

// VehicleKey is the normalised composite key of a vehicle rate.
type VehicleKey struct {
	Type      string
	Operation string
	Area      string
}

// String renders the key as stored in master_settings, e.g. "2t車_full_day_A".
func (k VehicleKey) String() string {
	return k.Type + "_" + k.Operation + "_" + k.Area
}

// NormalizeVehicleType folds full-width characters and unifies ton spellings.
func NormalizeVehicleType(raw string) string {
	return vehicleTypeReplacer.Replace(strings.TrimSpace(width.Fold.String(raw)))
}

// NormalizeOperation maps the accepted spellings onto half_day or full_day.
// Unknown values are returned folded and lower-cased.
func NormalizeOperation(raw string) string {
	op := strings.ToLower(strings.TrimSpace(width.Fold.String(raw)))
	if canonical, ok := operationAliases[op]; ok {
		return canonical
	}
	return op
}

// NormalizeArea folds and upper-cases a delivery area code.
func NormalizeArea(raw string) string {
	return strings.ToUpper(strings.TrimSpace(width.Fold.String(raw)))
}

// NormalizeVehicleKey validates and normalises the three key parts.
func NormalizeVehicleKey(vehicleType, operation, area string) (VehicleKey, error) {
	key := VehicleKey{
		Type:      NormalizeVehicleType(vehicleType),
		Operation: NormalizeOperation(operation),
		Area:      NormalizeArea(area),
	}
	if key.Type == "" {
		return VehicleKey{}, apperr.Validation("vehicle_type", "is required")
	}
	if key.Operation == "" {
		return VehicleKey{}, apperr.Validation("operation_type", "is required")
	}
	if key.Operation != OperationHalfDay && key.Operation != OperationFullDay {
		return VehicleKey{}, apperr.Validation("operation_type", "must be half_day or full_day")
	}
	if key.Area == "" {
		return VehicleKey{}, apperr.Validation("delivery_area", "is required")
	}
	return key, nil
}

// HasVehicle reports whether a vehicle was chosen.
func (s VehicleSelection) HasVehicle() bool {
	return strings.TrimSpace(s.Type) != ""
}

// Key returns the normalised rate key for the selection.
func (s VehicleSelection) Key() (VehicleKey, error) {
	return NormalizeVehicleKey(s.Type, s.Operation, s.Area)
}

// Normalized returns a copy with normalised key fields and a default count of 1.
func (s VehicleSelection) Normalized() (VehicleSelection, error) {
	if err := s.Validate(); err != nil {
		return VehicleSelection{}, err
	}
	if !s.HasVehicle() {
		return VehicleSelection{ExternalContractorCost: s.ExternalContractorCost}, nil
	}
	key, err := s.Key()
	if err != nil {
		return VehicleSelection{}, err
	}
	s.Type, s.Operation, s.Area = key.Type, key.Operation, key.Area
	if s.Count == 0 {
		s.Count = 1
	}
	return s, nil
}

// Validate rejects negative counts and amounts.
func (s VehicleSelection) Validate() error {
	if err := nonNegative("vehicle_count", s.Count); err != nil {
		return err
	}
	return nonNegative("external_contractor_cost", s.ExternalContractorCost)
}

// VehicleCost returns unitPrice × count plus the external contractor amount.
// Without a vehicle type only the external amount is charged.
func VehicleCost(s VehicleSelection, unitPrice int64) (int64, error) {
	s, err := s.Normalized()
	if err != nil {
		return 0, err
	}
	if !s.HasVehicle() {
		return s.ExternalContractorCost, nil
	}
	if err := nonNegative("vehicle_unit_price", unitPrice); err != nil {
		return 0, err
	}

	base, err := mul(s.Count, unitPrice)
	if err != nil {
		return 0, err
	}
	return sum(base, s.ExternalContractorCost)
}
