package pricing

// StaffRole enumerates the staff categories priced per head.
type StaffRole int

const (
	Supervisor StaffRole = iota
	Leader
	M2HalfDay
	M2FullDay
	TempHalfDay
	TempFullDay

	NumStaffRoles = 6
)

// StaffRoles lists every role in display order.
var StaffRoles = [NumStaffRoles]StaffRole{Supervisor, Leader, M2HalfDay, M2FullDay, TempHalfDay, TempFullDay}

var staffRoleNames = [NumStaffRoles]string{
	Supervisor:  "supervisor",
	Leader:      "leader",
	M2HalfDay:   "m2_half_day",
	M2FullDay:   "m2_full_day",
	TempHalfDay: "temp_half_day",
	TempFullDay: "temp_full_day",
}

func (r StaffRole) String() string {
	if r < 0 || int(r) >= NumStaffRoles {
		return "unknown"
	}
	return staffRoleNames[r]
}

var staffRoleLabels = [NumStaffRoles]string{
	Supervisor:  "現場責任者",
	Leader:      "リーダー",
	M2HalfDay:   "M2作業員（半日）",
	M2FullDay:   "M2作業員（終日）",
	TempHalfDay: "臨時作業員（半日）",
	TempFullDay: "臨時作業員（終日）",
}

// Label is the role's display name on estimates.
func (r StaffRole) Label() string {
	if r < 0 || int(r) >= NumStaffRoles {
		return r.String()
	}
	return staffRoleLabels[r]
}

// RateKey is the master_settings key holding the role's rate.
func (r StaffRole) RateKey() string {
	return r.String() + "_rate"
}

// StaffRoleByRateKey resolves "leader_rate" style keys.
func StaffRoleByRateKey(key string) (StaffRole, bool) {
	for _, role := range StaffRoles {
		if role.RateKey() == key {
			return role, true
		}
	}
	return 0, false
}

// StaffQuantities counts heads per staff role. Unset fields are 0.
type StaffQuantities struct {
	Supervisor  int64 `json:"supervisor"`
	Leader      int64 `json:"leader"`
	M2HalfDay   int64 `json:"m2_half_day"`
	M2FullDay   int64 `json:"m2_full_day"`
	TempHalfDay int64 `json:"temp_half_day"`
	TempFullDay int64 `json:"temp_full_day"`
}

// Count returns the quantity for role.
func (q StaffQuantities) Count(role StaffRole) int64 {
	switch role {
	case Supervisor:
		return q.Supervisor
	case Leader:
		return q.Leader
	case M2HalfDay:
		return q.M2HalfDay
	case M2FullDay:
		return q.M2FullDay
	case TempHalfDay:
		return q.TempHalfDay
	case TempFullDay:
		return q.TempFullDay
	}
	return 0
}

// Validate rejects negative counts.
func (q StaffQuantities) Validate() error {
	for _, role := range StaffRoles {
		if err := nonNegative(role.String(), q.Count(role)); err != nil {
			return err
		}
	}
	return nil
}

// StaffRates holds one rate per role, indexed by StaffRole.
type StaffRates [NumStaffRoles]int64

// Rate returns the rate for role.
func (r StaffRates) Rate(role StaffRole) int64 {
	if role < 0 || int(role) >= NumStaffRoles {
		return 0
	}
	return r[role]
}

// StaffCost returns Σ quantity × rate over every role.
func StaffCost(q StaffQuantities, rates StaffRates) (int64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}

	var total int64
	for _, role := range StaffRoles {
		line, err := mul(q.Count(role), rates.Rate(role))
		if err != nil {
			return 0, err
		}
		if total, err = sum(total, line); err != nil {
			return 0, err
		}
	}
	return total, nil
}
