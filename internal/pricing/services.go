package pricing

// ServiceLineItems are the optional ancillary costs. Absent items are 0.
type ServiceLineItems struct {
	ParkingOfficer     int64 `json:"parking_officer_cost"`
	Transport          int64 `json:"transport_cost"`
	WasteDisposal      int64 `json:"waste_disposal_cost"`
	Protection         int64 `json:"protection_cost"`
	MaterialCollection int64 `json:"material_collection_cost"`
	Construction       int64 `json:"construction_cost"`
	ParkingFee         int64 `json:"parking_fee"`
	HighwayFee         int64 `json:"highway_fee"`
}

// ServiceLine is one named ancillary cost.
type ServiceLine struct {
	Key    string
	Label  string
	Amount int64
}

// Lines returns the items in a fixed order with their keys and labels.
func (s ServiceLineItems) Lines() []ServiceLine {
	return []ServiceLine{
		{Key: "parking_officer_cost", Label: "駐車監視員", Amount: s.ParkingOfficer},
		{Key: "transport_cost", Label: "運搬費", Amount: s.Transport},
		{Key: "waste_disposal_cost", Label: "廃棄物処理費", Amount: s.WasteDisposal},
		{Key: "protection_cost", Label: "養生費", Amount: s.Protection},
		{Key: "material_collection_cost", Label: "資材回収費", Amount: s.MaterialCollection},
		{Key: "construction_cost", Label: "工事費", Amount: s.Construction},
		{Key: "parking_fee", Label: "駐車料金", Amount: s.ParkingFee},
		{Key: "highway_fee", Label: "高速料金", Amount: s.HighwayFee},
	}
}

// Validate rejects negative amounts.
func (s ServiceLineItems) Validate() error {
	for _, line := range s.Lines() {
		if err := nonNegative(line.Key, line.Amount); err != nil {
			return err
		}
	}
	return nil
}

// ServicesCost sums whichever items are populated.
func ServicesCost(s ServiceLineItems) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}

	var total int64
	var err error
	for _, line := range s.Lines() {
		if total, err = sum(total, line.Amount); err != nil {
			return 0, err
		}
	}
	return total, nil
}
