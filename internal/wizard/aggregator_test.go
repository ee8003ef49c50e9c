package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Simplici0/movequote/internal/apperr"
	"github.com/Simplici0/movequote/internal/pricing"
)

type fakeRates struct {
	staff    pricing.StaffRates
	vehicles map[string]int64
	err      error
}

func (f *fakeRates) StaffRates(context.Context) (pricing.StaffRates, []string, error) {
	if f.err != nil {
		return pricing.StaffRates{}, nil, f.err
	}
	return f.staff, nil, nil
}

func (f *fakeRates) VehiclePrice(_ context.Context, key pricing.VehicleKey) (int64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	price, ok := f.vehicles[key.String()]
	if !ok {
		return 0, false, apperr.NotFound("no vehicle rate for %s", key)
	}
	return price, false, nil
}

func scenarioSource() *fakeRates {
	var staff pricing.StaffRates
	staff[pricing.Leader] = 22000
	staff[pricing.M2FullDay] = 15000
	staff[pricing.TempFullDay] = 13500
	return &fakeRates{
		staff:    staff,
		vehicles: map[string]int64{"2t車_full_day_A": 30000},
	}
}

var scenarioStaff = []byte(`{"supervisor":0,"leader":1,"m2_full_day":2,"temp_full_day":1}`)

func TestAdvance_StaffScenario(t *testing.T) {
	agg := NewAggregator(scenarioSource())

	d, err := agg.Advance(context.Background(), NewDraft(), StepStaff, scenarioStaff)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if d.Staff == nil || d.Staff.Cost != 65500 {
		t.Fatalf("expected staff cost 65500, got %+v", d.Staff)
	}
	if d.Staff.Rates["leader_rate"] != 22000 {
		t.Fatalf("expected leader rate recorded, got %+v", d.Staff.Rates)
	}
}

func TestAdvance_TwiceWithSameInputIsStable(t *testing.T) {
	agg := NewAggregator(scenarioSource())
	ctx := context.Background()
	start := NewDraft()

	once, err := agg.Advance(ctx, start, StepStaff, scenarioStaff)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	twice, err := agg.Advance(ctx, once, StepStaff, scenarioStaff)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("draft drifted (-once +twice):\n%s", diff)
	}
	if len(twice.CompletedSteps) != 1 {
		t.Fatalf("expected one completed step, got %v", twice.CompletedSteps)
	}
}

func TestAdvance_DoesNotMutatePreviousDraft(t *testing.T) {
	src := scenarioSource()
	agg := NewAggregator(src)
	ctx := context.Background()

	first, err := agg.Advance(ctx, NewDraft(), StepStaff, scenarioStaff)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	snapshot := first.clone()

	if _, err := agg.Advance(ctx, first, StepStaff, []byte(`{"leader":3}`)); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, err := agg.Advance(ctx, first, StepServices, []byte(`{"parking_fee":500}`)); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if diff := cmp.Diff(snapshot, first); diff != "" {
		t.Fatalf("previous draft was mutated (-want +got):\n%s", diff)
	}
}

func TestAdvance_RecomputesWithCurrentRates(t *testing.T) {
	src := scenarioSource()
	agg := NewAggregator(src)
	ctx := context.Background()

	d, err := agg.Advance(ctx, NewDraft(), StepStaff, scenarioStaff)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}

	// Rates change between steps; re-entering the same quantities must not
	// keep the cost computed from the old rates.
	src.staff[pricing.Leader] = 25000
	d, err = agg.Advance(ctx, d, StepStaff, scenarioStaff)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if d.Staff.Cost != 68500 {
		t.Fatalf("expected recomputed cost 68500, got %d", d.Staff.Cost)
	}
}

func TestAdvance_IgnoresClientSuppliedCost(t *testing.T) {
	agg := NewAggregator(scenarioSource())

	stale := NewDraft()
	stale.Staff = &StaffBlock{Quantities: pricing.StaffQuantities{Leader: 1}, Cost: 1}

	d, err := agg.Advance(context.Background(), stale, StepStaff, scenarioStaff)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if d.Staff.Cost != 65500 {
		t.Fatalf("expected 65500, got %d", d.Staff.Cost)
	}
}

func TestAdvance_FailureLeavesDraftUnchanged(t *testing.T) {
	src := scenarioSource()
	agg := NewAggregator(src)
	ctx := context.Background()

	d, err := agg.Advance(ctx, NewDraft(), StepStaff, scenarioStaff)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}

	cases := []struct {
		name string
		step Step
		raw  []byte
		kind apperr.Kind
	}{
		{name: "negative quantity", step: StepStaff, raw: []byte(`{"leader":-1}`), kind: apperr.KindValidation},
		{name: "fractional quantity", step: StepStaff, raw: []byte(`{"leader":1.5}`), kind: apperr.KindValidation},
		{name: "missing vehicle rate", step: StepVehicle, raw: []byte(`{"vehicle_type":"2t車","operation_type":"終日","delivery_area":"Z"}`), kind: apperr.KindNotFound},
		{name: "missing input", step: StepServices, raw: nil, kind: apperr.KindValidation},
		{name: "unknown step", step: Step("payment"), raw: []byte(`{}`), kind: apperr.KindValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := agg.Advance(ctx, d, tc.step, tc.raw)
			if !apperr.Is(err, tc.kind) {
				t.Fatalf("expected kind %v, got %v", tc.kind, err)
			}
			if diff := cmp.Diff(d, got); diff != "" {
				t.Fatalf("draft changed on failure:\n%s", diff)
			}
		})
	}

	src.err = errors.New("store down")
	got, err := agg.Advance(ctx, d, StepStaff, scenarioStaff)
	if err == nil {
		t.Fatalf("expected rate source error")
	}
	if diff := cmp.Diff(d, got); diff != "" {
		t.Fatalf("draft changed on failure:\n%s", diff)
	}
}

func TestFullWizardPreviewTotals(t *testing.T) {
	agg := NewAggregator(scenarioSource())
	ctx := context.Background()

	steps := []struct {
		step Step
		raw  string
	}{
		{StepCustomer, `{"customer_id":1,"project_id":2}`},
		{StepVehicle, `{"vehicle_type":"２ｔ車","operation_type":"終日","delivery_area":"a"}`},
		{StepStaff, string(scenarioStaff)},
		{StepServices, `{"parking_fee":1500,"highway_fee":3000}`},
		{StepNotes, `{"notes":"  2F, no elevator  "}`},
	}

	d := NewDraft()
	for _, s := range steps {
		var err error
		if d, err = agg.Advance(ctx, d, s.step, []byte(s.raw)); err != nil {
			t.Fatalf("Advance %s: %v", s.step, err)
		}
	}

	if diff := cmp.Diff(Steps, d.CompletedSteps); diff != "" {
		t.Fatalf("completed steps mismatch:\n%s", diff)
	}
	if d.Vehicle.Selection.Type != "2t車" || d.Vehicle.Selection.Area != "A" || d.Vehicle.Selection.Count != 1 {
		t.Fatalf("vehicle selection not normalised: %+v", d.Vehicle.Selection)
	}
	if d.Notes != "2F, no elevator" {
		t.Fatalf("notes=%q", d.Notes)
	}

	totals, err := d.Totals(pricing.DefaultTaxRate)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.Subtotal != 100000 || totals.TaxAmount != 10000 || totals.TotalAmount != 110000 {
		t.Fatalf("unexpected totals %+v", totals)
	}
}
