package rates

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/movequote/internal/apperr"
	"github.com/Simplici0/movequote/internal/pricing"
	"github.com/Simplici0/movequote/internal/settings"
)

// fakeSource is an in-memory Source keyed by category/subcategory/key.
type fakeSource struct {
	rows   map[string]settings.Setting
	getErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{rows: map[string]settings.Setting{}}
}

func (f *fakeSource) set(category, subcategory, key, value string) {
	f.rows[category+"/"+subcategory+"/"+key] = settings.Setting{
		Category: category, Subcategory: subcategory, Key: key, Value: value, DataType: settings.TypeNumber,
	}
}

func (f *fakeSource) Get(_ context.Context, category, subcategory, key string) (settings.Setting, error) {
	if f.getErr != nil {
		return settings.Setting{}, f.getErr
	}
	st, ok := f.rows[category+"/"+subcategory+"/"+key]
	if !ok {
		return settings.Setting{}, settings.ErrNotFound
	}
	return st, nil
}

func (f *fakeSource) List(_ context.Context, category, subcategory string) ([]settings.Setting, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	var out []settings.Setting
	for _, st := range f.rows {
		if st.Category == category && st.Subcategory == subcategory {
			out = append(out, st)
		}
	}
	return out, nil
}

func TestStaffRates_UsesConfiguredAndFallbacks(t *testing.T) {
	src := newFakeSource()
	src.set(settings.CategoryRates, settings.SubcategoryStaff, "leader_rate", "22000")
	src.set(settings.CategoryRates, settings.SubcategoryStaff, "m2_full_day_rate", "15000")
	src.set(settings.CategoryRates, settings.SubcategoryStaff, "temp_full_day_rate", "13500")

	got, fallbacks, err := NewResolver(src).StaffRates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(22000), got.Rate(pricing.Leader))
	assert.Equal(t, int64(15000), got.Rate(pricing.M2FullDay))
	assert.Equal(t, int64(13500), got.Rate(pricing.TempFullDay))
	assert.Equal(t, StaffFallback(pricing.Supervisor), got.Rate(pricing.Supervisor))
	assert.ElementsMatch(t, []string{"supervisor_rate", "m2_half_day_rate", "temp_half_day_rate"}, fallbacks)
}

func TestFallbacksAreNeverZero(t *testing.T) {
	for _, role := range pricing.StaffRoles {
		assert.Positive(t, StaffFallback(role), role.RateKey())
	}
	for k, v := range Fallbacks().Vehicle {
		assert.Positive(t, v, k)
	}
	assert.True(t, TaxRateFallback().IsPositive())
}

func TestStaffRates_StoreFailureIsRateLookupFailure(t *testing.T) {
	src := newFakeSource()
	src.getErr = errors.New("database is locked")

	_, _, err := NewResolver(src).StaffRates(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindRateLookup))
}

func TestStaffRates_MalformedValueIsRateLookupFailure(t *testing.T) {
	for _, v := range []string{"abc", "12.5", "-100"} {
		src := newFakeSource()
		src.set(settings.CategoryRates, settings.SubcategoryStaff, "leader_rate", v)

		_, _, err := NewResolver(src).StaffRates(context.Background())
		assert.True(t, apperr.Is(err, apperr.KindRateLookup), "value %q: %v", v, err)
	}
}

func TestLookupVehiclePrice_MissingRowIsNotFound(t *testing.T) {
	key, err := pricing.NormalizeVehicleKey("2t車", "終日", "A")
	require.NoError(t, err)

	_, err = NewResolver(newFakeSource()).LookupVehiclePrice(context.Background(), key)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
}

func TestVehiclePrice_FallsBackPerTypeAndOperation(t *testing.T) {
	src := newFakeSource()
	src.set(settings.CategoryRates, settings.SubcategoryVehicle, "2t車_full_day_B", "30000")
	r := NewResolver(src)

	keyA, err := pricing.NormalizeVehicleKey("2t車", "終日", "A")
	require.NoError(t, err)
	price, fellBack, err := r.VehiclePrice(context.Background(), keyA)
	require.NoError(t, err)
	assert.True(t, fellBack)
	assert.Equal(t, int64(18000), price)

	keyB, err := pricing.NormalizeVehicleKey("2t車", "full_day", "B")
	require.NoError(t, err)
	price, fellBack, err = r.VehiclePrice(context.Background(), keyB)
	require.NoError(t, err)
	assert.False(t, fellBack)
	assert.Equal(t, int64(30000), price)

	unknown, err := pricing.NormalizeVehicleKey("10t車", "終日", "A")
	require.NoError(t, err)
	_, _, err = r.VehiclePrice(context.Background(), unknown)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestTaxRate(t *testing.T) {
	src := newFakeSource()
	r := NewResolver(src)

	rate, fellBack, err := r.TaxRate(context.Background())
	require.NoError(t, err)
	assert.True(t, fellBack)
	assert.Equal(t, "0.1", rate.String())

	src.set(settings.CategorySystem, settings.SubcategoryTax, settings.KeyTaxRate, "0.08")
	rate, fellBack, err = r.TaxRate(context.Background())
	require.NoError(t, err)
	assert.False(t, fellBack)
	assert.Equal(t, "0.08", rate.String())

	src.set(settings.CategorySystem, settings.SubcategoryTax, settings.KeyTaxRate, "1.5")
	_, _, err = r.TaxRate(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindRateLookup))
}

func TestResolve_ZeroQuantityCategoryStillResolves(t *testing.T) {
	res, err := NewResolver(newFakeSource()).Resolve(context.Background(), pricing.VehicleSelection{})
	require.NoError(t, err)

	assert.Equal(t, StaffFallbacks(), res.Rates.Staff)
	assert.Zero(t, res.Rates.VehicleUnitPrice)
	assert.Contains(t, res.Fallbacks, settings.KeyTaxRate)
}
