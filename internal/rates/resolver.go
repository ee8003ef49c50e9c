// Package rates resolves unit prices from master_settings, falling back to a
// fixed table when a key is absent.
package rates

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/movequote/internal/apperr"
	"github.com/Simplici0/movequote/internal/pricing"
	"github.com/Simplici0/movequote/internal/settings"
)

// Source is the read side of the settings store.
type Source interface {
	Get(ctx context.Context, category, subcategory, key string) (settings.Setting, error)
	List(ctx context.Context, category, subcategory string) ([]settings.Setting, error)
}

// Resolver looks up current rates. It never writes.
type Resolver struct {
	src Source
}

// NewResolver returns a Resolver reading from src.
func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// Resolved reports which keys fell back to the fixed table.
type Resolved struct {
	Rates     pricing.Rates
	Fallbacks []string
}

// lookup returns the configured value, or ok=false when the key is absent.
// Any other failure, including an unparsable value, is a RateLookupFailure.
func (r *Resolver) lookup(ctx context.Context, category, subcategory, key string) (decimal.Decimal, bool, error) {
	st, err := r.src.Get(ctx, category, subcategory, key)
	if errors.Is(err, settings.ErrNotFound) {
		return decimal.Decimal{}, false, nil
	}
	if err != nil {
		return decimal.Decimal{}, false, apperr.RateLookupFailure(key, err)
	}
	d, err := st.Decimal()
	if err != nil {
		return decimal.Decimal{}, false, apperr.RateLookupFailure(key, err)
	}
	return d, true, nil
}

func (r *Resolver) lookupAmount(ctx context.Context, category, subcategory, key string) (int64, bool, error) {
	d, ok, err := r.lookup(ctx, category, subcategory, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	amount, err := toAmount(d)
	if err != nil {
		return 0, false, apperr.RateLookupFailure(key, err)
	}
	return amount, true, nil
}

// MaxRate is the largest unit price accepted from master_settings.
const MaxRate = 1 << 53

func toAmount(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("rate %s is negative", d)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("rate %s is not a whole currency amount", d)
	}
	if d.GreaterThan(decimal.NewFromInt(MaxRate)) {
		return 0, fmt.Errorf("rate %s is out of range", d)
	}
	return d.IntPart(), nil
}

// StaffRate returns the rate of one role and whether it is a fallback.
func (r *Resolver) StaffRate(ctx context.Context, role pricing.StaffRole) (int64, bool, error) {
	v, ok, err := r.lookupAmount(ctx, settings.CategoryRates, settings.SubcategoryStaff, role.RateKey())
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return StaffFallback(role), true, nil
	}
	return v, false, nil
}

// StaffRates returns all six staff rates and the keys that fell back.
func (r *Resolver) StaffRates(ctx context.Context) (pricing.StaffRates, []string, error) {
	var out pricing.StaffRates
	var fallbacks []string
	for _, role := range pricing.StaffRoles {
		v, fellBack, err := r.StaffRate(ctx, role)
		if err != nil {
			return pricing.StaffRates{}, nil, err
		}
		out[role] = v
		if fellBack {
			fallbacks = append(fallbacks, role.RateKey())
		}
	}
	return out, fallbacks, nil
}

// LookupVehiclePrice returns the configured unit price for key, or a
// NotFound error when no row exists. It never uses the fallback table.
func (r *Resolver) LookupVehiclePrice(ctx context.Context, key pricing.VehicleKey) (int64, error) {
	v, ok, err := r.lookupAmount(ctx, settings.CategoryRates, settings.SubcategoryVehicle, key.String())
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apperr.NotFound("no vehicle rate for %s", key)
	}
	return v, nil
}

// VehiclePrice returns the unit price for key, using the fallback table when
// no row exists. A key with neither a row nor a fallback is NotFound.
func (r *Resolver) VehiclePrice(ctx context.Context, key pricing.VehicleKey) (int64, bool, error) {
	v, ok, err := r.lookupAmount(ctx, settings.CategoryRates, settings.SubcategoryVehicle, key.String())
	if err != nil {
		return 0, false, err
	}
	if ok {
		return v, false, nil
	}
	if fb, ok := VehicleFallback(key); ok {
		return fb, true, nil
	}
	return 0, false, apperr.NotFound("no vehicle rate or fallback for %s", key)
}

// TaxRate returns the configured tax rate or the fallback.
func (r *Resolver) TaxRate(ctx context.Context) (decimal.Decimal, bool, error) {
	d, ok, err := r.lookup(ctx, settings.CategorySystem, settings.SubcategoryTax, settings.KeyTaxRate)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	if !ok {
		return TaxRateFallback(), true, nil
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Decimal{}, false, apperr.RateLookupFailure(settings.KeyTaxRate, fmt.Errorf("tax rate %s out of range", d))
	}
	return d, false, nil
}

// Resolve gathers every rate needed to price in.
func (r *Resolver) Resolve(ctx context.Context, vehicle pricing.VehicleSelection) (Resolved, error) {
	var res Resolved

	staff, fallbacks, err := r.StaffRates(ctx)
	if err != nil {
		return Resolved{}, err
	}
	res.Rates.Staff = staff
	res.Fallbacks = append(res.Fallbacks, fallbacks...)

	if vehicle.HasVehicle() {
		key, err := vehicle.Key()
		if err != nil {
			return Resolved{}, err
		}
		price, fellBack, err := r.VehiclePrice(ctx, key)
		if err != nil {
			return Resolved{}, err
		}
		res.Rates.VehicleUnitPrice = price
		if fellBack {
			res.Fallbacks = append(res.Fallbacks, key.String())
		}
	}

	tax, fellBack, err := r.TaxRate(ctx)
	if err != nil {
		return Resolved{}, err
	}
	res.Rates.TaxRate = tax
	if fellBack {
		res.Fallbacks = append(res.Fallbacks, settings.KeyTaxRate)
	}

	if len(res.Fallbacks) > 0 {
		log.Printf("warning: using fallback rates for %s", strings.Join(res.Fallbacks, ", "))
	}
	return res, nil
}

// VehicleRates returns every configured vehicle rate keyed by composite key.
func (r *Resolver) VehicleRates(ctx context.Context) (map[string]int64, error) {
	rows, err := r.src.List(ctx, settings.CategoryRates, settings.SubcategoryVehicle)
	if err != nil {
		return nil, apperr.RateLookupFailure(settings.SubcategoryVehicle, err)
	}

	out := make(map[string]int64, len(rows))
	for _, st := range rows {
		d, err := st.Decimal()
		if err != nil {
			return nil, apperr.RateLookupFailure(st.Key, err)
		}
		amount, err := toAmount(d)
		if err != nil {
			return nil, apperr.RateLookupFailure(st.Key, err)
		}
		out[st.Key] = amount
	}
	return out, nil
}
