package main

import (
	"database/sql"
	"net/http"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/movequote/internal/apperr"
	"github.com/Simplici0/movequote/internal/db"
	"github.com/Simplici0/movequote/internal/pricing"
	"github.com/Simplici0/movequote/internal/rates"
	"github.com/Simplici0/movequote/internal/settings"
)

func staffRateMap(sr pricing.StaffRates) map[string]int64 {
	out := make(map[string]int64, pricing.NumStaffRoles)
	for _, role := range pricing.StaffRoles {
		out[role.RateKey()] = sr.Rate(role)
	}
	return out
}

func (s *server) handleStaffRates(w http.ResponseWriter, r *http.Request) {
	sr, fallbacks, err := s.resolver().StaffRates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, envelope{"staffRates": staffRateMap(sr), "fallbacks": fallbacks})
}

func (s *server) handleServiceRates(w http.ResponseWriter, r *http.Request) {
	vr, err := s.resolver().VehicleRates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": vr, "count": len(vr)})
}

func formatPrice(v int64) string {
	return "¥" + humanize.Comma(v)
}

// handleVehiclePricing looks a configured price up strictly: an unmatched key
// is a 404, never a fallback price.
func (s *server) handleVehiclePricing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	for _, name := range []string{"vehicle_type", "operation_type", "delivery_area"} {
		if strings.TrimSpace(q.Get(name)) == "" {
			writeError(w, r, apperr.Validation(name, "is required"))
			return
		}
	}

	key, err := pricing.NormalizeVehicleKey(q.Get("vehicle_type"), q.Get("operation_type"), q.Get("delivery_area"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	price, err := s.resolver().LookupVehiclePrice(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":         true,
		"key":             key.String(),
		"price":           price,
		"price_formatted": formatPrice(price),
	})
}

// wholeAmount checks that v is a whole currency amount the resolver will
// accept on read.
func wholeAmount(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return apperr.Validation(field, "must not be negative")
	}
	if !v.Equal(v.Truncate(0)) {
		return apperr.Validation(field, "must be a whole amount")
	}
	if v.GreaterThan(decimal.NewFromInt(rates.MaxRate)) {
		return apperr.Validation(field, "must not exceed %d", int64(rates.MaxRate))
	}
	return nil
}

func (s *server) handleMasterStaffRates(w http.ResponseWriter, r *http.Request) {
	var body map[string]*decimal.Decimal
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if len(body) == 0 {
		writeError(w, r, apperr.Validation("body", "no rates given"))
		return
	}

	keys := make([]string, 0, len(body))
	for key, v := range body {
		role, ok := pricing.StaffRoleByRateKey(key)
		if !ok {
			writeError(w, r, apperr.Validation(key, "is not a staff rate"))
			return
		}
		if v == nil {
			writeError(w, r, apperr.Validation(key, "must be a number"))
			return
		}
		if err := wholeAmount(key, *v); err != nil {
			writeError(w, r, err)
			return
		}
		keys = append(keys, role.RateKey())
	}
	sort.Strings(keys)

	userID := currentUserID(r)
	err := db.WithTx(r.Context(), s.db, func(tx *sql.Tx) error {
		store := settings.NewStore(tx)
		for _, key := range keys {
			if err := store.Upsert(r.Context(), settings.Setting{
				Category:    settings.CategoryRates,
				Subcategory: settings.SubcategoryStaff,
				Key:         key,
				Value:       body[key].String(),
				DataType:    settings.TypeNumber,
				UserID:      userID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	sr, fallbacks, err := s.resolver().StaffRates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, envelope{"staffRates": staffRateMap(sr), "fallbacks": fallbacks, "updated": keys})
}

func (s *server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := settings.NewStore(s.db).List(r.Context(), q.Get("category"), q.Get("subcategory"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": rows, "count": len(rows)})
}

func (s *server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	var st settings.Setting
	if err := decodeJSON(r, &st); err != nil {
		writeError(w, r, err)
		return
	}
	if st.DataType == "" {
		st.DataType = settings.TypeNumber
	}
	if err := st.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateRateSetting(st); err != nil {
		writeError(w, r, err)
		return
	}
	st.UserID = currentUserID(r)

	store := settings.NewStore(s.db)
	if err := store.Upsert(r.Context(), st); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := store.Get(r.Context(), st.Category, st.Subcategory, st.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, saved)
}

// validateRateSetting applies the pricing constraints the resolver enforces
// on read, so a bad value is rejected when written rather than at quote time.
func validateRateSetting(st settings.Setting) error {
	switch {
	case st.Category == settings.CategoryRates:
		if st.DataType != settings.TypeNumber {
			return apperr.Validation("data_type", "rates must be numbers")
		}
		v, err := st.Decimal()
		if err != nil {
			return apperr.Validation(st.Key, "must be numeric")
		}
		return wholeAmount(st.Key, v)
	case st.Category == settings.CategorySystem && st.Key == settings.KeyTaxRate:
		v, err := st.Decimal()
		if err != nil {
			return apperr.Validation(st.Key, "must be numeric")
		}
		if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
			return apperr.Validation(st.Key, "must be between 0 and 1")
		}
	}
	return nil
}

func (s *server) handleRateFallbacks(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, rates.Fallbacks())
}

func (s *server) handleSettingsBackup(w http.ResponseWriter, r *http.Request) {
	backup, err := settings.NewStore(s.db).Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="master-settings-`+backup.CreatedAt.Format("20060102-150405")+`.json"`)
	writeJSON(w, http.StatusOK, backup)
}

func (s *server) handleSettingsRestore(w http.ResponseWriter, r *http.Request) {
	var backup settings.Backup
	if err := decodeJSON(r, &backup); err != nil {
		writeError(w, r, err)
		return
	}
	for _, st := range backup.Settings {
		if err := validateRateSetting(st); err != nil {
			writeError(w, r, err)
			return
		}
	}

	var restored int
	err := db.WithTx(r.Context(), s.db, func(tx *sql.Tx) error {
		var err error
		restored, err = settings.NewStore(tx).Restore(r.Context(), backup, currentUserID(r))
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, envelope{"restored": restored})
}
