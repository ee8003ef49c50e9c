// Package seed writes the startup defaults: the admin user and a starting
// set of master_settings rates.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/movequote/internal/db"
	"github.com/Simplici0/movequote/internal/pricing"
	"github.com/Simplici0/movequote/internal/rates"
	"github.com/Simplici0/movequote/internal/settings"
)

// DefaultArea is the delivery area vehicle defaults are seeded for.
const DefaultArea = "A"

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Skipped int
}

// Run executes the startup seed in an idempotent way. Existing rows are never
// overwritten, so rates edited by an operator survive restarts.
func Run(ctx context.Context, database *sql.DB, cfg Config) (Stats, error) {
	stats := Stats{}
	err := db.WithTx(ctx, database, func(tx *sql.Tx) error {
		if err := seedAdmin(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
			return err
		}

		store := settings.NewStore(tx)
		for _, st := range defaultSettings() {
			inserted, err := store.InsertIfMissing(ctx, st)
			if err != nil {
				return err
			}
			if inserted {
				stats.Inserts++
			} else {
				stats.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		stats.Skipped++
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

// defaultSettings starts every rate at its fallback value, with vehicle rates
// for DefaultArea only.
func defaultSettings() []settings.Setting {
	table := rates.Fallbacks()
	out := make([]settings.Setting, 0, pricing.NumStaffRoles+len(table.Vehicle)+1)

	for _, role := range pricing.StaffRoles {
		out = append(out, settings.Setting{
			Category:    settings.CategoryRates,
			Subcategory: settings.SubcategoryStaff,
			Key:         role.RateKey(),
			Value:       strconv.FormatInt(table.Staff[role.RateKey()], 10),
			DataType:    settings.TypeNumber,
			Description: role.Label(),
		})
	}

	keys := make([]string, 0, len(table.Vehicle))
	for k := range table.Vehicle {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, settings.Setting{
			Category:    settings.CategoryRates,
			Subcategory: settings.SubcategoryVehicle,
			Key:         k + "_" + DefaultArea,
			Value:       strconv.FormatInt(table.Vehicle[k], 10),
			DataType:    settings.TypeNumber,
		})
	}

	out = append(out, settings.Setting{
		Category:    settings.CategorySystem,
		Subcategory: settings.SubcategoryTax,
		Key:         settings.KeyTaxRate,
		Value:       table.TaxRate,
		DataType:    settings.TypeNumber,
		Description: "消費税率",
	})
	return out
}
