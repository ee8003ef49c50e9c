// Package settings stores the flat master_settings key-value table.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/movequote/internal/apperr"
	"github.com/Simplici0/movequote/internal/db"
)

// Data type tags stored alongside each value.
const (
	TypeNumber  = "number"
	TypeString  = "string"
	TypeBoolean = "boolean"
)

// Well-known categories and subcategories.
const (
	CategoryRates  = "rates"
	CategorySystem = "system"

	SubcategoryStaff   = "staff"
	SubcategoryVehicle = "vehicle"
	SubcategoryTax     = "tax"

	KeyTaxRate = "tax_rate"
)

// ErrNotFound is returned when no row matches a lookup.
var ErrNotFound = errors.New("setting not found")

// Setting is one master_settings row.
type Setting struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Key         string `json:"key"`
	Value       string `json:"value"`
	DataType    string `json:"data_type"`
	Description string `json:"description,omitempty"`
	UserID      *int64 `json:"user_id,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Decimal parses a number setting.
func (s Setting) Decimal() (decimal.Decimal, error) {
	if s.DataType != TypeNumber {
		return decimal.Decimal{}, fmt.Errorf("setting %s is %s, not a number", s.Key, s.DataType)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s.Value))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse setting %s=%q: %w", s.Key, s.Value, err)
	}
	return d, nil
}

// Validate checks required fields and that the value matches its data type.
func (s Setting) Validate() error {
	if strings.TrimSpace(s.Category) == "" {
		return apperr.Validation("category", "is required")
	}
	if strings.TrimSpace(s.Subcategory) == "" {
		return apperr.Validation("subcategory", "is required")
	}
	if strings.TrimSpace(s.Key) == "" {
		return apperr.Validation("key", "is required")
	}
	switch s.DataType {
	case TypeNumber:
		if _, err := s.Decimal(); err != nil {
			return apperr.Validation(s.Key, "must be numeric")
		}
	case TypeBoolean:
		if s.Value != "true" && s.Value != "false" {
			return apperr.Validation(s.Key, "must be true or false")
		}
	case TypeString:
	default:
		return apperr.Validation("data_type", "must be number, string or boolean")
	}
	return nil
}

// Store reads and writes master_settings through a db.Querier, so it can be
// bound to a transaction.
type Store struct {
	q db.Querier
}

// NewStore returns a Store over q.
func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

// Get returns one row or ErrNotFound.
func (s *Store) Get(ctx context.Context, category, subcategory, key string) (Setting, error) {
	var st Setting
	var userID sql.NullInt64
	err := s.q.QueryRowContext(ctx, `
		SELECT category, subcategory, key, value, data_type, COALESCE(description, ''), user_id, updated_at
		FROM master_settings
		WHERE category = ? AND subcategory = ? AND key = ?
	`, category, subcategory, key).Scan(
		&st.Category, &st.Subcategory, &st.Key, &st.Value, &st.DataType, &st.Description, &userID, &st.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Setting{}, ErrNotFound
	}
	if err != nil {
		return Setting{}, fmt.Errorf("query master setting %s/%s/%s: %w", category, subcategory, key, err)
	}
	if userID.Valid {
		st.UserID = &userID.Int64
	}
	return st, nil
}

// List returns rows filtered by category and subcategory; empty filters match all.
func (s *Store) List(ctx context.Context, category, subcategory string) ([]Setting, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT category, subcategory, key, value, data_type, COALESCE(description, ''), user_id, updated_at
		FROM master_settings
		WHERE (? = '' OR category = ?) AND (? = '' OR subcategory = ?)
		ORDER BY category, subcategory, key
	`, category, category, subcategory, subcategory)
	if err != nil {
		return nil, fmt.Errorf("query master settings: %w", err)
	}
	defer rows.Close()

	out := make([]Setting, 0)
	for rows.Next() {
		var st Setting
		var userID sql.NullInt64
		if err := rows.Scan(&st.Category, &st.Subcategory, &st.Key, &st.Value, &st.DataType, &st.Description, &userID, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan master setting: %w", err)
		}
		if userID.Valid {
			id := userID.Int64
			st.UserID = &id
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate master settings: %w", err)
	}
	return out, nil
}

// Upsert inserts or replaces the row identified by category/subcategory/key.
func (s *Store) Upsert(ctx context.Context, st Setting) error {
	if st.DataType == "" {
		st.DataType = TypeNumber
	}
	if err := st.Validate(); err != nil {
		return err
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO master_settings (category, subcategory, key, value, data_type, description, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(category, subcategory, key) DO UPDATE SET
			value = excluded.value,
			data_type = excluded.data_type,
			description = COALESCE(NULLIF(excluded.description, ''), master_settings.description),
			user_id = excluded.user_id,
			updated_at = CURRENT_TIMESTAMP
	`, st.Category, st.Subcategory, st.Key, strings.TrimSpace(st.Value), st.DataType, st.Description, st.UserID)
	if err != nil {
		return fmt.Errorf("upsert master setting %s/%s/%s: %w", st.Category, st.Subcategory, st.Key, err)
	}
	return nil
}

// InsertIfMissing inserts st unless the key exists and reports whether a row was written.
func (s *Store) InsertIfMissing(ctx context.Context, st Setting) (bool, error) {
	if err := st.Validate(); err != nil {
		return false, err
	}

	result, err := s.q.ExecContext(ctx, `
		INSERT INTO master_settings (category, subcategory, key, value, data_type, description)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(category, subcategory, key) DO NOTHING
	`, st.Category, st.Subcategory, st.Key, st.Value, st.DataType, st.Description)
	if err != nil {
		return false, fmt.Errorf("insert master setting %s/%s/%s: %w", st.Category, st.Subcategory, st.Key, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert master setting rows affected: %w", err)
	}
	return affected > 0, nil
}
