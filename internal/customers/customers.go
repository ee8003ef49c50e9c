// Package customers stores customers and their moving projects.
package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/movequote/internal/apperr"
	"github.com/Simplici0/movequote/internal/db"
	"github.com/Simplici0/movequote/internal/status"
)

// Customer is one customers row.
type Customer struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	NameKana  string `json:"name_kana,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func (c *Customer) normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	c.NameKana = strings.TrimSpace(c.NameKana)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	c.Address = strings.TrimSpace(c.Address)
	c.Notes = strings.TrimSpace(c.Notes)
	if c.Name == "" {
		return apperr.Validation("name", "is required")
	}
	return nil
}

// Project is one move for a customer. Its status is the estimate status.
type Project struct {
	ID                 int64         `json:"id"`
	CustomerID         int64         `json:"customer_id"`
	CustomerName       string        `json:"customer_name,omitempty"`
	Name               string        `json:"name"`
	OriginAddress      string        `json:"origin_address,omitempty"`
	DestinationAddress string        `json:"destination_address,omitempty"`
	ScheduledDate      string        `json:"scheduled_date,omitempty"`
	Status             status.Status `json:"status"`
	Notes              string        `json:"notes,omitempty"`
	CreatedAt          string        `json:"created_at,omitempty"`
	UpdatedAt          string        `json:"updated_at,omitempty"`
}

func (p *Project) normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	p.OriginAddress = strings.TrimSpace(p.OriginAddress)
	p.DestinationAddress = strings.TrimSpace(p.DestinationAddress)
	p.ScheduledDate = strings.TrimSpace(p.ScheduledDate)
	p.Notes = strings.TrimSpace(p.Notes)
	if p.CustomerID <= 0 {
		return apperr.Validation("customer_id", "is required")
	}
	if p.Name == "" {
		return apperr.Validation("name", "is required")
	}
	return nil
}

// Store reads and writes customers and projects.
type Store struct {
	q db.Querier
}

// NewStore returns a Store over q.
func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func affectedOrNotFound(result sql.Result, what string, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if affected == 0 {
		return apperr.NotFound("%s %d not found", what, id)
	}
	return nil
}

// CreateCustomer inserts c and returns the stored row.
func (s *Store) CreateCustomer(ctx context.Context, c Customer) (Customer, error) {
	if err := c.normalize(); err != nil {
		return Customer{}, err
	}
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO customers (name, name_kana, phone, email, address, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.Name, c.NameKana, c.Phone, c.Email, c.Address, c.Notes)
	if err != nil {
		return Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Customer{}, fmt.Errorf("insert customer id: %w", err)
	}
	return s.GetCustomer(ctx, id)
}

const selectCustomer = `
	SELECT id, name, COALESCE(name_kana, ''), COALESCE(phone, ''), COALESCE(email, ''),
		COALESCE(address, ''), COALESCE(notes, ''), created_at, updated_at
	FROM customers
`

func scanCustomer(row interface{ Scan(...any) error }) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.NameKana, &c.Phone, &c.Email, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetCustomer returns one customer.
func (s *Store) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	c, err := scanCustomer(s.q.QueryRowContext(ctx, selectCustomer+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, apperr.NotFound("customer %d not found", id)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("query customer %d: %w", id, err)
	}
	return c, nil
}

// ListCustomers returns customers whose name, kana, phone or email contains
// query, ordered by name.
func (s *Store) ListCustomers(ctx context.Context, query string) ([]Customer, error) {
	query = strings.TrimSpace(query)
	search := "%" + query + "%"
	rows, err := s.q.QueryContext(ctx, selectCustomer+`
		WHERE (? = '' OR name LIKE ? OR COALESCE(name_kana, '') LIKE ? OR COALESCE(phone, '') LIKE ? OR COALESCE(email, '') LIKE ?)
		ORDER BY name, id
	`, query, search, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	out := make([]Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return out, nil
}

// UpdateCustomer replaces the editable fields of customer id.
func (s *Store) UpdateCustomer(ctx context.Context, id int64, c Customer) (Customer, error) {
	if err := c.normalize(); err != nil {
		return Customer{}, err
	}
	result, err := s.q.ExecContext(ctx, `
		UPDATE customers
		SET name = ?, name_kana = ?, phone = ?, email = ?, address = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, c.Name, c.NameKana, c.Phone, c.Email, c.Address, c.Notes, id)
	if err != nil {
		return Customer{}, fmt.Errorf("update customer %d: %w", id, err)
	}
	if err := affectedOrNotFound(result, "customer", id); err != nil {
		return Customer{}, err
	}
	return s.GetCustomer(ctx, id)
}

// DeleteCustomer removes a customer that has no projects or estimates.
func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	result, err := s.q.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return apperr.Conflict("customer %d still has projects or estimates", id)
	}
	if err != nil {
		return fmt.Errorf("delete customer %d: %w", id, err)
	}
	return affectedOrNotFound(result, "customer", id)
}
