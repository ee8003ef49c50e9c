package estimates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/movequote/internal/apperr"
	"github.com/Simplici0/movequote/internal/db"
	"github.com/Simplici0/movequote/internal/pricing"
	"github.com/Simplici0/movequote/internal/rates"
	"github.com/Simplici0/movequote/internal/settings"
	"github.com/Simplici0/movequote/internal/status"
	"github.com/Simplici0/movequote/internal/wizard"
)

// Service implements estimate submission and CRUD over SQLite.
type Service struct {
	db *sql.DB
}

// NewService returns a Service over database.
func NewService(database *sql.DB) *Service {
	return &Service{db: database}
}

// Submit persists a draft. Category costs and totals carried by the draft are
// ignored: everything is recomputed from the draft's raw quantities with the
// rates read inside the same transaction as the insert.
func (s *Service) Submit(ctx context.Context, d wizard.Draft) (Estimate, error) {
	d.ID = strings.TrimSpace(d.ID)
	if d.ID == "" {
		return Estimate{}, apperr.Validation("draft_id", "is required")
	}

	var id int64
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM estimates WHERE draft_id = ?)`, d.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check draft submission: %w", err)
		}
		if exists {
			return apperr.Conflict("draft %s was already submitted", d.ID)
		}

		e, err := derive(ctx, tx, fromDraft(d))
		if err != nil {
			return err
		}
		if client := d.Breakdown(); client != e.Breakdown {
			log.Printf("estimate draft %s: client subtotals %+v differ from recomputed %+v; storing recomputed values", d.ID, client, e.Breakdown)
		}

		id, err = insert(ctx, tx, e)
		return err
	})
	if err != nil {
		return Estimate{}, err
	}

	return s.Get(ctx, id)
}

// Update applies p to the stored estimate and recomputes every derived amount,
// whatever fields p touches.
func (s *Service) Update(ctx context.Context, id int64, p Patch) (Estimate, error) {
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := get(ctx, tx, id)
		if err != nil {
			return err
		}

		e, err := derive(ctx, tx, p.apply(current))
		if err != nil {
			return err
		}
		return update(ctx, tx, id, e)
	})
	if err != nil {
		return Estimate{}, err
	}

	return s.Get(ctx, id)
}

// Get returns one estimate.
func (s *Service) Get(ctx context.Context, id int64) (Estimate, error) {
	return get(ctx, s.db, id)
}

// Delete removes one estimate. References held elsewhere are the caller's concern.
func (s *Service) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM estimates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete estimate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete estimate rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("estimate %d not found", id)
	}
	return nil
}

// List returns estimates matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Estimate, error) {
	return list(ctx, s.db, f)
}

// UpdateStatus changes the status of the estimate's project and records one
// history row.
func (s *Service) UpdateStatus(ctx context.Context, id int64, next status.Status, notes string, userID *int64) (status.Entry, error) {
	var entry status.Entry
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var projectID int64
		err := tx.QueryRowContext(ctx, `SELECT project_id FROM estimates WHERE id = ?`, id).Scan(&projectID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("estimate %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("query estimate project: %w", err)
		}

		entry, err = status.Change(ctx, tx, projectID, next, notes, userID)
		return err
	})
	return entry, err
}

// derive validates references, normalises the inputs and recomputes every
// derived amount from them with the current rates.
func derive(ctx context.Context, q db.Querier, e Estimate) (Estimate, error) {
	if err := checkReferences(ctx, q, e.CustomerID, e.ProjectID); err != nil {
		return Estimate{}, err
	}

	in := e.Input()
	if err := in.Validate(); err != nil {
		return Estimate{}, err
	}
	vehicle, err := in.Vehicle.Normalized()
	if err != nil {
		return Estimate{}, err
	}
	in.Vehicle = vehicle

	resolved, err := rates.NewResolver(settings.NewStore(q)).Resolve(ctx, in.Vehicle)
	if err != nil {
		return Estimate{}, err
	}
	result, err := pricing.Calculate(in, resolved.Rates)
	if err != nil {
		return Estimate{}, err
	}

	e.Vehicle, e.Staff, e.Services = in.Vehicle, in.Staff, in.Services
	e.VehicleUnitPrice = resolved.Rates.VehicleUnitPrice
	e.Breakdown = result.Breakdown
	e.Totals = result.Totals
	e.Notes = strings.TrimSpace(e.Notes)
	return e, nil
}

func checkReferences(ctx context.Context, q db.Querier, customerID, projectID int64) error {
	if customerID <= 0 {
		return apperr.Validation("customer_id", "is required")
	}
	if projectID <= 0 {
		return apperr.Validation("project_id", "is required")
	}

	var owner int64
	err := q.QueryRowContext(ctx, `SELECT customer_id FROM projects WHERE id = ?`, projectID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Validation("project_id", "project %d does not exist", projectID)
	}
	if err != nil {
		return fmt.Errorf("query project: %w", err)
	}
	if owner != customerID {
		return apperr.Validation("project_id", "project %d does not belong to customer %d", projectID, customerID)
	}
	return nil
}

func parseTaxRate(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse stored tax rate %q: %w", raw, err)
	}
	return d, nil
}
