package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/movequote/internal/apperr"
)

const selectProject = `
	SELECT p.id, p.customer_id, COALESCE(c.name, ''), p.name,
		COALESCE(p.origin_address, ''), COALESCE(p.destination_address, ''), COALESCE(p.scheduled_date, ''),
		p.status, COALESCE(p.notes, ''), p.created_at, p.updated_at
	FROM projects p
	LEFT JOIN customers c ON c.id = p.customer_id
`

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.CustomerID, &p.CustomerName, &p.Name,
		&p.OriginAddress, &p.DestinationAddress, &p.ScheduledDate,
		&p.Status, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) customerExists(ctx context.Context, id int64) error {
	var exists bool
	if err := s.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check customer existence: %w", err)
	}
	if !exists {
		return apperr.Validation("customer_id", "customer %d does not exist", id)
	}
	return nil
}

// CreateProject inserts p with the initial status. Status changes go through
// the status package so they are recorded in history.
func (s *Store) CreateProject(ctx context.Context, p Project) (Project, error) {
	if err := p.normalize(); err != nil {
		return Project{}, err
	}
	if err := s.customerExists(ctx, p.CustomerID); err != nil {
		return Project{}, err
	}

	result, err := s.q.ExecContext(ctx, `
		INSERT INTO projects (customer_id, name, origin_address, destination_address, scheduled_date, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.CustomerID, p.Name, p.OriginAddress, p.DestinationAddress, p.ScheduledDate, p.Notes)
	if err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Project{}, fmt.Errorf("insert project id: %w", err)
	}
	return s.GetProject(ctx, id)
}

// GetProject returns one project.
func (s *Store) GetProject(ctx context.Context, id int64) (Project, error) {
	p, err := scanProject(s.q.QueryRowContext(ctx, selectProject+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, apperr.NotFound("project %d not found", id)
	}
	if err != nil {
		return Project{}, fmt.Errorf("query project %d: %w", id, err)
	}
	return p, nil
}

// ListProjects returns projects, optionally for one customer and one status,
// newest first.
func (s *Store) ListProjects(ctx context.Context, customerID int64, st string) ([]Project, error) {
	st = strings.TrimSpace(st)
	rows, err := s.q.QueryContext(ctx, selectProject+`
		WHERE (? = 0 OR p.customer_id = ?)
			AND (? = '' OR p.status = ?)
		ORDER BY datetime(p.created_at) DESC, p.id DESC
	`, customerID, customerID, st, st)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	out := make([]Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

func (s *Store) countEstimates(ctx context.Context, projectID int64) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM estimates WHERE project_id = ?`, projectID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count project estimates: %w", err)
	}
	return n, nil
}

// UpdateProject replaces the editable fields of project id. The status field
// of p is ignored. A project with estimates cannot move to another customer,
// since the estimates record the customer too.
func (s *Store) UpdateProject(ctx context.Context, id int64, p Project) (Project, error) {
	if err := p.normalize(); err != nil {
		return Project{}, err
	}
	current, err := s.GetProject(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if current.CustomerID != p.CustomerID {
		if err := s.customerExists(ctx, p.CustomerID); err != nil {
			return Project{}, err
		}
		n, err := s.countEstimates(ctx, id)
		if err != nil {
			return Project{}, err
		}
		if n > 0 {
			return Project{}, apperr.Conflict("project %d has %d estimates for customer %d", id, n, current.CustomerID)
		}
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE projects
		SET customer_id = ?, name = ?, origin_address = ?, destination_address = ?, scheduled_date = ?, notes = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, p.CustomerID, p.Name, p.OriginAddress, p.DestinationAddress, p.ScheduledDate, p.Notes, id)
	if err != nil {
		return Project{}, fmt.Errorf("update project %d: %w", id, err)
	}
	if err := affectedOrNotFound(result, "project", id); err != nil {
		return Project{}, err
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes a project with no estimates and no status history.
// History rows are append-only, so a project that changed status stays.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	estimates, err := s.countEstimates(ctx, id)
	if err != nil {
		return err
	}
	if estimates > 0 {
		return apperr.Conflict("project %d still has %d estimates", id, estimates)
	}

	var history int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM status_history WHERE project_id = ?`, id).Scan(&history); err != nil {
		return fmt.Errorf("count project status history: %w", err)
	}
	if history > 0 {
		return apperr.Conflict("project %d has status history", id)
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	return affectedOrNotFound(result, "project", id)
}
