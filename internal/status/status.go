// Package status records project status changes with an append-only history.
package status

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Simplici0/movequote/internal/apperr"
	"github.com/Simplici0/movequote/internal/db"
)

// Status is a project (and therefore estimate) lifecycle state.
type Status string

// Typical flow: initial → quote_sent → under_consideration → order|failed|cancelled → completed.
// No transition is rejected here.
const (
	Initial            Status = "initial"
	QuoteSent          Status = "quote_sent"
	UnderConsideration Status = "under_consideration"
	Order              Status = "order"
	Failed             Status = "failed"
	Cancelled          Status = "cancelled"
	Completed          Status = "completed"
)

// All lists every known status in lifecycle order.
var All = []Status{Initial, QuoteSent, UnderConsideration, Order, Failed, Cancelled, Completed}

// Parse validates a status name.
func Parse(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if !slices.Contains(All, st) {
		return "", apperr.Validation("status", "unknown status %q", s)
	}
	return st, nil
}

// Entry is one status_history row.
type Entry struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
	Notes     string `json:"notes,omitempty"`
	UserID    *int64 `json:"user_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Change sets the project's status and appends exactly one history row. Run
// it on a transaction so both writes land together.
func Change(ctx context.Context, q db.Querier, projectID int64, next Status, notes string, userID *int64) (Entry, error) {
	if _, err := Parse(string(next)); err != nil {
		return Entry{}, err
	}

	var old string
	err := q.QueryRowContext(ctx, `SELECT status FROM projects WHERE id = ?`, projectID).Scan(&old)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, apperr.NotFound("project %d not found", projectID)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("query project status: %w", err)
	}

	if _, err := q.ExecContext(ctx, `
		UPDATE projects
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, next, projectID); err != nil {
		return Entry{}, fmt.Errorf("update project status: %w", err)
	}

	notes = strings.TrimSpace(notes)
	result, err := q.ExecContext(ctx, `
		INSERT INTO status_history (project_id, old_status, new_status, notes, user_id)
		VALUES (?, ?, ?, ?, ?)
	`, projectID, old, next, notes, userID)
	if err != nil {
		return Entry{}, fmt.Errorf("insert status history: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("status history id: %w", err)
	}

	var createdAt string
	if err := q.QueryRowContext(ctx, `SELECT created_at FROM status_history WHERE id = ?`, id).Scan(&createdAt); err != nil {
		return Entry{}, fmt.Errorf("query status history: %w", err)
	}

	return Entry{
		ID:        id,
		ProjectID: projectID,
		OldStatus: Status(old),
		NewStatus: next,
		Notes:     notes,
		UserID:    userID,
		CreatedAt: createdAt,
	}, nil
}

// History returns a project's status changes, newest first.
func History(ctx context.Context, q db.Querier, projectID int64) ([]Entry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, project_id, old_status, new_status, COALESCE(notes, ''), user_id, created_at
		FROM status_history
		WHERE project_id = ?
		ORDER BY datetime(created_at) DESC, id DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var userID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.OldStatus, &e.NewStatus, &e.Notes, &userID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		if userID.Valid {
			id := userID.Int64
			e.UserID = &id
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status history: %w", err)
	}
	return entries, nil
}
