package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/Simplici0/movequote/internal/apperr"
)

// Backup is a point-in-time copy of master_settings.
type Backup struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Settings  []Setting `json:"settings"`
}

const backupVersion = 1

// Export returns every row as a Backup.
func (s *Store) Export(ctx context.Context) (Backup, error) {
	rows, err := s.List(ctx, "", "")
	if err != nil {
		return Backup{}, err
	}
	return Backup{Version: backupVersion, CreatedAt: time.Now().UTC(), Settings: rows}, nil
}

// Restore replaces the table contents with b. Call it on a transaction-bound
// Store so a failing row leaves the previous contents in place.
func (s *Store) Restore(ctx context.Context, b Backup, userID *int64) (int, error) {
	if b.Version != backupVersion {
		return 0, apperr.Validation("version", "unsupported backup version %d", b.Version)
	}
	for _, st := range b.Settings {
		if err := st.Validate(); err != nil {
			return 0, err
		}
	}

	if _, err := s.q.ExecContext(ctx, `DELETE FROM master_settings`); err != nil {
		return 0, fmt.Errorf("clear master settings: %w", err)
	}
	for _, st := range b.Settings {
		st.UserID = userID
		if err := s.Upsert(ctx, st); err != nil {
			return 0, err
		}
	}
	return len(b.Settings), nil
}
