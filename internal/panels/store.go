package panels

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/textpanel/internal/content"
	"github.com/ziadkadry99/textpanel/internal/db"
)

// Store manages persistence of panels.
type Store struct {
	db *db.DB
}

// NewStore creates a new panel store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a panel, assigning an ID and timestamps.
func (s *Store) Create(ctx context.Context, p Panel) (*Panel, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO panels (id, title, mode, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, string(p.Options.Mode), p.Options.Content, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting panel: %w", err)
	}
	return &p, nil
}

// GetByID retrieves a panel. Returns nil if it does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Panel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, mode, content, created_at, updated_at FROM panels WHERE id = ?`, id)
	p, err := scanPanel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting panel: %w", err)
	}
	return p, nil
}

// List returns all panels, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Panel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, mode, content, created_at, updated_at FROM panels ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing panels: %w", err)
	}
	defer rows.Close()

	var out []Panel
	for rows.Next() {
		p, err := scanPanel(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning panel: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdateOptions replaces a panel's options. Returns nil if it does not exist.
func (s *Store) UpdateOptions(ctx context.Context, id string, opts content.Options) (*Panel, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE panels SET mode = ?, content = ?, updated_at = ? WHERE id = ?`,
		string(opts.Mode), opts.Content, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating panel options: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

// UpdateTitle renames a panel. Returns nil if it does not exist.
func (s *Store) UpdateTitle(ctx context.Context, id, title string) (*Panel, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE panels SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating panel title: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

// Delete removes a panel. It reports whether a row was deleted.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM panels WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting panel: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPanel(row scanner) (*Panel, error) {
	var p Panel
	var mode string
	if err := row.Scan(&p.ID, &p.Title, &mode, &p.Options.Content, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Options.Mode = content.Mode(mode)
	return &p, nil
}
