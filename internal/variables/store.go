package variables

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ziadkadry99/textpanel/internal/db"
)

// Store persists dashboard variables.
type Store struct {
	db *db.DB
}

// NewStore creates a new variable store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Put inserts or replaces a variable.
func (s *Store) Put(ctx context.Context, v Variable) error {
	values, err := json.Marshal(v.Values)
	if err != nil {
		return fmt.Errorf("encoding values: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO variables (name, vals, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET vals = excluded.vals, updated_at = excluded.updated_at`,
		v.Name, string(values), v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving variable %s: %w", v.Name, err)
	}
	return nil
}

// Get retrieves a variable by name. Returns nil if it does not exist.
func (s *Store) Get(ctx context.Context, name string) (*Variable, error) {
	var v Variable
	var values string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, vals, updated_at FROM variables WHERE name = ?`, name,
	).Scan(&v.Name, &values, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting variable: %w", err)
	}
	if err := json.Unmarshal([]byte(values), &v.Values); err != nil {
		return nil, fmt.Errorf("decoding values of %s: %w", name, err)
	}
	return &v, nil
}

// List returns all stored variables ordered by name.
func (s *Store) List(ctx context.Context) ([]Variable, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, vals, updated_at FROM variables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing variables: %w", err)
	}
	defer rows.Close()

	var out []Variable
	for rows.Next() {
		var v Variable
		var values string
		if err := rows.Scan(&v.Name, &values, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning variable: %w", err)
		}
		if err := json.Unmarshal([]byte(values), &v.Values); err != nil {
			return nil, fmt.Errorf("decoding values of %s: %w", v.Name, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Delete removes a variable. Deleting a missing variable is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM variables WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting variable: %w", err)
	}
	return nil
}
