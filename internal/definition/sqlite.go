package definition

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
)

var (
	_ hologram.DefinitionStore  = (*SQLiteStore)(nil)
	_ hologram.DefinitionWriter = (*SQLiteStore)(nil)
)

// SQLiteStore keeps definitions in the displays table. Sources are display
// names, listed in creation order.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over a migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ListSources returns every stored display name.
func (s *SQLiteStore) ListSources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM displays ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("querying displays: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning display row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating displays: %w", err)
	}
	return names, nil
}

// Load reads one definition. The enabled column overrides the stored document.
func (s *SQLiteStore) Load(ctx context.Context, name string) (hologram.Definition, error) {
	var (
		enabled int
		body    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT enabled, definition FROM displays WHERE name = ?`, name,
	).Scan(&enabled, &body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return hologram.Definition{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return hologram.Definition{}, fmt.Errorf("querying display %s: %w", name, err)
	}

	var def hologram.Definition
	if err := json.Unmarshal([]byte(body), &def); err != nil {
		return hologram.Definition{}, fmt.Errorf("decoding display %s: %w", name, err)
	}
	def.Name = name
	on := enabled != 0
	def.Enabled = &on
	return def, nil
}

// Save inserts or replaces a definition.
func (s *SQLiteStore) Save(ctx context.Context, def hologram.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encoding definition: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO displays (name, enabled, definition, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			enabled = excluded.enabled,
			definition = excluded.definition,
			updated_at = excluded.updated_at`,
		def.Name, boolToInt(def.IsEnabled()), string(body), now, now,
	)
	if err != nil {
		return fmt.Errorf("saving display %s: %w", def.Name, err)
	}
	return nil
}

// Delete removes a definition.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM displays WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting display %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
