// Package sqlitestate stores detector state in a SQLite database, one row
// per node, using the pure-Go modernc.org/sqlite driver.
package sqlitestate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/statestore"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS node_state (
	node       TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// Store implements statestore.Store with SQLite.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

var _ statestore.Store = (*Store)(nil)

// Open opens or creates the database at path and ensures the schema.
// The parent directory is created if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create node_state table: %w", err)
	}
	return &Store{db: db, clock: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the record for node.
func (s *Store) Save(ctx context.Context, node string, state statestore.State) error {
	if err := statestore.ValidateName(node); err != nil {
		return err
	}
	data, err := statestore.Encode(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO node_state(node, state, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(node) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		node, string(data), s.clock().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert node_state: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Saved node state.", "node", node)
	return nil
}

// Load returns the record for node or an empty State.
func (s *Store) Load(ctx context.Context, node string) (statestore.State, error) {
	if err := statestore.ValidateName(node); err != nil {
		return nil, err
	}
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM node_state WHERE node = ?`, node).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return statestore.State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select node_state: %w", err)
	}
	return statestore.Decode([]byte(raw))
}

// Record is a row of the node_state table.
type Record struct {
	Node      string
	UpdatedAt time.Time
}

// List returns every stored record ordered by node name.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT node, updated_at FROM node_state ORDER BY node`)
	if err != nil {
		return nil, fmt.Errorf("list node_state: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			updated string
		)
		if err := rows.Scan(&rec.Node, &updated); err != nil {
			return nil, fmt.Errorf("scan node_state: %w", err)
		}
		rec.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		out = append(out, rec)
	}
	return out, rows.Err()
}
