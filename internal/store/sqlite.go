package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLite is a Store persisting each entity as one row of (id, version, state)
// with the state JSON-encoded. The compare-and-swap is an UPDATE conditioned
// on the version read at the top of the attempt.
type SQLite[T any] struct {
	db    *sql.DB
	table string
}

// NewSQLite returns a Store over the given table, which must exist with
// columns (id TEXT PRIMARY KEY, version INTEGER NOT NULL, state TEXT NOT
// NULL). The table name comes from a migration, never from user input.
func NewSQLite[T any](db *sql.DB, table string) *SQLite[T] {
	return &SQLite[T]{db: db, table: table}
}

func (s *SQLite[T]) Create(ctx context.Context, id string, initial T) error {
	raw, err := json.Marshal(initial)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, version, state) VALUES (?, 0, ?)
		ON CONFLICT (id) DO NOTHING
	`, s.table), id, string(raw))
	if err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking insert: %w", err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *SQLite[T]) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT 1 FROM %s WHERE id = ?`, s.table), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying entity: %w", err)
	}
	return true, nil
}

func (s *SQLite[T]) Get(ctx context.Context, id string) (T, error) {
	var state T

	var raw string
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT state FROM %s WHERE id = ?`, s.table), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return state, ErrNotFound
	}
	if err != nil {
		return state, fmt.Errorf("querying entity: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return state, fmt.Errorf("decoding state: %w", err)
	}
	return state, nil
}

func (s *SQLite[T]) Mutate(ctx context.Context, id string, fn Transition[T]) (T, error) {
	var zero T

	for range maxMutateAttempts {
		var raw string
		var version int64
		err := s.db.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT version, state FROM %s WHERE id = ?`, s.table), id).Scan(&version, &raw)
		if errors.Is(err, sql.ErrNoRows) {
			return zero, ErrNotFound
		}
		if err != nil {
			return zero, fmt.Errorf("loading entity: %w", err)
		}

		var current T
		if err := json.Unmarshal([]byte(raw), &current); err != nil {
			return zero, fmt.Errorf("decoding state: %w", err)
		}

		next, err := fn(current)
		if err != nil {
			return zero, err
		}

		encoded, err := json.Marshal(next)
		if err != nil {
			return zero, fmt.Errorf("encoding state: %w", err)
		}

		res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
			UPDATE %s SET version = version + 1, state = ?
			WHERE id = ? AND version = ?
		`, s.table), string(encoded), id, version)
		if err != nil {
			return zero, fmt.Errorf("committing entity: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return zero, fmt.Errorf("checking commit: %w", err)
		}
		if n == 1 {
			return next, nil
		}
		// A concurrent writer advanced the version; reload and reapply.
	}

	return zero, ErrConflict
}

func (s *SQLite[T]) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id FROM %s ORDER BY rowid`, s.table))
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
