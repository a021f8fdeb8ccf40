// Package storage is the versioned local object store every service operates
// on. Collections are ordered lists of JSON documents persisted in SQLite;
// replacing a whole collection is the only write primitive, so compound
// operations are read-modify-write cycles that must run inside Update, which
// is the single-writer boundary of the process.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"tillpos/internal/apperror"
)

// Collection names a logical persisted collection.
type Collection string

const (
	Products     Collection = "products"
	SalesHistory Collection = "salesHistory"
	AppState     Collection = "appState"
	Users        Collection = "users"
	Branches     Collection = "branches"
	Shifts       Collection = "shifts"
	ProductStock Collection = "productStock"
)

// Reserved scalar keys in the app-state store.
const (
	KeyCurrentUser   = "currentUser"
	KeyCurrentBranch = "currentBranch"
	KeyCurrentOrder  = "currentOrder"
	KeyLastSync      = "lastSyncTimestamp"
)

// Store owns all persisted bytes. One writer at a time: Update serializes
// through a store-wide mutex on top of a single SQLite connection.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the store at path (":memory:" works for tests),
// applies pragmas, and brings the schema to the current version. A failed
// migration refuses to open — the store must never be used partially
// migrated.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &apperror.StorageError{Op: "open", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &apperror.StorageError{Op: "connect", Err: err}
	}

	// SQLite supports one writer at a time; a single pooled connection keeps
	// every statement of a transaction on the same handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, &apperror.StorageError{Op: "pragma", Err: err}
	}
	if err := createSubstrate(db); err != nil {
		db.Close()
		return nil, &apperror.StorageError{Op: "substrate", Err: err}
	}
	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the underlying file is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%q: %w", pragma, err)
		}
	}
	return nil
}

// createSubstrate lays down the physical file format. Logical collections are
// rows in the registry and are created by migrations, not here.
func createSubstrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY
	);
	CREATE TABLE IF NOT EXISTS records (
		collection TEXT    NOT NULL,
		position   INTEGER NOT NULL,
		doc        TEXT    NOT NULL,
		PRIMARY KEY (collection, position)
	);
	CREATE TABLE IF NOT EXISTS app_state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	_, err := db.Exec(schema)
	return err
}

// Tx is a consistent view of the store. Obtained through View or Update;
// writes are only permitted inside Update.
type Tx struct {
	tx *sql.Tx
}

// View runs fn against a read snapshot.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	return s.run(ctx, fn)
}

// Update runs fn inside the single SQL transaction that makes a compound
// read-modify-write all-or-nothing. The mutex is the mutual-exclusion
// boundary the coarse replace-whole-collection contract depends on: no second
// writer can interleave between fn's reads and its writes.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, fn)
}

func (s *Store) run(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &apperror.StorageError{Op: "begin", Err: err}
	}
	if err := fn(&Tx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return &apperror.StorageError{Op: "commit", Err: err}
	}
	return nil
}

// ─── Collection access ───────────────────────────────────────────────────────

// ReadAll returns every document of a collection in stored order. An
// unregistered or empty collection yields an empty list, not an error.
func ReadAll[T any](ctx context.Context, tx *Tx, col Collection) ([]T, error) {
	rows, err := tx.tx.QueryContext(ctx,
		`SELECT doc FROM records WHERE collection = ? ORDER BY position`, string(col))
	if err != nil {
		return nil, &apperror.StorageError{Op: "readAll " + string(col), Err: err}
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, &apperror.StorageError{Op: "scan " + string(col), Err: err}
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, &apperror.StorageError{Op: "decode " + string(col), Err: err}
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperror.StorageError{Op: "readAll " + string(col), Err: err}
	}
	return out, nil
}

// ReplaceAll swaps the entire contents of a collection: clear-then-write
// inside the enclosing transaction, so concurrent readers observe either the
// old list or the new one, never a partial state.
func ReplaceAll[T any](ctx context.Context, tx *Tx, col Collection, items []T) error {
	if _, err := tx.tx.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ?`, string(col)); err != nil {
		return &apperror.StorageError{Op: "clear " + string(col), Err: err}
	}
	stmt, err := tx.tx.PrepareContext(ctx,
		`INSERT INTO records (collection, position, doc) VALUES (?, ?, ?)`)
	if err != nil {
		return &apperror.StorageError{Op: "prepare " + string(col), Err: err}
	}
	defer stmt.Close()
	for i, item := range items {
		doc, err := json.Marshal(item)
		if err != nil {
			return &apperror.StorageError{Op: "encode " + string(col), Err: err}
		}
		if _, err := stmt.ExecContext(ctx, string(col), i, doc); err != nil {
			return &apperror.StorageError{Op: "write " + string(col), Err: err}
		}
	}
	return nil
}

// GetScalar reads a session-scoped scalar. ok is false when the key is unset.
func GetScalar[T any](ctx context.Context, tx *Tx, key string) (value T, ok bool, err error) {
	var raw []byte
	row := tx.tx.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key)
	if scanErr := row.Scan(&raw); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return value, false, nil
		}
		return value, false, &apperror.StorageError{Op: "getScalar " + key, Err: scanErr}
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, &apperror.StorageError{Op: "decode scalar " + key, Err: err}
	}
	return value, true, nil
}

// SetScalar writes a session-scoped scalar; a nil value clears the key.
func SetScalar[T any](ctx context.Context, tx *Tx, key string, value *T) error {
	if value == nil {
		if _, err := tx.tx.ExecContext(ctx, `DELETE FROM app_state WHERE key = ?`, key); err != nil {
			return &apperror.StorageError{Op: "clearScalar " + key, Err: err}
		}
		return nil
	}
	raw, err := json.Marshal(*value)
	if err != nil {
		return &apperror.StorageError{Op: "encode scalar " + key, Err: err}
	}
	if _, err := tx.tx.ExecContext(ctx,
		`INSERT INTO app_state (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, raw); err != nil {
		return &apperror.StorageError{Op: "setScalar " + key, Err: err}
	}
	return nil
}

// ─── Collection registry (used by migrations) ────────────────────────────────

func (t *Tx) hasCollection(ctx context.Context, col Collection) (bool, error) {
	var n int
	row := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collections WHERE name = ?`, string(col))
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *Tx) createCollection(ctx context.Context, col Collection) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections (name) VALUES (?)`, string(col))
	return err
}
