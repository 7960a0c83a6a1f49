// Package sqlite implements the SQLite storage backend for tutor.
//
// A Backend owns one database file, tutor.db, inside the configured data
// directory. The connection pool is capped at a single connection: SQLite
// serializes writers anyway, and a single connection means a transaction
// opened by WithTx excludes every other reader and writer in the process.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

// DatabaseFile is the name of the database inside DataDir.
const DatabaseFile = "tutor.db"

// Compile-time interface check.
var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on top of SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens (or creates) the database in config.DataDir and applies the
// schema. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	dsn := "file:" + filepath.Join(dataDir, DatabaseFile) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)

	if err := applySchema(context.Background(), db); err != nil {
		db.Close()
		return fmt.Errorf("apply schema: %w", err)
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach closes the database. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// DataDir returns the directory the backend was attached with.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.DataDir
}

// Students returns the students table bound to the shared connection.
func (b *Backend) Students() types.StudentsTable {
	return &studentsTable{backend: b}
}

// Vocabulary returns the vocabulary table bound to the shared connection.
func (b *Backend) Vocabulary() types.VocabularyTable {
	return &vocabularyTable{backend: b}
}

// WithTx runs fn inside one transaction. Table accessors handed to fn use
// the transaction; fn must not call back into b directly or it will wait
// for the connection it already holds.
func (b *Backend) WithTx(ctx context.Context, fn func(types.Tables) error) (err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(txTables{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return storageErr("committing transaction", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the shared connection and a release func, or
// ErrStoreDetached. The read lock keeps Detach from closing the database
// mid-query.
func (b *Backend) conn() (querier, func(), error) {
	b.mu.RLock()
	if !b.attached {
		b.mu.RUnlock()
		return nil, nil, types.ErrStoreDetached
	}
	return b.db, b.mu.RUnlock, nil
}

// txTables exposes the tables inside a transaction.
type txTables struct {
	tx *sql.Tx
}

func (t txTables) Students() types.StudentsTable {
	return &studentsTable{tx: t.tx}
}

func (t txTables) Vocabulary() types.VocabularyTable {
	return &vocabularyTable{tx: t.tx}
}

// source picks the transaction when the accessor is bound to one and the
// shared connection otherwise.
func source(backend *Backend, tx *sql.Tx) (querier, func(), error) {
	if tx != nil {
		return tx, func() {}, nil
	}
	return backend.conn()
}

// storageErr wraps a driver error so callers can match ErrStorageFailure.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrStorageFailure, err)
}
