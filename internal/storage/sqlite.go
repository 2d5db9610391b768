package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	*queries
	db          *sql.DB
	subscribers map[int]func(model.ChangeEvent)
	dbPath      string
	nextSubID   int
	subMu       sync.RWMutex
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Validate input
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open database
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers and keeps :memory: databases alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStorage{
		db:          db,
		dbPath:      dbPath,
		subscribers: make(map[int]func(model.ChangeEvent)),
	}
	s.queries = &queries{q: db, notify: s.publish}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Subscribe registers fn to receive committed change events.
func (s *SQLiteStorage) Subscribe(fn func(model.ChangeEvent)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *SQLiteStorage) publish(ev model.ChangeEvent) {
	s.subMu.RLock()
	fns := make([]func(model.ChangeEvent), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	t := &sqliteTransaction{
		tx:      tx,
		storage: s,
	}
	t.queries = &queries{q: tx, notify: t.buffer}
	return t, nil
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
// Change events are held until commit.
type sqliteTransaction struct {
	*queries
	tx      *sql.Tx
	storage *SQLiteStorage
	pending []model.ChangeEvent
}

func (t *sqliteTransaction) buffer(ev model.ChangeEvent) {
	t.pending = append(t.pending, ev)
}

func (t *sqliteTransaction) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return err
	}
	events := t.pending
	t.pending = nil
	for _, ev := range events {
		t.storage.publish(ev)
	}
	return nil
}

func (t *sqliteTransaction) Rollback() error {
	t.pending = nil
	return t.tx.Rollback()
}

// queries implements service.Store once for both the database and a
// transaction.
type queries struct {
	q      queryable
	notify func(model.ChangeEvent)
}

// queryable is an interface satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	_ service.Storage     = (*SQLiteStorage)(nil)
	_ service.Transaction = (*sqliteTransaction)(nil)
)
