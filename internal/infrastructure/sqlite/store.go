// Package sqlite is the record store adapter over a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/pharmalens/backend/internal/domain"
)

const observationsTable = "observations"

// Config describes where the store lives
type Config struct {
	Path            string
	ProductsTable   string
	CreateIfMissing bool
	BusyTimeout     time.Duration
}

// Store reads and writes product and observation rows.
// The pool holds a single connection so writers never overlap.
type Store struct {
	db            *sql.DB
	productsTable string
}

// Open opens the SQLite file and verifies it answers
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: empty store path", domain.ErrStoreUnavailable)
	}
	table := cfg.ProductsTable
	if table == "" {
		table = "products"
	}
	if err := validateIdent(table); err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.Path); err != nil {
		if !errors.Is(err, os.ErrNotExist) || !cfg.CreateIfMissing {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
			}
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStoreUnavailable, cfg.Path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", domain.ErrStoreUnavailable, cfg.Path, err)
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds())); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set busy_timeout: %v", domain.ErrStoreUnavailable, err)
	}

	log.Debug().Str("path", cfg.Path).Str("table", table).Msg("store opened")

	return &Store{db: db, productsTable: table}, nil
}

// Close releases the underlying connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DataVersion returns PRAGMA data_version of the pooled connection. The value
// moves when another connection or process commits; this store's own writes
// leave it unchanged.
func (s *Store) DataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return 0, classify(err, "data_version")
	}
	return v, nil
}

// Migrate applies the startup schema contract. It only ever adds tables and columns.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			substance TEXT,
			code TEXT,
			category TEXT,
			form TEXT,
			manufacturer TEXT,
			indication TEXT,
			nomenclature TEXT,
			price TEXT
		)`, quoteIdent(s.productsTable)),
		`CREATE TABLE IF NOT EXISTS observations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_name TEXT NOT NULL,
			type TEXT NOT NULL,
			comment TEXT NOT NULL,
			date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			product_id INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_date ON observations(date)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return classify(err, "migrate")
		}
	}

	// Legacy stores predate these columns
	if err := s.ensureProductFields(ctx); err != nil {
		return err
	}
	if err := s.EnsureColumn(ctx, s.productsTable, "observation", "TEXT", nil); err != nil {
		return err
	}
	if err := s.EnsureColumn(ctx, s.productsTable, "updated_at", "TEXT", nil); err != nil {
		return err
	}
	return s.EnsureColumn(ctx, observationsTable, "product_id", "INTEGER", nil)
}

// ensureProductFields adds a canonical column for every product field that no
// existing column answers to under any alias
func (s *Store) ensureProductFields(ctx context.Context) error {
	cols, err := s.tableColumns(ctx, s.productsTable)
	if err != nil {
		return err
	}
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Name
	}
	resolved := domain.ResolveColumns(headers)
	for _, f := range productFieldOrder {
		if _, ok := resolved[f]; ok || f == domain.FieldName {
			continue
		}
		if err := s.EnsureColumn(ctx, s.productsTable, string(f), "TEXT", nil); err != nil {
			return err
		}
	}
	return nil
}

// classify maps a driver error to the store error taxonomy
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, domain.ErrSchema) || errors.Is(err, domain.ErrQuery) {
		return err
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "database is closed") || strings.Contains(msg, "no such table") || strings.Contains(msg, "unable to open database") {
		return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
	}
	if strings.Contains(msg, "no such column") {
		return fmt.Errorf("%w: %s: %v", domain.ErrSchema, op, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrQuery, op, err)
}
