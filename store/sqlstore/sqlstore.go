/*
Package sqlstore provides the SQL implementation of the catalog storage
interfaces, on SQLite or PostgreSQL.

PURPOSE:
  Implements catalog.SessionStore (used by the costing engine) and
  catalog.GraphBuilder, plus the collaborator CRUD the HTTP API exposes
  for offerings, activities, WBS nodes, staffing roles, rate cards and
  staffing assignments.

DRIVERS:
  sqlite:   github.com/mattn/go-sqlite3, opened with WAL, foreign keys on,
            a busy timeout and BEGIN IMMEDIATE so concurrent writers queue
            inside SQLite instead of failing with SQLITE_BUSY. Read sessions
            on a file database use a second, query-only pool with deferred
            transactions: WAL gives them a snapshot without the write lock.
  postgres: github.com/jackc/pgx/v5 through its database/sql driver.
  Queries are written once with ? placeholders and rebound per dialect.

KEY TABLES:
  offerings, activities, wbs:   graph vertices
  offering_activities:          offering -> activity (sequence, is_mandatory)
  activity_wbs:                 activity -> WBS node
  staffing:                     staffing roles, UNIQUE(country, role, band)
  wbs_staffing:                 assignments, PRIMARY KEY(wbs_id, staffing_id)
  rate_cards:                   one per staffing role, UNIQUE(staffing_id)

CONCURRENCY:
  No locks in Go. Every conditional write is a single statement guarded by
  a constraint (ON CONFLICT upsert, UNIQUE insert) and every session is a
  database transaction.

USAGE:
  st, err := sqlstore.OpenSQLite("./data/configurator.db")
  if err != nil {
      return err
  }
  defer st.Close()

  engine := costing.NewEngine(st)

MIGRATION:
  Schema is created on open with CREATE ... IF NOT EXISTS statements.

SEE ALSO:
  - catalog/store.go: Interface definitions
  - catalog/store/memory.go: In-memory implementation for engine tests
  - errors.go: Constraint violation mapping
*/
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/solution-configurator/catalog"
	"github.com/warp/solution-configurator/config"
	"github.com/warp/solution-configurator/logger"
)

// Store implements the catalog storage interfaces on a *sql.DB.
type Store struct {
	db      *sql.DB
	reader  *sql.DB // read sessions; same pool as db unless SQLite on a file
	dialect dialect
	log     *logger.Logger
}

var (
	_ catalog.SessionStore = (*Store)(nil)
	_ catalog.GraphBuilder = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l.With("component", "sqlstore")
		}
	}
}

// Open opens the database named by cfg and migrates it.
func Open(ctx context.Context, cfg config.Database, opts ...Option) (*Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return OpenSQLite(cfg.DSN, opts...)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, opts...)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenSQLite opens a SQLite database at path and migrates it.
// Use ":memory:" for a private in-memory database.
func OpenSQLite(path string, opts ...Option) (*Store, error) {
	memory := path == ":memory:"
	if !memory {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// Every new connection to :memory: is a new, empty database.
		db.SetMaxOpenConns(1)
		return newStore(context.Background(), db, sqliteDialect, opts)
	}

	st, err := newStore(context.Background(), db, sqliteDialect, opts)
	if err != nil {
		return nil, err
	}
	// Opened after migration: query-only connections cannot create tables.
	reader, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000&_txlock=deferred&_query_only=true")
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to open read pool: %w", err)
	}
	st.reader = reader
	return st, nil
}

// OpenPostgres connects to PostgreSQL through the pgx driver and migrates
// the schema.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return newStore(ctx, db, postgresDialect, opts)
}

func newStore(ctx context.Context, db *sql.DB, d dialect, opts []Option) (*Store, error) {
	s := &Store{db: db, reader: db, dialect: d, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection pools.
func (s *Store) Close() error {
	var errs []error
	if s.reader != nil && s.reader != s.db {
		errs = append(errs, s.reader.Close())
	}
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

// Driver reports the dialect in use ("sqlite" or "postgres").
func (s *Store) Driver() string {
	return s.dialect.String()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	s.log.Debug("schema applied", "driver", s.dialect.String())
	return nil
}

// Reset deletes every row, children first. Used before loading a scenario.
func (s *Store) Reset(ctx context.Context) error {
	return s.inTx(ctx, nil, func(c conn) error {
		for _, table := range []string{
			"rate_cards",
			"wbs_staffing",
			"activity_wbs",
			"offering_activities",
			"staffing",
			"wbs",
			"activities",
			"offerings",
		} {
			if _, err := c.exec(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *Store) conn() conn {
	return conn{q: s.db, d: s.dialect}
}

func now() time.Time {
	return time.Now().UTC()
}
