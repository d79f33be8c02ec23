// Package sqlstore implements the repository interfaces on top of
// database/sql, using sqlx for struct scanning and bind-variable rebinding.
//
// Two backends are supported and picked from the database URL:
//
//	postgres://... | postgresql://...        → PostgreSQL via pgx
//	sqlite://path | file:... | :memory: | path → SQLite via modernc.org/sqlite
//
// Queries are written once with "?" placeholders and rebound for the active
// driver. Schema lives in embedded goose migrations, one directory per
// dialect, and is applied by Open.
package sqlstore

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"

	"github.com/sakif/notes-api/internal/repository/sqlstore/migrations"
)

// Dialect names the SQL flavour a Store talks to.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "pgx"
)

// sqliteLower is a Unicode-aware replacement for SQLite's LOWER, which only
// folds ASCII letters. It lower-cases exactly like strings.ToLower, the
// function SearchNotes applies to the query.
const sqliteLower = "ulower"

func init() {
	// sqlx knows "sqlite3" but not the name modernc registers under.
	sqlx.BindDriver(driverSQLite, sqlx.QUESTION)

	sqlite.MustRegisterDeterministicScalarFunction(sqliteLower, 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", sqliteLower, v)
	}
}

// lowerFunc names the SQL function that folds a column the same way
// strings.ToLower folds a Go string. PostgreSQL's LOWER already handles
// Unicode.
func (s *Store) lowerFunc() string {
	if s.dialect == DialectSQLite {
		return sqliteLower
	}
	return "LOWER"
}

// Store is the SQL-backed implementation of repository.UserRepository and
// repository.NoteRepository. It is safe for concurrent use.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	logger  *slog.Logger
}

// Open connects to the database named by url, verifies the connection and
// applies pending migrations.
//
//	store, err := sqlstore.Open(ctx, "sqlite://data/notes.db", logger)
//	if err != nil { ... }
//	defer store.Close()
func Open(ctx context.Context, url string, logger *slog.Logger) (*Store, error) {
	driver, dsn, dialect, err := parseURL(url)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening database: %w", err)
	}

	if dialect == DialectSQLite && isMemory(dsn) {
		// Every connection to :memory: is a separate, empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: pinging database: %w", err)
	}

	if dialect == DialectSQLite && isMemory(dsn) {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlstore: enabling foreign keys: %w", err)
		}
	}

	s := New(db, dialect, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// New wraps an already-open handle. It does not migrate; callers that
// need the schema call Migrate.
func New(db *sqlx.DB, dialect Dialect, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, dialect: dialect, logger: logger}
}

// Dialect reports which backend the store is bound to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// gooseMu serialises migrations: goose keeps its base FS and dialect in
// package-level state.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = goose.UpContext

// Migrate applies every embedded migration for the store's dialect that has
// not run yet. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{s.logger})
	defer goose.SetBaseFS(nil)

	gooseDialect := "sqlite3"
	if s.dialect == DialectPostgres {
		gooseDialect = "postgres"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("sqlstore: setting migration dialect: %w", err)
	}

	if err := gooseUpContext(ctx, s.db.DB, string(s.dialect)); err != nil {
		return fmt.Errorf("sqlstore: running migrations: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable. The health endpoint calls it.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// parseURL maps a database URL onto a driver name, the DSN that driver
// expects, and the dialect used for migrations.
func parseURL(url string) (driver, dsn string, dialect Dialect, err error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		return "", "", "", errors.New("sqlstore: database url is empty")

	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return driverPostgres, url, DialectPostgres, nil

	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		if path == "" {
			return "", "", "", errors.New("sqlstore: sqlite url has no path")
		}
		return driverSQLite, sqliteDSN(path), DialectSQLite, nil

	case strings.Contains(url, "://"):
		return "", "", "", fmt.Errorf("sqlstore: unsupported database url scheme in %q", redact(url))

	default:
		return driverSQLite, sqliteDSN(url), DialectSQLite, nil
	}
}

// sqliteDSN turns on foreign keys and a busy timeout for file databases.
// The pragmas ride on the DSN so every pooled connection gets them.
func sqliteDSN(path string) string {
	if isMemory(path) {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// redact drops everything before the host so credentials never reach logs.
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = rest[at+1:]
	}
	return scheme + "://" + rest
}

// gooseLogger routes goose progress lines into the structured log.
type gooseLogger struct {
	logger *slog.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrations"))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrations"))
}
