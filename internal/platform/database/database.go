// Package database opens the SQL backend and applies its schema.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"tracker/pkg/platform/sentinel"
)

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var (
	//go:embed schema_postgres.sql
	postgresSchema string

	//go:embed schema_sqlite.sql
	sqliteSchema string
)

// Config describes how to reach the database.
type Config struct {
	Dialect         Dialect
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB is a connection pool tagged with its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects and pings the database.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dsn := cfg.DSN
	switch cfg.Dialect {
	case Postgres:
	case SQLite:
		dsn = sqliteDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", cfg.Dialect)
	}

	db, err := sql.Open(string(cfg.Dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Dialect, err)
	}
	if cfg.Dialect == SQLite {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Dialect, err)
	}
	return &DB{DB: db, Dialect: cfg.Dialect}, nil
}

func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Migrate applies the embedded schema. Statements are idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if db.Dialect == SQLite {
		schema = sqliteSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Rebind rewrites ? placeholders into the dialect's form.
func (db *DB) Rebind(query string) string {
	return Rebind(db.Dialect, query)
}

// Rebind rewrites ? placeholders into $N for Postgres.
func Rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// TranslateError maps driver constraint violations onto sentinel errors.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505", "23503":
			return fmt.Errorf("%w: %s", sentinel.ErrConflict, pqErr.Message)
		case "57014":
			return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, pqErr.Message)
		}
		return err
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		// the low byte is the primary result code
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: %s", sentinel.ErrConflict, liteErr.Error())
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, liteErr.Error())
		}
	}
	return err
}
