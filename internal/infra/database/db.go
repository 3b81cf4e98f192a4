package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver, CGo-free
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

// Dialect names the SQL flavor a connection speaks. It selects the
// embedded migration directory and the placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// NewConnection opens a database handle for the given driver and pings it to
// ensure connectivity. For sqlite the DSN is a file path or ":memory:"; for
// postgres it is a connection string.
func NewConnection(driver, dsn string) (*sql.DB, Dialect, error) {
	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)
	switch driver {
	case string(DialectSQLite):
		db, err = sql.Open("sqlite", dsn)
		dialect = DialectSQLite
	case string(DialectPostgres):
		db, err = sql.Open("postgres", dsn)
		dialect = DialectPostgres
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database connection: %w", err)
	}

	if dialect == DialectSQLite {
		// One writer connection keeps SQLITE_BUSY away and keeps
		// ":memory:" databases alive across the pool.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(defaultMaxOpenConns)
		db.SetMaxIdleConns(defaultMaxIdleConns)
		db.SetConnMaxLifetime(defaultConnMaxLifetime)
		db.SetConnMaxIdleTime(defaultConnMaxIdleTime)
	}

	if err = db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	return db, dialect, nil
}
