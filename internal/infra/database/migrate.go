package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embeddedMigrations embed.FS

// Migrate brings the schema up to date using the embedded goose migrations
// for the connection's dialect.
func Migrate(db *sql.DB, dialect Dialect) error {
	gooseDialect := "postgres"
	if dialect == DialectSQLite {
		gooseDialect = "sqlite3"
	}

	goose.SetBaseFS(embeddedMigrations)
	goose.SetTableName("schema_migrations")
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations/"+string(dialect)); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
