package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies pending embedded migrations with goose and returns the schema
// version before and after the call.
func Migrate(ctx context.Context, db *sql.DB, logger *logrus.Entry) (from, to int64, err error) {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(logger)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, 0, fmt.Errorf("setting goose dialect: %w", err)
	}

	from, err = goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, 0, fmt.Errorf("reading schema version: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return from, from, fmt.Errorf("applying migrations: %w", err)
	}
	to, err = goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return from, 0, fmt.Errorf("reading schema version: %w", err)
	}
	return from, to, nil
}
