package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// Migrate applies the embedded migrations. Applied versions are skipped.
func (db *DB) Migrate(ctx context.Context) error {
	if db.native == nil {
		return errors.New("migrate requires a connected database")
	}

	sqlDB := stdlib.OpenDBFromPool(db.native)
	defer sqlDB.Close()

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
