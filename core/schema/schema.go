// Package schema bootstraps and regenerates the target track database.
// It wraps goose migrations stored in db/migrations: the same
// migration's up/down pair both lays down a fresh schema and tears one
// down, so Bootstrap and Regenerate are two different orderings of the
// identical DDL.
package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/sonospy/movetags/db/migrations"
	"github.com/sonospy/movetags/log"
)

func provider(db *sql.DB) (*goose.Provider, error) {
	return goose.NewProvider(goose.DialectSQLite3, db, nil,
		goose.WithGoMigrations(migrations.TagSyncSchema()))
}

// Bootstrap applies every pending migration, creating any table or
// index that does not already exist. It is safe to call on every
// startup: an already-current database is a no-op.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	p, err := provider(db)
	if err != nil {
		return fmt.Errorf("schema: open migration provider: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("schema: apply migrations: %w", err)
	}
	log.Info(ctx, "schema bootstrap complete", "migrationsApplied", len(results))
	return nil
}

// Regenerate drops and recreates every table the synchronizer owns (a
// full DROP TABLE IF EXISTS per table, not a row-level delete), followed
// immediately by Bootstrap so the id bands are reseeded exactly as on
// first run.
func Regenerate(ctx context.Context, db *sql.DB) error {
	p, err := provider(db)
	if err != nil {
		return fmt.Errorf("schema: open migration provider: %w", err)
	}
	if _, err := p.DownTo(ctx, 0); err != nil {
		return fmt.Errorf("schema: drop existing schema: %w", err)
	}
	log.Info(ctx, "tracks data deleted")
	return Bootstrap(ctx, db)
}
