package catalog

import (
	"context"
	"fmt"
)

type migration struct {
	version string
	sql     string
}

var migrations = []migration{
	{
		version: "0001_videos",
		sql: `CREATE TABLE IF NOT EXISTS videos (
            id INTEGER PRIMARY KEY,
            source_name TEXT NOT NULL DEFAULT '',
            ingested_at TEXT NOT NULL,
            low_quality INTEGER NOT NULL DEFAULT 0,
            preview INTEGER NOT NULL DEFAULT 0,
            updated_at TEXT NOT NULL
        )`,
	},
	{
		version: "0002_runs",
		sql: `CREATE TABLE IF NOT EXISTS runs (
            run_id TEXT PRIMARY KEY,
            started_at TEXT NOT NULL,
            finished_at TEXT NOT NULL,
            processed INTEGER NOT NULL DEFAULT 0,
            healed INTEGER NOT NULL DEFAULT 0,
            published INTEGER NOT NULL DEFAULT 0
        )`,
	},
}

func (s *Store) applyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migrations: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, migration := range migrations {
		var count int
		row := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", migration.version)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, migration.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", migration.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", migration.version); err != nil {
			return fmt.Errorf("record migration %s: %w", migration.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}
