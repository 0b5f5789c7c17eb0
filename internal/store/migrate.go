package store

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const migrationGlob = "migrations/*.up.sql"

// Migrate applies any pending migrations from fsys.
func (s *Store) Migrate(ctx context.Context, fsys fs.FS) error {
	applied, err := ApplyMigrations(ctx, s.pool, fsys)
	if err != nil {
		return err
	}
	s.logger.Printf("store: applied %d migration(s)", len(applied))
	return nil
}

// ApplyMigrations runs every migrations/*.up.sql file in fsys that is not yet
// recorded in schema_migrations, each in its own transaction, in lexical
// order. It returns the names it applied.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) ([]string, error) {
	files, err := fs.Glob(fsys, migrationGlob)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migration files found")
	}
	sort.Strings(files)

	const ddl = `
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version    TEXT PRIMARY KEY,
            applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )
    `
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := make([]string, 0, len(files))
	for _, file := range files {
		version := path.Base(file)
		payload, err := fs.ReadFile(fsys, file)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", version, err)
		}

		var ran bool
		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING`, version)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return nil
			}
			if _, err := tx.Exec(ctx, string(payload)); err != nil {
				return err
			}
			ran = true
			return nil
		})
		if err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", version, err)
		}
		if ran {
			applied = append(applied, version)
		}
	}
	return applied, nil
}

// SchemaVersion returns the newest recorded migration, or "" when none has
// been applied yet.
func SchemaVersion(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	var tracked bool
	if err := pool.QueryRow(ctx, `SELECT to_regclass('schema_migrations') IS NOT NULL`).Scan(&tracked); err != nil {
		return "", fmt.Errorf("check schema_migrations: %w", err)
	}
	if !tracked {
		return "", nil
	}
	var version string
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), '') FROM schema_migrations`).Scan(&version); err != nil {
		return "", fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
