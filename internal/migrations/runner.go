// README: Embedded PostgreSQL migrations for the trip tables; applied once each, tracked in schema_migrations.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed *.sql
var sqlFiles embed.FS

type migration struct {
	version string
	sql     string
}

// Run applies pending migrations in file name order, each in its own
// transaction together with its schema_migrations record.
func Run(ctx context.Context, db *pgxpool.Pool) error {
	all, err := load()
	if err != nil {
		return fmt.Errorf("migrations: load: %w", err)
	}
	if len(all) == 0 {
		return nil
	}

	// 000 creates the tracking table itself and is idempotent.
	if _, err := db.Exec(ctx, all[0].sql); err != nil {
		return fmt.Errorf("migrations: tracking table: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return fmt.Errorf("migrations: applied versions: %w", err)
	}

	count := 0
	for _, m := range all {
		if applied[m.version] {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("migrations: apply %s: %w", m.version, err)
		}
		log.Printf("migrations: applied %s", m.version)
		count++
	}
	if count == 0 {
		log.Println("migrations: schema up to date")
	}
	return nil
}

// CheckSchema reports a missing table the service depends on.
func CheckSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, table := range []string{"trips", "trip_summaries"} {
		var exists bool
		err := db.QueryRow(ctx, `
            SELECT EXISTS (
                SELECT 1 FROM information_schema.tables
                WHERE table_schema = current_schema() AND table_name = $1
            )`, table,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("migrations: check %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("migrations: table %s is missing", table)
		}
	}
	return nil
}

func load() ([]migration, error) {
	entries, err := sqlFiles.ReadDir(".")
	if err != nil {
		return nil, err
	}
	out := make([]migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		content, err := sqlFiles.ReadFile(e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, migration{version: e.Name(), sql: string(content)})
	}
	return out, nil
}

func appliedVersions(ctx context.Context, db *pgxpool.Pool) (map[string]bool, error) {
	rows, err := db.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		seen[v] = true
	}
	return seen, rows.Err()
}

func apply(ctx context.Context, db *pgxpool.Pool, m migration) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, m.sql); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
