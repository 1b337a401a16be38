package pg

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/userauth/internal/observability/logger"
)

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// MigrationResult resume una corrida de migraciones.
type MigrationResult struct {
	Applied []string
	Skipped []string
}

// Migrate aplica (up) o revierte (down) migraciones *_up.sql / *_down.sql de fsys.
// steps <= 0 significa todas. Cada archivo corre en su propia tx junto con
// el registro en schema_migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, action string, steps int) (*MigrationResult, error) {
	log := logger.From(ctx).With(logger.Component("migrate"))

	if _, err := pool.Exec(ctx, migrationsTable); err != nil {
		return nil, fmt.Errorf("migrate: ensure table: %w", err)
	}

	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return nil, err
	}

	res := &MigrationResult{}
	switch strings.ToLower(action) {
	case "up":
		files, err := listSQL(fsys, "_up.sql")
		if err != nil {
			return nil, err
		}
		sort.Strings(files)
		for _, f := range files {
			v := version(f, "_up.sql")
			if applied[v] {
				res.Skipped = append(res.Skipped, v)
				continue
			}
			if steps > 0 && len(res.Applied) >= steps {
				break
			}
			if err := execFile(ctx, pool, fsys, f, `INSERT INTO schema_migrations (version) VALUES ($1)`, v); err != nil {
				return res, err
			}
			log.Info("migration applied", logger.String("version", v))
			res.Applied = append(res.Applied, v)
		}

	case "down":
		files, err := listSQL(fsys, "_down.sql")
		if err != nil {
			return nil, err
		}
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
		for _, f := range files {
			v := version(f, "_down.sql")
			if !applied[v] {
				res.Skipped = append(res.Skipped, v)
				continue
			}
			if steps > 0 && len(res.Applied) >= steps {
				break
			}
			if err := execFile(ctx, pool, fsys, f, `DELETE FROM schema_migrations WHERE version = $1`, v); err != nil {
				return res, err
			}
			log.Info("migration reverted", logger.String("version", v))
			res.Applied = append(res.Applied, v)
		}

	default:
		return nil, fmt.Errorf("migrate: unknown action %q (use up | down)", action)
	}
	return res, nil
}

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("migrate: read versions: %w", err)
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("migrate: scan version: %w", err)
		}
		out[v] = true
	}
	return out, rows.Err()
}

func listSQL(fsys fs.FS, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("migrate: read dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func version(name, suffix string) string {
	return strings.TrimSuffix(path.Base(name), suffix)
}

func execFile(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, name, bookkeeping, v string) error {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("migrate: read %s: %w", name, err)
	}

	start := time.Now()
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("migrate: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(b)); err != nil {
		return fmt.Errorf("migrate: exec %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, bookkeeping, v); err != nil {
		return fmt.Errorf("migrate: record %s: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("migrate: commit %s: %w", name, err)
	}
	logger.From(ctx).Debug("migration file executed",
		logger.String("file", name), logger.Duration(time.Since(start)))
	return nil
}
