// Package migrations applies the embedded PostgreSQL schema.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/db"
)

// Files embeds the ordered schema migrations.
//
//go:embed sql/*.sql
var Files embed.FS

// Migration is a single embedded schema step.
type Migration struct {
	Version string
	SQL     string
}

// Pool is what Apply needs from a connection pool.
type Pool interface {
	db.Querier
	db.TxStarter
}

// Load returns the embedded migrations ordered by version.
func Load() ([]Migration, error) {
	names, err := fs.Glob(Files, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	out := make([]Migration, 0, len(names))
	for _, name := range names {
		body, err := Files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("migrations: read %s: %w", name, err)
		}
		out = append(out, Migration{
			Version: strings.TrimSuffix(path.Base(name), ".sql"),
			SQL:     string(body),
		})
	}
	return out, nil
}

// Apply runs every migration that has not been recorded yet, each in its own
// transaction, and returns the versions it applied.
func Apply(ctx context.Context, pool Pool) ([]string, error) {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return nil, fmt.Errorf("migrations: bootstrap: %w", err)
	}
	pending, err := Pending(ctx, pool)
	if err != nil {
		return nil, err
	}
	applied := make([]string, 0, len(pending))
	for _, m := range pending {
		err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("migrations: apply %s: %w", m.Version, err)
		}
		applied = append(applied, m.Version)
	}
	return applied, nil
}

// Pending lists embedded migrations missing from schema_migrations.
func Pending(ctx context.Context, q db.Querier) ([]Migration, error) {
	all, err := Load()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("migrations: list applied: %w", err)
	}
	defer rows.Close()
	done := make(map[string]struct{})
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return filterPending(all, done), nil
}

func filterPending(all []Migration, done map[string]struct{}) []Migration {
	var out []Migration
	for _, m := range all {
		if _, ok := done[m.Version]; !ok {
			out = append(out, m)
		}
	}
	return out
}
