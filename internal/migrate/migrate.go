package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed sql/*/*.sql
var embedded embed.FS

// Runner applies the ordered .sql files under sql/<dialect>/. Applied file
// names are recorded in schema_migrations so a file runs at most once.
type Runner struct {
	FS fs.FS
}

func NewRunner(files fs.FS) *Runner {
	if files == nil {
		files = embedded
	}
	return &Runner{FS: files}
}

func (r *Runner) Apply(ctx context.Context, db *sql.DB, dialect string) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	dialect = strings.ToLower(strings.TrimSpace(dialect))
	if dialect == "" {
		return fmt.Errorf("empty dialect")
	}
	files, err := r.Files(dialect)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	for _, p := range files {
		name := path.Base(p)
		if _, ok := applied[name]; ok {
			continue
		}
		sqlBytes, err := fs.ReadFile(r.FS, p)
		if err != nil {
			return err
		}
		if err := applyOne(ctx, db, dialect, name, string(sqlBytes)); err != nil {
			return fmt.Errorf("apply %s: %w", p, err)
		}
	}
	return nil
}

// Files lists migration paths for dialect in apply order.
func (r *Runner) Files(dialect string) ([]string, error) {
	base := path.Join("sql", dialect)
	entries, err := fs.ReadDir(r.FS, base)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		files = append(files, path.Join(base, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = struct{}{}
	}
	return out, rows.Err()
}

func applyOne(ctx context.Context, db *sql.DB, dialect, name, body string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return err
	}
	insert := `INSERT INTO schema_migrations (name) VALUES (?)`
	if dialect == "postgres" {
		insert = `INSERT INTO schema_migrations (name) VALUES ($1)`
	}
	if _, err := tx.ExecContext(ctx, insert, name); err != nil {
		return err
	}
	return tx.Commit()
}
