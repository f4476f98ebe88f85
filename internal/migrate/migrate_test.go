package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "hooklog.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEmbeddedMigrationsCoverBothDialects(t *testing.T) {
	r := NewRunner(nil)
	for _, dialect := range []string{"postgres", "sqlite"} {
		files, err := r.Files(dialect)
		if err != nil {
			t.Fatalf("%s: %v", dialect, err)
		}
		if len(files) == 0 {
			t.Fatalf("%s: no migrations embedded", dialect)
		}
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	r := NewRunner(nil)
	if err := r.Apply(ctx, db, "sqlite"); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := r.Apply(ctx, db, "sqlite"); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	files, _ := r.Files("sqlite")
	if n != len(files) {
		t.Fatalf("expected %d recorded migrations, got %d", len(files), n)
	}
	if _, err := db.ExecContext(ctx, `SELECT id, request_id, author, action, from_branch, to_branch, received_at FROM events`); err != nil {
		t.Fatalf("events table missing: %v", err)
	}
}

func TestApplyOrdersFilesAndStopsOnError(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	files := fstest.MapFS{
		"sql/sqlite/0002_b.sql": {Data: []byte(`INSERT INTO t (v) VALUES ('b');`)},
		"sql/sqlite/0001_a.sql": {Data: []byte(`CREATE TABLE t (v TEXT); INSERT INTO t (v) VALUES ('a');`)},
		"sql/sqlite/0003_c.sql": {Data: []byte(`THIS IS NOT SQL`)},
		"sql/sqlite/README.md":  {Data: []byte(`ignored`)},
	}
	err := NewRunner(files).Apply(ctx, db, "sqlite")
	if err == nil {
		t.Fatalf("expected failing migration to surface")
	}
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected first two migrations applied, got %d rows", count)
	}
}

func TestApplyRejectsBadInput(t *testing.T) {
	if err := NewRunner(nil).Apply(context.Background(), nil, "sqlite"); err == nil {
		t.Fatalf("expected error for nil db")
	}
	db := openSQLite(t)
	if err := NewRunner(nil).Apply(context.Background(), db, ""); err == nil {
		t.Fatalf("expected error for empty dialect")
	}
	if err := NewRunner(nil).Apply(context.Background(), db, "oracle"); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
}
