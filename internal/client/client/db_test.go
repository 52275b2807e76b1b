package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/repositories/metadata"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("tableExists query failed: %v", err)
	}
	return n > 0
}

func TestInitDatabase_CreatesSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "app.db")

	repos, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	defer repos.Close()

	for _, tbl := range []string{"goose_db_version", "metadata", "messages", "notes"} {
		if !tableExists(t, repos.DB, tbl) {
			t.Fatalf("expected table %s to exist after migrations", tbl)
		}
	}
}

func TestInitDatabase_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "app.db")

	repos, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	if err := metadata.SetString(ctx, repos.Metadata, metadata.KeyActiveCollection, "course_003"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repos.Messages.Append(ctx, models.NewMessage(models.RoleUser, "hello")); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = repos.Close()

	repos, err = InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("second InitDatabase should be idempotent, got: %v", err)
	}
	defer repos.Close()

	got, err := metadata.GetString(ctx, repos.Metadata, metadata.KeyActiveCollection)
	if err != nil || got != "course_003" {
		t.Fatalf("active collection = %q, %v", got, err)
	}
	msgs, err := repos.Messages.List(ctx, 0)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("messages = %v, %v", msgs, err)
	}
}

func TestInitDatabase_BadPath(t *testing.T) {
	t.Parallel()

	dsn := filepath.Join(t.TempDir(), "missing", "dir", "app.db")
	if _, err := InitDatabase(context.Background(), dsn); err == nil {
		t.Fatalf("expected error for unreachable path")
	}
}
