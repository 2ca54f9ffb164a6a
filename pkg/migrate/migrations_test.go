package migrate_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/centrio/centrio-backend/pkg/migrate"
)

func TestMediaAssetsMigrationContainsSchema(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_media_assets.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no media assets migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS media_assets",
		"stored_name TEXT NOT NULL UNIQUE",
		"storage_path TEXT NOT NULL UNIQUE",
		"CHECK (category IN ('image', 'video', 'audio', 'document', 'other'))",
		"ON media_assets (is_active, created_at DESC, id DESC)",
		"ON media_assets (tenant_id, is_active)",
		"ON media_assets (category, is_active)",
		"DROP TABLE IF EXISTS media_assets",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "create_things.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatalf("expected invalid filename error")
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Media Tags!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_media_tags.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration does not validate: %v", err)
	}
}

func TestMediaAssetsMigrationRunsUpAndDownOnSQLite(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	conn, err := gdb.DB()
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, migrate.Run(ctx, conn, "sqlite3", "migrations", "up"))

	_, err = conn.ExecContext(ctx, `INSERT INTO media_assets
		(id, stored_name, original_name, storage_path, public_url, mime_type, size_bytes, category, uploader_id)
		VALUES (?, 'a.png', 'a.png', '/x/a.png', 'http://h/a.png', 'image/png', 10, 'image', ?)`,
		uuid.NewString(), uuid.NewString())
	require.NoError(t, err)

	_, err = conn.ExecContext(ctx, `INSERT INTO media_assets
		(id, stored_name, original_name, storage_path, public_url, mime_type, size_bytes, category, uploader_id)
		VALUES (?, 'b.bin', 'b.bin', '/x/b.bin', 'http://h/b.bin', 'x/y', 10, 'spreadsheet', ?)`,
		uuid.NewString(), uuid.NewString())
	require.Error(t, err, "category check should reject unknown values")

	require.NoError(t, migrate.Run(ctx, conn, "sqlite3", "migrations", "reset"))
	var count int
	err = conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='media_assets'`).Scan(&count)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestGooseDialect(t *testing.T) {
	if got := migrate.GooseDialect("sqlite"); got != "sqlite3" {
		t.Fatalf("expected sqlite3, got %s", got)
	}
	if got := migrate.GooseDialect("postgres"); got != "postgres" {
		t.Fatalf("expected postgres, got %s", got)
	}
}

func TestCreateSQLMigrationBumpsPastNewestVersion(t *testing.T) {
	dir := t.TempDir()
	future := "29991231235959_add_media_tags.sql"
	require.NoError(t, os.WriteFile(filepath.Join(dir, future), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	first, err := migrate.CreateSQLMigration(dir, "index media tags")
	require.NoError(t, err)
	require.Equal(t, "30000101000000_index_media_tags.sql", filepath.Base(first))

	second, err := migrate.CreateSQLMigration(dir, "index media tags")
	require.NoError(t, err)
	require.Equal(t, "30000101000001_index_media_tags.sql", filepath.Base(second))

	require.NoError(t, migrate.ValidateDir(dir))
}

func TestCreateSQLMigrationRejectsUnusableNames(t *testing.T) {
	dir := t.TempDir()
	_, err := migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
	_, err = migrate.CreateSQLMigration(dir, strings.Repeat("media_", 20))
	require.Error(t, err)
	_, err = migrate.CreateSQLMigration("", "media")
	require.Error(t, err)
}

func TestValidateDirRejectsBrokenBodies(t *testing.T) {
	cases := map[string]string{
		"missing down":       "-- +goose Up\nSELECT 1;\n",
		"down before up":     "-- +goose Down\nSELECT 1;\n-- +goose Up\nSELECT 1;\n",
		"unterminated block": "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n",
		"stray end":          "-- +goose Up\n-- +goose StatementEnd\n-- +goose Down\n",
		"nested begin":       "-- +goose Up\n-- +goose StatementBegin\n-- +goose StatementBegin\n-- +goose StatementEnd\n-- +goose Down\n",
		"postgres cast":      "-- +goose Up\nUPDATE media_assets SET size_bytes = '1'::bigint;\n-- +goose Down\n",
		"jsonb column":       "-- +goose Up\nALTER TABLE media_assets ADD COLUMN tags JSONB;\n-- +goose Down\n",
		"timestamptz column": "-- +goose Up\nALTER TABLE media_assets ADD COLUMN purged_at timestamptz;\n-- +goose Down\n",
		"uuid default":       "-- +goose Up\nALTER TABLE media_assets ALTER COLUMN id SET DEFAULT gen_random_uuid();\n-- +goose Down\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_media_change.sql"), []byte(body), 0o644))
			require.Error(t, migrate.ValidateDir(dir))
		})
	}
}

func TestValidateDirIgnoresPostgresOnlySyntaxInComments(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\n-- do not use '1'::bigint here\nALTER TABLE media_assets ADD COLUMN tags TEXT;\n-- +goose StatementEnd\n\n-- +goose Down\n-- +goose StatementBegin\nALTER TABLE media_assets DROP COLUMN tags;\n-- +goose StatementEnd\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_add_media_tags.sql"), []byte(body), 0o644))
	require.NoError(t, migrate.ValidateDir(dir))
}

func TestValidateDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\n-- +goose Down\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_a.sql"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_b.sql"), body, 0o644))
	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate migration version")
}
