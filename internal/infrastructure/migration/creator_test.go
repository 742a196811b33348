package migration

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add job locks", "add_job_locks"},
		{"Add-Job-Locks", "add_job_locks"},
		{"ADD_JOB_LOCKS", "add_job_locks"},
		{"add__job__locks", "add_job_locks"},
		{"Backfill 2025", "backfill_2025"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersAfterExisting(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"000001_init.up.sql", "000001_init.down.sql", "000007_runs.up.sql", "000007_runs.down.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}

	mf, err := CreateMigration(dir, "add theme media index", "Index themes by media")
	require.NoError(t, err)

	assert.Equal(t, "000008", mf.Version)
	assert.Equal(t, "000008_add_theme_media_index.up.sql", filepath.Base(mf.UpPath))
	assert.Equal(t, "000008_add_theme_media_index.down.sql", filepath.Base(mf.DownPath))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Index themes by media")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)
	assert.Equal(t, "000001", mf.Version)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_create_reconcile_tables.up.sql":   {Data: []byte("--")},
		"000002_create_reconcile_tables.down.sql": {Data: []byte("--")},
		"000001_create_agency_schema.up.sql":      {Data: []byte("--")},
		"000001_create_agency_schema.down.sql":    {Data: []byte("--")},
		"README.md":                               {Data: []byte("#")},
		"subdir.up.sql/readme":                    {Data: []byte("#")},
	}

	list, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_agency_schema", "000002_create_reconcile_tables"}, list)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	list, err := ListMigrations(os.DirFS("/nonexistent/path/to/migrations"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSource_EmbeddedSchema(t *testing.T) {
	list, err := ListMigrations(Source(""))
	require.NoError(t, err)
	require.Len(t, list, 2)

	up, err := fs.ReadFile(Source(""), list[0]+".up.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(up), "UNIQUE (client_id, media_id)"))
}
