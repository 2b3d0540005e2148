package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	t.Run("writes a versioned up and down pair", func(t *testing.T) {
		dir := t.TempDir()

		mf, err := CreateMigration(dir, "Add roll settings gap default", "default 0.125in gap")
		require.NoError(t, err)

		assert.Len(t, mf.Version, 14) // YYYYMMDDHHMMSS
		assert.Equal(t, "add_roll_settings_gap_default", mf.Name)
		assert.FileExists(t, mf.UpPath)
		assert.FileExists(t, mf.DownPath)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "add_roll_settings_gap_default")
		assert.Contains(t, string(up), "default 0.125in gap")
	})

	t.Run("creates the directory when missing", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "migrations")

		_, err := CreateMigration(dir, "create gangsheet tables", "")
		require.NoError(t, err)
		assert.DirExists(t, dir)
	})

	t.Run("rejects a name with no usable characters", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "")
		require.Error(t, err)
	})
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Add roll settings gap default", "add_roll_settings_gap_default"},
		{"drop-unit-failures--index", "drop_unit_failures_index"},
		{"  widen artifact_keys  ", "widen_artifact_keys"},
		{"v2", "v2"},
		{"***", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), "name %q", tt.in)
	}
}

func TestListMigrations(t *testing.T) {
	t.Run("returns up/down pairs sorted by version", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"20260512093000_create_gangsheet_tables.up.sql",
			"20260512093000_create_gangsheet_tables.down.sql",
			"20260101000000_bootstrap.up.sql",
			"20260101000000_bootstrap.down.sql",
			"notes.txt",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--\n"), 0644))
		}

		names, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"20260101000000_bootstrap",
			"20260512093000_create_gangsheet_tables",
		}, names)
	})

	t.Run("missing directory lists empty", func(t *testing.T) {
		names, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}
