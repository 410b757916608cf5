package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	t.Run("writes up and down pair", func(t *testing.T) {
		dir := t.TempDir()

		mf, err := CreateMigration(dir, "Add payment reference index")

		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(mf.UpPath, "_add_payment_reference_index.up.sql"))
		assert.True(t, strings.HasSuffix(mf.DownPath, "_add_payment_reference_index.down.sql"))

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "Add payment reference index")

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "rollback")
	})

	t.Run("creates the directory when missing", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "migrations")

		_, err := CreateMigration(dir, "init")

		require.NoError(t, err)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "add_payments_table", sanitizeName("Add Payments Table"))
	assert.Equal(t, "add_payments_table", sanitizeName("add--payments__table"))
	assert.Equal(t, "add_payments", sanitizeName("  add payments  "))
	assert.Equal(t, "v2_schema", sanitizeName("V2 Schema!!"))
}

func TestListMigrations(t *testing.T) {
	t.Run("lists up migrations without suffix", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"20260101000001_init.up.sql",
			"20260101000001_init.down.sql",
			"20260102000001_indexes.up.sql",
			"notes.txt",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0644))
		}

		migrations, err := ListMigrations(dir)

		require.NoError(t, err)
		assert.Equal(t, []string{"20260101000001_init", "20260102000001_indexes"}, migrations)
	})

	t.Run("missing directory yields empty list", func(t *testing.T) {
		migrations, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))

		require.NoError(t, err)
		assert.Empty(t, migrations)
	})
}
