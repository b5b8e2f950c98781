package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cartledger/cartledger-backend/pkg/config"
)

func TestGooseDialect(t *testing.T) {
	require.Equal(t, "sqlite3", gooseDialect(config.DriverSQLite))
	require.Equal(t, "postgres", gooseDialect(config.DriverPostgres))
	require.Equal(t, "postgres", gooseDialect(""))
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Receipt Source!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_receipt_source.sql"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "-- +goose Up")
	require.NoError(t, ValidateDir(dir))
}

func TestCreateSQLMigrationOrdersAfterExistingVersions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301090300_create_price_history.sql"),
		[]byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	skewed := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	path, err := createSQLMigrationAt(dir, "add sale flag", skewed)
	require.NoError(t, err)
	require.Equal(t, "20260301090301_add_sale_flag.sql", filepath.Base(path))

	_, err = createSQLMigrationAt(dir, "Add Sale Flag", skewed)
	require.ErrorContains(t, err, "already exists")

	_, err = createSQLMigrationAt(dir, "!!!", skewed)
	require.Error(t, err)
	require.NoError(t, ValidateDir(dir))
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, ValidateDir(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, ValidateDir(dir))
}
