package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cartledger/cartledger-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestTripsMigrationContainsOpenTripIndex(t *testing.T) {
	content := readMigration(t, "create_trips")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS trips",
		"CREATE UNIQUE INDEX IF NOT EXISTS trips_one_open_per_store",
		"WHERE ended_at IS NULL",
		"CREATE TABLE IF NOT EXISTS shopping_list_events",
		"FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE SET NULL",
		"DROP TABLE IF EXISTS trips",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPriceHistoryMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_price_history")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS price_history",
		"price NUMERIC(10,2) NOT NULL",
		"recorded_date DATE NOT NULL",
		"CHECK (source IN ('photo', 'check_off', 'receipt', 'backfill'))",
		"CREATE TABLE IF NOT EXISTS price_submissions",
		"user_id TEXT NULL",
		"DROP TABLE IF EXISTS price_history",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationHasUniqueNameKey(t *testing.T) {
	content := readMigration(t, "create_catalog")
	if !strings.Contains(content, "CONSTRAINT items_name_key_key UNIQUE (name_key)") {
		t.Fatalf("items name_key must be unique")
	}
}
