package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fornihq/forni-backend/pkg/migrate"
)

func TestInitMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE surplus_bags",
		"CHECK (quantity_available >= 0)",
		"CHECK (rating BETWEEN 1 AND 5)",
		"CREATE UNIQUE INDEX idx_reviews_customer_bakery_bag ON reviews (customer_id, bakery_id, surplus_bag_id)",
		"ON DELETE CASCADE",
		"DROP TABLE IF EXISTS surplus_bags",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
