package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mensahub/canteen-backend/pkg/migrate"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders_and_order_lines.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CHECK (status IN ('pending', 'confirmed', 'preparing', 'ready', 'completed', 'cancelled'))",
		"CHECK (payment_status IN ('unpaid', 'paid', 'refunded'))",
		"CREATE TABLE IF NOT EXISTS order_lines",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (qty > 0)",
		"DROP TABLE IF EXISTS order_lines",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
