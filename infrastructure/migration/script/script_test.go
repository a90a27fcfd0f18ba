package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrations(t *testing.T) {
	migrations := Migrations("inventory_changes")

	names := make([]string, 0, len(migrations))
	for _, migration := range migrations {
		names = append(names, migration.Name)
		assert.NotEmpty(t, strings.TrimSpace(migration.Statement), migration.Name)
	}

	assert.Equal(t, "create_products", names[0])
	assert.Contains(t, names, "trigger_stock_transactions")

	var notify string
	for _, migration := range migrations {
		if migration.Name == "create_notify_function" {
			notify = migration.Statement
		}
	}
	assert.Contains(t, notify, "pg_notify('inventory_changes'")
	assert.Contains(t, notify, "'branch_id', rec.branch_id")
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'canal'", quoteLiteral("canal"))
	assert.Equal(t, "'o''brien'", quoteLiteral("o'brien"))
}
