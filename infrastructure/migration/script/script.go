// Package script cria o schema usado pelo serviço: catálogo, ledger de movimentos,
// fechamentos diários e os gatilhos que publicam alterações em inventory_changes.
package script

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Migration é um passo idempotente do schema
type Migration struct {
	Name      string
	Statement string
}

const createProducts = `
CREATE TABLE IF NOT EXISTS products (
	id                  TEXT PRIMARY KEY,
	tenant_id           TEXT NOT NULL,
	branch_id           TEXT NOT NULL,
	name                TEXT,
	category            TEXT,
	quantity_in_stock   INTEGER NOT NULL DEFAULT 0,
	unit_price          NUMERIC(14, 4) NOT NULL DEFAULT 0,
	minimum_stock_level INTEGER NOT NULL DEFAULT 0,
	is_variant          BOOLEAN NOT NULL DEFAULT FALSE,
	variant_name        TEXT,
	parent_product_id   TEXT REFERENCES products (id) ON DELETE SET NULL,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const createStockTransactions = `
CREATE TABLE IF NOT EXISTS stock_transactions (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT,
	branch_id    TEXT NOT NULL,
	product_id   TEXT REFERENCES products (id) ON DELETE SET NULL,
	product_name TEXT,
	type         TEXT NOT NULL,
	quantity     NUMERIC(14, 4) NOT NULL,
	unit_price   NUMERIC(14, 4),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const createBranchValueSnapshots = `
CREATE TABLE IF NOT EXISTS branch_value_snapshots (
	id              BIGSERIAL PRIMARY KEY,
	tenant_id       TEXT NOT NULL,
	branch_id       TEXT NOT NULL,
	date            DATE NOT NULL,
	total_value     NUMERIC(18, 4) NOT NULL,
	total_products  INTEGER NOT NULL DEFAULT 0,
	low_stock_count INTEGER NOT NULL DEFAULT 0,
	categories      JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (tenant_id, branch_id, date)
)`

// O payload segue o formato de domain.ChangeEvent
const createNotifyFunction = `
CREATE OR REPLACE FUNCTION notify_inventory_change() RETURNS TRIGGER AS $$
DECLARE
	rec RECORD;
BEGIN
	IF TG_OP = 'DELETE' THEN
		rec := OLD;
	ELSE
		rec := NEW;
	END IF;

	PERFORM pg_notify(%s, json_build_object(
		'tenant_id', rec.tenant_id,
		'branch_id', rec.branch_id,
		'table', TG_TABLE_NAME,
		'operation', TG_OP,
		'at', NOW()
	)::text);

	RETURN rec;
END;
$$ LANGUAGE plpgsql`

func triggerFor(table string) string {
	return fmt.Sprintf(`
DROP TRIGGER IF EXISTS %[1]s_notify_change ON %[1]s;
CREATE TRIGGER %[1]s_notify_change
	AFTER INSERT OR UPDATE OR DELETE ON %[1]s
	FOR EACH ROW EXECUTE FUNCTION notify_inventory_change()`, table)
}

// Migrations lista os passos na ordem de aplicação. channel é o canal do NOTIFY.
func Migrations(channel string) []Migration {
	return []Migration{
		{Name: "create_products", Statement: createProducts},
		{Name: "create_stock_transactions", Statement: createStockTransactions},
		{Name: "create_branch_value_snapshots", Statement: createBranchValueSnapshots},
		{Name: "index_products_branch", Statement: `CREATE INDEX IF NOT EXISTS idx_products_tenant_branch ON products (tenant_id, branch_id)`},
		{Name: "index_stock_transactions_branch", Statement: `CREATE INDEX IF NOT EXISTS idx_stock_transactions_branch_created ON stock_transactions (branch_id, created_at DESC, id DESC)`},
		{Name: "create_notify_function", Statement: fmt.Sprintf(createNotifyFunction, quoteLiteral(channel))},
		{Name: "trigger_products", Statement: triggerFor("products")},
		{Name: "trigger_stock_transactions", Statement: triggerFor("stock_transactions")},
	}
}

// Transactor é satisfeito por *postgres.Connection
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(*sql.Tx) error) error
}

// Apply executa todas as migrações numa única transação
func Apply(ctx context.Context, db Transactor, channel string) error {
	startTime := time.Now()
	migrations := Migrations(channel)

	err := db.RunInTransaction(ctx, func(tx *sql.Tx) error {
		for _, migration := range migrations {
			if _, err := tx.ExecContext(ctx, migration.Statement); err != nil {
				return fmt.Errorf("erro na migração %s: %w", migration.Name, err)
			}
			logrus.WithField("migration", migration.Name).Debug("Migração aplicada")
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"migrations": len(migrations),
		"duration":   time.Since(startTime).String(),
	}).Info("Schema aplicado com sucesso")

	return nil
}

func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
