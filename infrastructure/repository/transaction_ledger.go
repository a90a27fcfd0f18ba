package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/inventory-analytics-api/infrastructure/database/postgres"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

const (
	stockTransactionsTable = "stock_transactions st"
)

//go:generate mockgen -source=transaction_ledger.go -destination=mocks/transaction_ledger.go -package=mocks
type TransactionLedgerRepository interface {
	GetTransactionLedger(ctx context.Context, branchID string, filter domain.LedgerFilter) ([]domain.TransactionRow, error)
}

type transactionLedgerRepository struct {
	conn postgres.Queryer
}

func NewTransactionLedgerRepository(conn postgres.Queryer) TransactionLedgerRepository {
	return &transactionLedgerRepository{
		conn: conn,
	}
}

// buildLedgerQuery monta a consulta do ledger: mais recentes primeiro, limitada.
// DateTo é inclusivo (dia inteiro), por isso a comparação é com o dia seguinte.
func buildLedgerQuery(branchID string, filter domain.LedgerFilter) (string, []interface{}, error) {
	builder := squirrel.
		Select(
			"st.id",
			"st.product_id",
			"COALESCE(st.product_name, p.name)",
			"st.type",
			"st.quantity",
			"st.unit_price",
			"st.created_at",
			"st.branch_id",
		).
		From(stockTransactionsTable).
		LeftJoin("products p ON p.id = st.product_id").
		Where(squirrel.Eq{"st.branch_id": branchID})

	if filter.DateFrom != nil {
		builder = builder.Where(squirrel.GtOrEq{"st.created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		builder = builder.Where(squirrel.Lt{"st.created_at": filter.DateTo.AddDate(0, 0, 1)})
	}

	return builder.
		OrderBy("st.created_at DESC", "st.id DESC").
		Limit(uint64(filter.EffectiveLimit())).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func (r *transactionLedgerRepository) GetTransactionLedger(ctx context.Context, branchID string, filter domain.LedgerFilter) ([]domain.TransactionRow, error) {
	query, args, err := buildLedgerQuery(branchID, filter)
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query do ledger: %w", err)
	}
	defer rows.Close()

	ledger := make([]domain.TransactionRow, 0, filter.EffectiveLimit())
	for rows.Next() {
		var id, productID, productName, txType, quantity, unitPrice, createdAt, branch sql.NullString

		if err := rows.Scan(&id, &productID, &productName, &txType, &quantity, &unitPrice, &createdAt, &branch); err != nil {
			return nil, fmt.Errorf("erro ao escanear movimento: %w", err)
		}

		ledger = append(ledger, domain.TransactionRow{
			ID:          nullString(id),
			ProductID:   nullString(productID),
			ProductName: nullString(productName),
			Type:        nullString(txType),
			Quantity:    nullString(quantity),
			UnitPrice:   nullString(unitPrice),
			CreatedAt:   nullString(createdAt),
			BranchID:    nullString(branch),
		})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return ledger, nil
}
