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
	productsTable = "products p"
)

//go:generate mockgen -source=product_snapshot.go -destination=mocks/product_snapshot.go -package=mocks
type ProductSnapshotRepository interface {
	GetProductSnapshot(ctx context.Context, tenantID, branchID string) ([]domain.ProductRow, error)
}

type productSnapshotRepository struct {
	conn postgres.Queryer
}

func NewProductSnapshotRepository(conn postgres.Queryer) ProductSnapshotRepository {
	return &productSnapshotRepository{
		conn: conn,
	}
}

// GetProductSnapshot lê o catálogo atual da filial. As colunas são lidas sem tipagem forte;
// a validação acontece em domain.ValidateProducts.
func (r *productSnapshotRepository) GetProductSnapshot(ctx context.Context, tenantID, branchID string) ([]domain.ProductRow, error) {
	query, args, err := squirrel.
		Select(
			"p.id",
			"p.name",
			"p.quantity_in_stock",
			"p.unit_price",
			"p.minimum_stock_level",
			"p.category",
			"p.is_variant",
			"p.variant_name",
			"p.parent_product_id",
		).
		From(productsTable).
		Where(squirrel.Eq{"p.tenant_id": tenantID, "p.branch_id": branchID}).
		OrderBy("p.name ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query de produtos: %w", err)
	}
	defer rows.Close()

	products := make([]domain.ProductRow, 0)
	for rows.Next() {
		var (
			id, name, qty, price, minimum, category, variantName, parentID sql.NullString
			isVariant                                                      sql.NullBool
		)

		if err := rows.Scan(&id, &name, &qty, &price, &minimum, &category, &isVariant, &variantName, &parentID); err != nil {
			return nil, fmt.Errorf("erro ao escanear produto: %w", err)
		}

		products = append(products, domain.ProductRow{
			ID:                nullString(id),
			Name:              nullString(name),
			QuantityInStock:   nullString(qty),
			UnitPrice:         nullString(price),
			MinimumStockLevel: nullString(minimum),
			Category:          nullString(category),
			IsVariant:         nullBool(isVariant),
			VariantName:       nullString(variantName),
			ParentProductID:   nullString(parentID),
		})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return products, nil
}
