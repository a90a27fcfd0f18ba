package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"
	"github.com/vfg2006/inventory-analytics-api/infrastructure/database/postgres"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	valueSnapshotsTable = "branch_value_snapshots bvs"
)

//go:generate mockgen -source=value_snapshot.go -destination=mocks/value_snapshot.go -package=mocks
type ValueSnapshotRepository interface {
	SaveOrUpdate(ctx context.Context, snapshot *domain.BranchValueSnapshot) error
	GetByDateRange(ctx context.Context, scope domain.Scope, startDate, endDate time.Time) ([]*domain.BranchValueSnapshot, error)
	GetByDate(ctx context.Context, scope domain.Scope, date time.Time) (*domain.BranchValueSnapshot, error)
	ListScopes(ctx context.Context) ([]domain.Scope, error)
}

type valueSnapshotRepository struct {
	conn postgres.Queryer
}

func NewValueSnapshotRepository(conn postgres.Queryer) ValueSnapshotRepository {
	return &valueSnapshotRepository{
		conn: conn,
	}
}

func (r *valueSnapshotRepository) SaveOrUpdate(ctx context.Context, snapshot *domain.BranchValueSnapshot) error {
	categoriesJSON, err := json.Marshal(snapshot.Categories)
	if err != nil {
		return fmt.Errorf("erro ao serializar categorias para JSON: %w", err)
	}

	query, args, err := squirrel.StatementBuilder.
		Insert("branch_value_snapshots").
		Columns("tenant_id", "branch_id", "date", "total_value", "total_products", "low_stock_count", "categories").
		Values(
			snapshot.TenantID,
			snapshot.BranchID,
			snapshot.Date.Format(time.DateOnly),
			snapshot.TotalValue,
			snapshot.TotalProducts,
			snapshot.LowStockCount,
			categoriesJSON,
		).
		Suffix(`
			ON CONFLICT (tenant_id, branch_id, date) DO UPDATE SET
				total_value = EXCLUDED.total_value,
				total_products = EXCLUDED.total_products,
				low_stock_count = EXCLUDED.low_stock_count,
				categories = EXCLUDED.categories,
				updated_at = NOW()
		`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	if _, err = r.conn.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return fmt.Errorf("erro no banco de dados: %w (código: %s)", pqErr, pqErr.Code)
		}
		return fmt.Errorf("erro ao executar a query: %w", err)
	}

	return nil
}

func selectValueSnapshots() squirrel.SelectBuilder {
	return squirrel.
		Select(
			"bvs.id",
			"bvs.tenant_id",
			"bvs.branch_id",
			"bvs.date",
			"bvs.total_value",
			"bvs.total_products",
			"bvs.low_stock_count",
			"bvs.categories",
			"bvs.created_at",
			"bvs.updated_at",
		).
		From(valueSnapshotsTable).
		PlaceholderFormat(squirrel.Dollar)
}

func (r *valueSnapshotRepository) GetByDateRange(ctx context.Context, scope domain.Scope, startDate, endDate time.Time) ([]*domain.BranchValueSnapshot, error) {
	query, args, err := selectValueSnapshots().
		Where(squirrel.Eq{"bvs.tenant_id": scope.TenantID, "bvs.branch_id": scope.BranchID}).
		Where(squirrel.GtOrEq{"bvs.date": startDate.Format(time.DateOnly)}).
		Where(squirrel.LtOrEq{"bvs.date": endDate.Format(time.DateOnly)}).
		OrderBy("bvs.date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*domain.BranchValueSnapshot, 0)
	for rows.Next() {
		snapshot, err := scanValueSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear fechamento: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return snapshots, nil
}

func (r *valueSnapshotRepository) GetByDate(ctx context.Context, scope domain.Scope, date time.Time) (*domain.BranchValueSnapshot, error) {
	query, args, err := selectValueSnapshots().
		Where(squirrel.Eq{
			"bvs.tenant_id": scope.TenantID,
			"bvs.branch_id": scope.BranchID,
			"bvs.date":      date.Format(time.DateOnly),
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	snapshot, err := scanValueSnapshot(r.conn.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao escanear fechamento: %w", err)
	}

	return snapshot, nil
}

// ListScopes lista as filiais com catálogo cadastrado, usadas pelo fechamento diário
func (r *valueSnapshotRepository) ListScopes(ctx context.Context) ([]domain.Scope, error) {
	query, args, err := squirrel.
		Select("DISTINCT p.tenant_id", "p.branch_id").
		From(productsTable).
		OrderBy("p.tenant_id", "p.branch_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	scopes := make([]domain.Scope, 0)
	for rows.Next() {
		var scope domain.Scope
		if err := rows.Scan(&scope.TenantID, &scope.BranchID); err != nil {
			return nil, fmt.Errorf("erro ao escanear filial: %w", err)
		}
		scopes = append(scopes, scope)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return scopes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanValueSnapshot(row rowScanner) (*domain.BranchValueSnapshot, error) {
	snapshot := &domain.BranchValueSnapshot{}
	var categoriesJSON []byte

	err := row.Scan(
		&snapshot.ID,
		&snapshot.TenantID,
		&snapshot.BranchID,
		&snapshot.Date,
		&snapshot.TotalValue,
		&snapshot.TotalProducts,
		&snapshot.LowStockCount,
		&categoriesJSON,
		&snapshot.CreatedAt,
		&snapshot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if categoriesJSON != nil {
		if err := json.Unmarshal(categoriesJSON, &snapshot.Categories); err != nil {
			return nil, fmt.Errorf("erro ao deserializar JSON de categorias: %w", err)
		}
	}

	return snapshot, nil
}
