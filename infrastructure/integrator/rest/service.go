package rest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/vfg2006/inventory-analytics-api/infrastructure/integrator/rest/restclient"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

const (
	productColumns     = "id,name,quantity_in_stock,unit_price,minimum_stock_level,category,is_variant,variant_name,parent_product_id"
	transactionColumns = "id,product_id,type,quantity,unit_price,created_at,branch_id,products(name)"
)

// RESTIntegrator carrega catálogo e ledger de um backend REST em vez do PostgreSQL
type RESTIntegrator interface {
	GetProductSnapshot(ctx context.Context, tenantID, branchID string) ([]domain.ProductRow, error)
	GetTransactionLedger(ctx context.Context, branchID string, filter domain.LedgerFilter) ([]domain.TransactionRow, error)
}

type RESTService struct {
	Client restclient.Client
}

func New(client restclient.Client) RESTIntegrator {
	return &RESTService{
		Client: client,
	}
}

func (s *RESTService) GetProductSnapshot(ctx context.Context, tenantID, branchID string) ([]domain.ProductRow, error) {
	query := url.Values{}
	query.Set("select", productColumns)
	query.Set("tenant_id", "eq."+tenantID)
	query.Set("branch_id", "eq."+branchID)
	query.Set("order", "name.asc")

	raw, err := s.Client.Select(ctx, domain.TableProducts, query)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar produtos: %w", err)
	}

	rows := make([]domain.ProductRow, 0, len(raw))
	for i, item := range raw {
		var row domain.ProductRow
		if err := decodeRow(item, &row); err != nil {
			return nil, fmt.Errorf("erro ao decodificar produto %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// transactionRow espelha a resposta com o produto embutido (products(name))
type transactionRow struct {
	domain.TransactionRow `mapstructure:",squash"`
	Product               *struct {
		Name *string `mapstructure:"name"`
	} `mapstructure:"products"`
}

// LedgerQuery monta os parâmetros PostgREST do ledger: mais recentes primeiro, limitado
func LedgerQuery(branchID string, filter domain.LedgerFilter) url.Values {
	query := url.Values{}
	query.Set("select", transactionColumns)
	query.Set("branch_id", "eq."+branchID)
	if filter.DateFrom != nil {
		query.Add("created_at", "gte."+filter.DateFrom.Format(time.RFC3339))
	}
	if filter.DateTo != nil {
		query.Add("created_at", "lt."+filter.DateTo.AddDate(0, 0, 1).Format(time.RFC3339))
	}
	query.Set("order", "created_at.desc,id.desc")
	query.Set("limit", strconv.Itoa(filter.EffectiveLimit()))
	return query
}

func (s *RESTService) GetTransactionLedger(ctx context.Context, branchID string, filter domain.LedgerFilter) ([]domain.TransactionRow, error) {
	raw, err := s.Client.Select(ctx, domain.TableStockTransactions, LedgerQuery(branchID, filter))
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar movimentos: %w", err)
	}

	rows := make([]domain.TransactionRow, 0, len(raw))
	for i, item := range raw {
		var row transactionRow
		if err := decodeRow(item, &row); err != nil {
			return nil, fmt.Errorf("erro ao decodificar movimento %d: %w", i, err)
		}
		if row.ProductName == nil && row.Product != nil {
			row.ProductName = row.Product.Name
		}
		rows = append(rows, row.TransactionRow)
	}

	return rows, nil
}

// decodeRow converte o mapa solto da API nas linhas de domínio. Números chegam como
// json.Number e viram texto; a conversão definitiva fica na validação do domínio.
func decodeRow(input map[string]any, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
