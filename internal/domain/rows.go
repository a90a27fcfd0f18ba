package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// As linhas chegam do banco ou da API REST sem tipagem forte. Todo campo é opcional aqui
// e só vira entidade de domínio depois de passar por ToSnapshot / ToRecord.

var (
	ErrInvalidRow       = errors.New("invalid row")
	ErrMissingID        = fmt.Errorf("%w: missing id", ErrInvalidRow)
	ErrMissingCreatedAt = fmt.Errorf("%w: missing created_at", ErrInvalidRow)
)

type ProductRow struct {
	ID                *string `mapstructure:"id"`
	Name              *string `mapstructure:"name"`
	QuantityInStock   *string `mapstructure:"quantity_in_stock"`
	UnitPrice         *string `mapstructure:"unit_price"`
	MinimumStockLevel *string `mapstructure:"minimum_stock_level"`
	Category          *string `mapstructure:"category"`
	IsVariant         *bool   `mapstructure:"is_variant"`
	VariantName       *string `mapstructure:"variant_name"`
	ParentProductID   *string `mapstructure:"parent_product_id"`
}

type TransactionRow struct {
	ID          *string `mapstructure:"id"`
	ProductID   *string `mapstructure:"product_id"`
	ProductName *string `mapstructure:"product_name"`
	Type        *string `mapstructure:"type"`
	Quantity    *string `mapstructure:"quantity"`
	UnitPrice   *string `mapstructure:"unit_price"`
	CreatedAt   *string `mapstructure:"created_at"`
	BranchID    *string `mapstructure:"branch_id"`
}

// RowError descreve uma linha rejeitada na fronteira de validação
type RowError struct {
	Index int
	ID    string
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d (id=%q): %v", e.Index, e.ID, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// ToSnapshot valida a linha do catálogo. Campos numéricos ausentes ou inválidos viram 0.
func (r ProductRow) ToSnapshot() (ProductSnapshot, error) {
	id := trimmed(r.ID)
	if id == "" {
		return ProductSnapshot{}, ErrMissingID
	}

	name := trimmed(r.Name)
	if name == "" {
		name = UnknownProductLabel
	}

	return ProductSnapshot{
		ID:                id,
		Name:              name,
		QuantityInStock:   nonNegativeInt(r.QuantityInStock),
		UnitPrice:         nonNegativeDecimal(r.UnitPrice),
		MinimumStockLevel: nonNegativeInt(r.MinimumStockLevel),
		Category:          optional(r.Category),
		IsVariant:         r.IsVariant != nil && *r.IsVariant,
		VariantName:       optional(r.VariantName),
		ParentProductID:   optional(r.ParentProductID),
	}, nil
}

// ToRecord valida a linha do ledger. A quantidade é guardada em valor absoluto e o preço
// histórico ausente continua ausente (HasUnitPrice=false) para não mascarar a reconstrução.
func (r TransactionRow) ToRecord() (TransactionRecord, error) {
	id := trimmed(r.ID)
	if id == "" {
		return TransactionRecord{}, ErrMissingID
	}

	createdAt, err := ParseTimestamp(trimmed(r.CreatedAt))
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("%w: created_at: %v", ErrInvalidRow, err)
	}

	name := trimmed(r.ProductName)
	if name == "" {
		name = UnknownProductLabel
	}

	rawType := trimmed(r.Type)
	record := TransactionRecord{
		ID:          id,
		ProductID:   trimmed(r.ProductID),
		ProductName: name,
		Type:        NormalizeTransactionType(rawType),
		RawType:     rawType,
		Quantity:    parseDecimal(r.Quantity).Abs(),
		CreatedAt:   createdAt,
		BranchID:    trimmed(r.BranchID),
	}

	if price, ok := parseOptionalDecimal(r.UnitPrice); ok {
		record.UnitPrice = price
		record.HasUnitPrice = true
	}

	return record, nil
}

// ValidateProducts converte as linhas válidas e devolve as rejeitadas separadamente
func ValidateProducts(rows []ProductRow) ([]ProductSnapshot, []RowError) {
	products := make([]ProductSnapshot, 0, len(rows))
	var rejected []RowError

	for i, row := range rows {
		product, err := row.ToSnapshot()
		if err != nil {
			rejected = append(rejected, RowError{Index: i, ID: trimmed(row.ID), Err: err})
			continue
		}
		products = append(products, product)
	}

	return products, rejected
}

// ValidateLedger converte as linhas válidas do ledger preservando a ordem recebida
func ValidateLedger(rows []TransactionRow) ([]TransactionRecord, []RowError) {
	records := make([]TransactionRecord, 0, len(rows))
	var rejected []RowError

	for i, row := range rows {
		record, err := row.ToRecord()
		if err != nil {
			rejected = append(rejected, RowError{Index: i, ID: trimmed(row.ID), Err: err})
			continue
		}
		records = append(records, record)
	}

	return records, rejected
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999",
	time.DateOnly,
}

// ParseTimestamp aceita os formatos usados pelo Postgres e pela API REST. Sem fuso, assume UTC.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, ErrMissingCreatedAt
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported timestamp %q", value)
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func optional(value *string) *string {
	v := trimmed(value)
	if v == "" {
		return nil
	}
	return &v
}

func parseOptionalDecimal(value *string) (decimal.Decimal, bool) {
	v := trimmed(value)
	if v == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func parseDecimal(value *string) decimal.Decimal {
	d, _ := parseOptionalDecimal(value)
	return d
}

func nonNegativeDecimal(value *string) decimal.Decimal {
	d := parseDecimal(value)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func nonNegativeInt(value *string) int {
	n := int(parseDecimal(value).IntPart())
	if n < 0 {
		return 0
	}
	return n
}
