package domain

import "github.com/shopspring/decimal"

func init() {
	// Valores monetários saem como número no JSON, não como string
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductSnapshot representa o estado atual de um produto no catálogo da filial
type ProductSnapshot struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	QuantityInStock   int             `json:"quantity_in_stock"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	MinimumStockLevel int             `json:"minimum_stock_level"`
	Category          *string         `json:"category"`
	IsVariant         bool            `json:"is_variant"`
	VariantName       *string         `json:"variant_name"`
	ParentProductID   *string         `json:"parent_product_id"`
}

// StockValue retorna quantidade * preço unitário
func (p ProductSnapshot) StockValue() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.QuantityInStock)))
}

// IsLowStock aplica o predicado de estoque baixo (mínimo configurado e quantidade <= mínimo)
func (p ProductSnapshot) IsLowStock() bool {
	return p.MinimumStockLevel > 0 && p.QuantityInStock <= p.MinimumStockLevel
}

// CategoryLabel retorna a categoria ou "Uncategorized" quando ausente
func (p ProductSnapshot) CategoryLabel() string {
	if p.Category == nil || *p.Category == "" {
		return UncategorizedLabel
	}
	return *p.Category
}

const (
	UnknownProductLabel = "Unknown Product"
	UncategorizedLabel  = "Uncategorized"
)
