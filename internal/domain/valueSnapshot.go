package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BranchValueSnapshot é o fechamento diário gravado do valor do estoque de uma filial
type BranchValueSnapshot struct {
	ID            int64            `json:"id"`
	TenantID      string           `json:"tenant_id"`
	BranchID      string           `json:"branch_id"`
	Date          time.Time        `json:"date"`
	TotalValue    decimal.Decimal  `json:"total_value"`
	TotalProducts int              `json:"total_products"`
	LowStockCount int              `json:"low_stock_count"`
	Categories    []CategoryRollup `json:"categories"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
