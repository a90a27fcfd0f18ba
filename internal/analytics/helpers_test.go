package analytics

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

// Data de referência dos testes: 10 de janeiro de 2024, meio-dia UTC
var referenceNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestAggregator() *Aggregator {
	return NewAggregator(Options{
		Now: func() time.Time { return referenceNow },
	})
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func stringPtr(s string) *string {
	return &s
}

func product(id string, qty int, price float64, min int) domain.ProductSnapshot {
	return domain.ProductSnapshot{
		ID:                id,
		Name:              "Produto " + id,
		QuantityInStock:   qty,
		UnitPrice:         dec(price),
		MinimumStockLevel: min,
	}
}

func tx(id, productID, rawType string, qty, price float64, createdAt string) domain.TransactionRecord {
	at, err := domain.ParseTimestamp(createdAt)
	if err != nil {
		panic(err)
	}

	return domain.TransactionRecord{
		ID:           id,
		ProductID:    productID,
		ProductName:  "Produto " + productID,
		Type:         domain.NormalizeTransactionType(rawType),
		RawType:      rawType,
		Quantity:     dec(qty),
		UnitPrice:    dec(price),
		HasUnitPrice: true,
		CreatedAt:    at,
	}
}
