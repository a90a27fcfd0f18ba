package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncoming TransactionType = "incoming"
	TransactionTypeOutgoing TransactionType = "outgoing"
	TransactionTypeUnknown  TransactionType = "unknown"
)

// Literais aceitos pelo backend para cada direção de movimento.
// Qualquer outro literal (adjustment, transfer, ...) é excluído das agregações e contabilizado à parte.
var transactionTypeSynonyms = map[string]TransactionType{
	"in":             TransactionTypeIncoming,
	"incoming":       TransactionTypeIncoming,
	"purchase_order": TransactionTypeIncoming,
	"purchase":       TransactionTypeIncoming,
	"receipt":        TransactionTypeIncoming,
	"return":         TransactionTypeIncoming,
	"out":            TransactionTypeOutgoing,
	"outgoing":       TransactionTypeOutgoing,
	"sales_order":    TransactionTypeOutgoing,
	"sale":           TransactionTypeOutgoing,
	"consumption":    TransactionTypeOutgoing,
}

// NormalizeTransactionType converte o literal bruto do ledger em incoming, outgoing ou unknown
func NormalizeTransactionType(raw string) TransactionType {
	if t, ok := transactionTypeSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	return TransactionTypeUnknown
}

// TransactionRecord representa um movimento de estoque já validado
type TransactionRecord struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Type         TransactionType `json:"type"`
	RawType      string          `json:"raw_type"`
	Quantity     decimal.Decimal `json:"quantity"` // sempre em valor absoluto
	UnitPrice    decimal.Decimal `json:"unit_price"`
	HasUnitPrice bool            `json:"has_unit_price"`
	CreatedAt    time.Time       `json:"created_at"`
	BranchID     string          `json:"branch_id"`
}

func (t TransactionRecord) IsIncoming() bool {
	return t.Type == TransactionTypeIncoming
}

func (t TransactionRecord) IsOutgoing() bool {
	return t.Type == TransactionTypeOutgoing
}

func (t TransactionRecord) IsRecognized() bool {
	return t.IsIncoming() || t.IsOutgoing()
}

// DefaultLedgerLimit é o teto de movimentos lidos por cálculo. Filiais com mais movimentos
// que isso na janela têm métricas aproximadas (LedgerCapReached).
const DefaultLedgerLimit = 1000

// LedgerFilter delimita a leitura do ledger. Datas nil não restringem a consulta.
type LedgerFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
}

// EffectiveLimit aplica o padrão quando o limite não foi informado
func (f LedgerFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultLedgerLimit
	}
	return f.Limit
}
