package domain

import "time"

// Tabelas monitoradas para invalidação das métricas
const (
	TableProducts          = "products"
	TableStockTransactions = "stock_transactions"
)

var DashboardTables = []string{TableProducts, TableStockTransactions}

// ChangeEvent é o contrato do aviso de alteração enviado pelo backend
type ChangeEvent struct {
	TenantID  string    `json:"tenant_id"`
	BranchID  string    `json:"branch_id"`
	Table     string    `json:"table"`
	Operation string    `json:"operation"`
	At        time.Time `json:"at"`
}

func (e ChangeEvent) Scope() Scope {
	return Scope{TenantID: e.TenantID, BranchID: e.BranchID}
}

// Matches verifica se o evento pertence ao escopo e a uma das tabelas informadas
func (e ChangeEvent) Matches(scope Scope, tables []string) bool {
	if e.BranchID != scope.BranchID {
		return false
	}
	// Alguns gatilhos não enviam o tenant; a filial já é suficiente para o filtro
	if e.TenantID != "" && e.TenantID != scope.TenantID {
		return false
	}
	if len(tables) == 0 {
		return true
	}
	for _, table := range tables {
		if table == e.Table {
			return true
		}
	}
	return false
}
