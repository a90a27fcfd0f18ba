package dashboarding

import (
	"strings"
	"sync"

	"github.com/vfg2006/inventory-analytics-api/infrastructure/cache"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

// writeGuard ordena as gravações de métricas no cache deste processo. Cada cálculo recebe um
// ticket crescente antes de chamar os loaders; o resultado só é gravado se nenhum cálculo
// iniciado depois já gravou a mesma chave e se o escopo não foi invalidado depois do início.
type writeGuard struct {
	mu          sync.Mutex
	issued      uint64
	stored      map[string]uint64
	invalidated map[domain.Scope]uint64
}

func newWriteGuard() *writeGuard {
	return &writeGuard{
		stored:      make(map[string]uint64),
		invalidated: make(map[domain.Scope]uint64),
	}
}

func (g *writeGuard) begin() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	return g.issued
}

// commit executa write quando o ticket ainda é o mais novo para a chave. O lock fica preso
// durante a gravação para que duas gravações da mesma chave não se cruzem.
func (g *writeGuard) commit(scope domain.Scope, key string, ticket uint64, write func() error) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ticket <= g.stored[key] || ticket <= g.invalidated[scope] {
		return false, nil
	}

	if err := write(); err != nil {
		return false, err
	}
	g.stored[key] = ticket
	return true, nil
}

// invalidate descarta as gravações de todos os cálculos do escopo já iniciados
func (g *writeGuard) invalidate(scope domain.Scope) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.invalidated[scope] = g.issued

	prefix := cache.ScopePrefix(scope)
	for key := range g.stored {
		if strings.HasPrefix(key, prefix) {
			delete(g.stored, key)
		}
	}
}
