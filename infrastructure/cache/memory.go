package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

type memoryEntry struct {
	metrics   domain.DashboardMetrics
	expiresAt time.Time
}

// Memory é o cache em processo, usado quando não há Redis configurado
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (*domain.DashboardMetrics, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}

	metrics := entry.metrics.Clone()
	return &metrics, true, nil
}

// Set grava uma cópia das métricas, e Get devolve outra: quem recebe pode alterar as fatias
// sem afetar o cache. ttl <= 0 significa sem expiração.
func (m *Memory) Set(_ context.Context, key string, metrics domain.DashboardMetrics, ttl time.Duration) error {
	entry := memoryEntry{metrics: metrics.Clone()}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()

	return nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) InvalidatePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}
