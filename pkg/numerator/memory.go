package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	appctx "faktura/internal/core/context"
)

// Memory is an in-process Generator keyed by tenant, prefix and year.
// Used by tests and by the binaries when no database is configured.
// Numbers are sequential within a process; not durable across restarts.
type Memory struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemory creates an in-memory generator.
func NewMemory() *Memory {
	return &Memory{counters: make(map[string]int64)}
}

// GetNextNumber implements Generator.
func (m *Memory) GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error) {
	key := fmt.Sprintf("%s:%s:%d", appctx.GetTenantID(ctx), cfg.Prefix, period.Year())

	m.mu.Lock()
	m.counters[key]++
	num := m.counters[key]
	m.mu.Unlock()

	return FormatNumber(cfg, period, num), nil
}

var _ Generator = (*Memory)(nil)
