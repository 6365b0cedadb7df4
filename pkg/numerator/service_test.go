package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "faktura/internal/core/context"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences upsert: one counter per
// (tenant, prefix, year) key.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
	err      error
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.err != nil {
		return &mockRow{err: m.err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.counters == nil {
		m.counters = make(map[string]int64)
	}

	key := ""
	for _, arg := range args {
		key += "|"
		switch v := arg.(type) {
		case string:
			key += v
		case int:
			key += time.Date(v, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
		}
	}
	m.counters[key]++
	return &mockRow{val: m.counters[key]}
}

func tenantCtx(tenantID string) context.Context {
	return appctx.WithActor(context.Background(), &appctx.Actor{TenantID: tenantID})
}

func TestGetNextNumber_Sequential(t *testing.T) {
	svc := New(&mockQuerier{})
	ctx := tenantCtx("tenant-1")
	period := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, DefaultConfig("INV"), period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, DefaultConfig("INV"), period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00002", num)
}

func TestGetNextNumber_IndependentPrefixes(t *testing.T) {
	svc := New(&mockQuerier{})
	ctx := tenantCtx("tenant-1")
	period := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	inv, err := svc.GetNextNumber(ctx, DefaultConfig("INV"), period)
	require.NoError(t, err)
	quo, err := svc.GetNextNumber(ctx, DefaultConfig("QUO"), period)
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-00001", inv)
	assert.Equal(t, "QUO-2026-00001", quo)
}

func TestGetNextNumber_IndependentTenants(t *testing.T) {
	svc := New(&mockQuerier{})
	period := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	first, err := svc.GetNextNumber(tenantCtx("tenant-1"), DefaultConfig("INV"), period)
	require.NoError(t, err)
	second, err := svc.GetNextNumber(tenantCtx("tenant-2"), DefaultConfig("INV"), period)
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-00001", first)
	assert.Equal(t, "INV-2026-00001", second)
}

func TestGetNextNumber_NotInitialized(t *testing.T) {
	var svc *Service
	_, err := svc.GetNextNumber(context.Background(), DefaultConfig("INV"), time.Now())
	assert.Error(t, err)
}

func TestFormatNumber(t *testing.T) {
	period := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "INV-2026-00042", FormatNumber(DefaultConfig("INV"), period, 42))

	noYear := Config{Prefix: "RCP", PadWidth: 3}
	assert.Equal(t, "RCP-007", FormatNumber(noYear, period, 7))

	zeroPad := Config{Prefix: "X", IncludeYear: true}
	assert.Equal(t, "X-2026-00001", FormatNumber(zeroPad, period, 1))
}

func TestMemoryGenerator(t *testing.T) {
	gen := NewMemory()
	ctx := tenantCtx("tenant-1")
	period := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	first, err := gen.GetNextNumber(ctx, DefaultConfig("INV"), period)
	require.NoError(t, err)
	second, err := gen.GetNextNumber(ctx, DefaultConfig("INV"), period)
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-00001", first)
	assert.Equal(t, "INV-2026-00002", second)

	// New year starts a fresh sequence.
	nextYear, err := gen.GetNextNumber(ctx, DefaultConfig("INV"), period.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "INV-2027-00001", nextYear)
}
