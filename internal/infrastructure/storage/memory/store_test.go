package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faktura/internal/core/apperror"
	appctx "faktura/internal/core/context"
	"faktura/internal/core/id"
	"faktura/internal/core/types"
	"faktura/internal/domain/audit"
	"faktura/internal/domain/billing"
)

func tenantCtx(tenantID string) context.Context {
	return appctx.WithActor(context.Background(), &appctx.Actor{
		ActorID:  "user-1",
		TenantID: tenantID,
	})
}

func doc(tenantID, number string) *billing.Document {
	d := billing.NewDocument(tenantID, billing.TypeInvoice, "cust-1")
	d.Number = number
	d.AddItem(id.New(), "Service", types.MustMoney("100.00"), 1, types.Zero())
	return d
}

func TestCreate_DuplicateNumberSameTenant(t *testing.T) {
	store := NewStore()
	ctx := tenantCtx("tenant-1")

	require.NoError(t, store.Create(ctx, doc("tenant-1", "INV-1")))

	err := store.Create(ctx, doc("tenant-1", "INV-1"))
	require.Error(t, err)
	assert.True(t, apperror.IsDuplicateNumber(err))
}

func TestCreate_SameNumberDifferentTenant(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.Create(tenantCtx("tenant-1"), doc("tenant-1", "INV-1")))
	assert.NoError(t, store.Create(tenantCtx("tenant-2"), doc("tenant-2", "INV-1")))
}

func TestGetByID_TenantScoped(t *testing.T) {
	store := NewStore()
	d := doc("tenant-1", "INV-1")
	require.NoError(t, store.Create(tenantCtx("tenant-1"), d))

	got, err := store.GetByID(tenantCtx("tenant-1"), d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Number, got.Number)

	_, err = store.GetByID(tenantCtx("tenant-2"), d.ID)
	assert.True(t, apperror.IsNotFound(err))

	// Empty tenant (system jobs) sees everything.
	_, err = store.GetByID(context.Background(), d.ID)
	assert.NoError(t, err)
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := NewStore()
	ctx := tenantCtx("tenant-1")
	d := doc("tenant-1", "INV-1")
	require.NoError(t, store.Create(ctx, d))

	got, err := store.GetByID(ctx, d.ID)
	require.NoError(t, err)
	got.Items[0].Name = "mutated"
	got.Number = "INV-HACKED"

	again, err := store.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Service", again.Items[0].Name)
	assert.Equal(t, "INV-1", again.Number)
}

func TestList_FiltersAndPaging(t *testing.T) {
	store := NewStore()
	ctx := tenantCtx("tenant-1")

	for _, number := range []string{"INV-1", "INV-2", "INV-3"} {
		require.NoError(t, store.Create(ctx, doc("tenant-1", number)))
	}
	settled := doc("tenant-1", "INV-4")
	require.NoError(t, settled.RecordPayment("card", types.MustMoney("100.00")))
	require.NoError(t, store.Create(ctx, settled))

	pending := billing.StatusPending
	got, err := store.List(ctx, billing.ListFilter{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// Ordered by number, paged.
	got, err = store.List(ctx, billing.ListFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "INV-2", got[0].Number)
	assert.Equal(t, "INV-3", got[1].Number)
}

func TestList_TemplateFilter(t *testing.T) {
	store := NewStore()
	ctx := tenantCtx("tenant-1")
	now := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	due := doc("tenant-1", "INV-1")
	require.NoError(t, due.SetRecurrence(billing.FrequencyMonthly, now.AddDate(0, 0, -1)))
	require.NoError(t, store.Create(ctx, due))

	future := doc("tenant-1", "INV-2")
	require.NoError(t, future.SetRecurrence(billing.FrequencyMonthly, now.AddDate(0, 1, 0)))
	require.NoError(t, store.Create(ctx, future))

	plain := doc("tenant-1", "INV-3")
	require.NoError(t, store.Create(ctx, plain))

	got, err := store.List(ctx, billing.TemplateFilter(now))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "INV-1", got[0].Number)
}

func TestAudit_AppendAndQuery(t *testing.T) {
	store := NewStore()
	ctx := tenantCtx("tenant-1")

	docID := id.New()
	entry := audit.NewEntry(ctx, audit.ActionCreate, "invoice", docID, "INV-1", "document created")
	entryID, err := store.Append(ctx, entry)
	require.NoError(t, err)
	assert.False(t, id.IsNil(entryID))

	entries, err := store.Query(ctx, audit.Filter{DocumentNumber: "INV-1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionCreate, entries[0].Action)
	assert.Equal(t, "user-1", entries[0].ActorID)
}

func TestAudit_TenantScopedQuery(t *testing.T) {
	store := NewStore()

	e1 := audit.NewEntry(tenantCtx("tenant-1"), audit.ActionCreate, "invoice", id.New(), "INV-1", "")
	_, err := store.Append(tenantCtx("tenant-1"), e1)
	require.NoError(t, err)

	e2 := audit.NewEntry(tenantCtx("tenant-2"), audit.ActionCreate, "invoice", id.New(), "INV-1", "")
	_, err = store.Append(tenantCtx("tenant-2"), e2)
	require.NoError(t, err)

	entries, err := store.Query(tenantCtx("tenant-1"), audit.Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	all, err := store.Query(context.Background(), audit.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAudit_NewestFirst(t *testing.T) {
	store := NewStore()
	ctx := tenantCtx("tenant-1")

	older := audit.NewEntry(ctx, audit.ActionCreate, "invoice", id.New(), "INV-1", "")
	older.Date = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	newer := audit.NewEntry(ctx, audit.ActionUpdate, "invoice", id.New(), "INV-2", "")
	newer.Date = time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.Append(ctx, older)
	require.NoError(t, err)
	_, err = store.Append(ctx, newer)
	require.NoError(t, err)

	entries, err := store.Query(ctx, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "INV-2", entries[0].DocumentNumber)
}
