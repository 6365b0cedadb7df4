package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faktura/internal/core/apperror"
	"faktura/internal/core/clock"
	appctx "faktura/internal/core/context"
	"faktura/internal/core/id"
	"faktura/internal/core/types"
	"faktura/internal/domain/audit"
	"faktura/internal/domain/billing"
	"faktura/internal/infrastructure/storage/memory"
	"faktura/pkg/numerator"
)

func testContext(tenantID string) context.Context {
	return appctx.WithActor(context.Background(), &appctx.Actor{
		ActorID:   "user-1",
		ActorName: "Test Operator",
		TenantID:  tenantID,
	})
}

func newService(t *testing.T) (*billing.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewFixed(time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC))
	svc := billing.NewService(store, store, numerator.NewMemory(), clk)
	return svc, store
}

func newInvoice(tenantID string) *billing.Document {
	doc := billing.NewDocument(tenantID, billing.TypeInvoice, "cust-1")
	doc.AddItem(id.New(), "Subscription", types.MustMoney("100.00"), 1, types.Zero())
	return doc
}

func TestServiceCreate_AssignsNumber(t *testing.T) {
	svc, _ := newService(t)
	ctx := testContext("tenant-1")

	doc := newInvoice("tenant-1")
	require.NoError(t, svc.Create(ctx, doc))
	assert.Equal(t, "INV-2026-00001", doc.Number)

	second := newInvoice("tenant-1")
	require.NoError(t, svc.Create(ctx, second))
	assert.Equal(t, "INV-2026-00002", second.Number)
}

func TestServiceCreate_DuplicateNumber(t *testing.T) {
	svc, _ := newService(t)
	ctx := testContext("tenant-1")

	doc := newInvoice("tenant-1")
	doc.Number = "INV-2026-00042"
	require.NoError(t, svc.Create(ctx, doc))

	dup := newInvoice("tenant-1")
	dup.Number = "INV-2026-00042"
	err := svc.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, apperror.IsDuplicateNumber(err))
}

func TestServiceCreate_SameNumberDifferentTenants(t *testing.T) {
	svc, _ := newService(t)

	doc := newInvoice("tenant-1")
	doc.Number = "INV-2026-00001"
	require.NoError(t, svc.Create(testContext("tenant-1"), doc))

	other := newInvoice("tenant-2")
	other.Number = "INV-2026-00001"
	assert.NoError(t, svc.Create(testContext("tenant-2"), other))
}

func TestServiceCreate_WritesAudit(t *testing.T) {
	svc, store := newService(t)
	ctx := testContext("tenant-1")

	doc := newInvoice("tenant-1")
	require.NoError(t, svc.Create(ctx, doc))

	entries, err := store.Query(ctx, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionCreate, entries[0].Action)
	assert.Equal(t, doc.ID, entries[0].DocumentID)
	assert.Equal(t, doc.Number, entries[0].DocumentNumber)
	assert.Equal(t, "user-1", entries[0].ActorID)
}

func TestServiceRecordPayment(t *testing.T) {
	svc, _ := newService(t)
	ctx := testContext("tenant-1")

	doc := newInvoice("tenant-1")
	require.NoError(t, svc.Create(ctx, doc))

	updated, err := svc.RecordPayment(ctx, doc.ID, "card", types.MustMoney("100.00"))
	require.NoError(t, err)
	assert.Equal(t, billing.StatusSettled, updated.Status)

	// Persisted state matches the returned document.
	stored, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusSettled, stored.Status)
	assert.Len(t, stored.Payments, 1)
}

func TestServiceTenantIsolation(t *testing.T) {
	svc, _ := newService(t)

	doc := newInvoice("tenant-1")
	require.NoError(t, svc.Create(testContext("tenant-1"), doc))

	_, err := svc.GetByID(testContext("tenant-2"), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestServiceSetRecurrence(t *testing.T) {
	svc, _ := newService(t)
	ctx := testContext("tenant-1")

	doc := newInvoice("tenant-1")
	require.NoError(t, svc.Create(ctx, doc))

	nextDue := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	updated, err := svc.SetRecurrence(ctx, doc.ID, "monthly", nextDue)
	require.NoError(t, err)
	assert.True(t, updated.IsRecurring)
	require.NotNil(t, updated.Recurrence)
	assert.Equal(t, billing.FrequencyMonthly, updated.Recurrence.Frequency)

	// Unknown frequency is rejected before anything is stored.
	_, err = svc.SetRecurrence(ctx, doc.ID, "fortnightly", nextDue)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeInvalidFrequency, appErr.Code)
}

func TestServiceToggleRecurrenceActive(t *testing.T) {
	svc, _ := newService(t)
	ctx := testContext("tenant-1")

	doc := newInvoice("tenant-1")
	require.NoError(t, svc.Create(ctx, doc))

	_, err := svc.SetRecurrence(ctx, doc.ID, "monthly", time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	toggled, err := svc.ToggleRecurrenceActive(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Recurrence.IsActive)

	toggled, err = svc.ToggleRecurrenceActive(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Recurrence.IsActive)
}

func TestServiceToggleRecurrence_NotATemplate(t *testing.T) {
	svc, _ := newService(t)
	ctx := testContext("tenant-1")

	doc := newInvoice("tenant-1")
	require.NoError(t, svc.Create(ctx, doc))

	_, err := svc.ToggleRecurrenceActive(ctx, doc.ID)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeNotRecurring, appErr.Code)
}

func TestServiceListDueTemplates(t *testing.T) {
	svc, _ := newService(t)
	ctx := testContext("tenant-1")
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	overdue := newInvoice("tenant-1")
	require.NoError(t, svc.Create(ctx, overdue))
	_, err := svc.SetRecurrence(ctx, overdue.ID, "monthly", now.AddDate(0, 0, -1))
	require.NoError(t, err)

	future := newInvoice("tenant-1")
	require.NoError(t, svc.Create(ctx, future))
	_, err = svc.SetRecurrence(ctx, future.ID, "monthly", now.AddDate(0, 0, 10))
	require.NoError(t, err)

	paused := newInvoice("tenant-1")
	require.NoError(t, svc.Create(ctx, paused))
	_, err = svc.SetRecurrence(ctx, paused.ID, "monthly", now.AddDate(0, 0, -5))
	require.NoError(t, err)
	_, err = svc.ToggleRecurrenceActive(ctx, paused.ID)
	require.NoError(t, err)

	due, err := svc.ListDueTemplates(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, overdue.ID, due[0].ID)
}
