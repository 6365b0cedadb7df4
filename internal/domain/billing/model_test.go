package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faktura/internal/core/apperror"
	"faktura/internal/core/id"
	"faktura/internal/core/types"
)

func money(s string) types.Money {
	m, err := types.NewMoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func TestAddItem_Totals(t *testing.T) {
	doc := NewDocument("tenant-1", TypeInvoice, "cust-1")
	doc.AddItem(id.New(), "Widget", money("10.00"), 3, money("5.00"))
	doc.AddItem(id.New(), "Gadget", money("7.50"), 2, types.Zero())

	// 10*3-5 = 25, 7.50*2 = 15
	assert.True(t, doc.Subtotal.Equal(money("40.00")), "subtotal = %s", doc.Subtotal)
	assert.True(t, doc.Total.Equal(money("40.00")))

	doc.RecalculateTotals(money("8.00"))
	assert.True(t, doc.Total.Equal(money("48.00")))
}

func TestRecordPayment_PartialThenSettled(t *testing.T) {
	doc := NewDocument("tenant-1", TypeInvoice, "cust-1")
	doc.AddItem(id.New(), "Widget", money("100.00"), 1, types.Zero())

	require.NoError(t, doc.RecordPayment("card", money("40.00")))
	assert.Equal(t, StatusPending, doc.Status)
	assert.True(t, doc.Balance().Equal(money("60.00")))

	require.NoError(t, doc.RecordPayment("transfer", money("60.00")))
	assert.Equal(t, StatusSettled, doc.Status)
	assert.True(t, doc.Balance().IsZero())
}

func TestRecordPayment_Overpayment(t *testing.T) {
	doc := NewDocument("tenant-1", TypeInvoice, "cust-1")
	doc.AddItem(id.New(), "Widget", money("100.00"), 1, types.Zero())

	require.NoError(t, doc.RecordPayment("card", money("80.00")))

	err := doc.RecordPayment("card", money("30.00"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOverpayment, appErr.Code)

	// State is unchanged after the rejected payment.
	assert.Len(t, doc.Payments, 1)
	assert.Equal(t, StatusPending, doc.Status)
}

func TestRecordPayment_OnSettledDocument(t *testing.T) {
	doc := NewDocument("tenant-1", TypeInvoice, "cust-1")
	doc.AddItem(id.New(), "Widget", money("50.00"), 1, types.Zero())
	require.NoError(t, doc.RecordPayment("card", money("50.00")))
	require.Equal(t, StatusSettled, doc.Status)

	err := doc.RecordPayment("card", money("1.00"))
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeDocumentSettled, appErr.Code)
}

func TestRecordPayment_NonPositiveAmount(t *testing.T) {
	doc := NewDocument("tenant-1", TypeInvoice, "cust-1")
	doc.AddItem(id.New(), "Widget", money("50.00"), 1, types.Zero())

	assert.Error(t, doc.RecordPayment("card", types.Zero()))
	assert.Error(t, doc.RecordPayment("card", money("-5.00")))
}

func TestBalance_NeverNegative(t *testing.T) {
	doc := NewDocument("tenant-1", TypeInvoice, "cust-1")
	doc.AddItem(id.New(), "Widget", money("100.00"), 1, types.Zero())
	// Force an inconsistent paid state directly; Balance still clamps.
	doc.Payments = append(doc.Payments, Payment{Method: "card", Amount: money("150.00")})

	assert.True(t, doc.Balance().IsZero())
}

func TestCancel(t *testing.T) {
	doc := NewDocument("tenant-1", TypeInvoice, "cust-1")
	require.NoError(t, doc.Cancel())
	assert.Equal(t, StatusCancelled, doc.Status)

	// Cancelling twice is rejected.
	assert.Error(t, doc.Cancel())
}

func TestParseFrequency(t *testing.T) {
	for _, valid := range []string{"weekly", "monthly", "quarterly", "annual"} {
		_, err := ParseFrequency(valid)
		assert.NoError(t, err, valid)
	}

	_, err := ParseFrequency("daily")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidFrequency, appErr.Code)
}

func TestSetRecurrence(t *testing.T) {
	doc := NewDocument("tenant-1", TypeInvoice, "cust-1")

	err := doc.SetRecurrence(FrequencyMonthly, date(2026, time.April, 1))
	require.NoError(t, err)
	assert.True(t, doc.IsRecurring)
	require.NotNil(t, doc.Recurrence)
	assert.True(t, doc.Recurrence.IsActive)

	doc.ClearRecurrence()
	assert.False(t, doc.IsRecurring)
	assert.Nil(t, doc.Recurrence)
}

func TestSetRecurrence_Invalid(t *testing.T) {
	doc := NewDocument("tenant-1", TypeInvoice, "cust-1")

	assert.Error(t, doc.SetRecurrence(Frequency("hourly"), date(2026, time.April, 1)))
	assert.Error(t, doc.SetRecurrence(FrequencyMonthly, time.Time{}))
	assert.False(t, doc.IsRecurring)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid document", func(t *testing.T) {
		doc := NewDocument("tenant-1", TypeInvoice, "cust-1")
		doc.AddItem(id.New(), "Widget", money("10.00"), 2, types.Zero())
		assert.NoError(t, doc.Validate(ctx))
	})

	t.Run("missing tenant", func(t *testing.T) {
		doc := NewDocument("", TypeInvoice, "cust-1")
		assert.Error(t, doc.Validate(ctx))
	})

	t.Run("unknown type", func(t *testing.T) {
		doc := NewDocument("tenant-1", DocumentType("purchase_order"), "cust-1")
		assert.Error(t, doc.Validate(ctx))
	})

	t.Run("missing customer", func(t *testing.T) {
		doc := NewDocument("tenant-1", TypeInvoice, "")
		assert.Error(t, doc.Validate(ctx))
	})

	t.Run("inconsistent line total", func(t *testing.T) {
		doc := NewDocument("tenant-1", TypeInvoice, "cust-1")
		doc.AddItem(id.New(), "Widget", money("10.00"), 2, types.Zero())
		doc.Items[0].LineTotal = money("999.00")
		assert.Error(t, doc.Validate(ctx))
	})

	t.Run("total mismatch", func(t *testing.T) {
		doc := NewDocument("tenant-1", TypeInvoice, "cust-1")
		doc.AddItem(id.New(), "Widget", money("10.00"), 2, types.Zero())
		doc.Total = money("999.00")
		assert.Error(t, doc.Validate(ctx))
	})

	t.Run("recurring without schedule", func(t *testing.T) {
		doc := NewDocument("tenant-1", TypeInvoice, "cust-1")
		doc.IsRecurring = true
		assert.Error(t, doc.Validate(ctx))
	})
}
