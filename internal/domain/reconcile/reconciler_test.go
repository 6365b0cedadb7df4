package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faktura/internal/core/id"
	"faktura/internal/core/types"
	"faktura/internal/domain/billing"
)

func invoice(t *testing.T, customerID, total string, payments ...string) *billing.Document {
	t.Helper()
	doc := billing.NewDocument("tenant-1", billing.TypeInvoice, customerID)
	doc.AddItem(id.New(), "Service", types.MustMoney(total), 1, types.Zero())
	for _, p := range payments {
		require.NoError(t, doc.RecordPayment("card", types.MustMoney(p)))
	}
	return doc
}

func TestOutstanding_PartialPayment(t *testing.T) {
	docs := []*billing.Document{
		invoice(t, "cust-1", "100.00", "40.00"),
	}

	assert.True(t, Outstanding(docs).Equal(types.MustMoney("60.00")))
}

func TestOutstanding_SettledContributesNothing(t *testing.T) {
	docs := []*billing.Document{
		invoice(t, "cust-1", "100.00", "40.00", "60.00"),
		invoice(t, "cust-1", "25.00"),
	}

	assert.True(t, Outstanding(docs).Equal(types.MustMoney("25.00")))
}

func TestOutstanding_SkipsNonInvoiceClasses(t *testing.T) {
	quote := billing.NewDocument("tenant-1", billing.TypeQuote, "cust-1")
	quote.AddItem(id.New(), "Proposal", types.MustMoney("500.00"), 1, types.Zero())

	receipt := billing.NewDocument("tenant-1", billing.TypeReceipt, "cust-1")
	receipt.AddItem(id.New(), "Paid on site", types.MustMoney("30.00"), 1, types.Zero())

	docs := []*billing.Document{
		quote,
		receipt,
		invoice(t, "cust-1", "100.00"),
	}

	assert.True(t, Outstanding(docs).Equal(types.MustMoney("100.00")))
}

func TestOutstanding_SkipsCancelled(t *testing.T) {
	cancelled := invoice(t, "cust-1", "75.00")
	require.NoError(t, cancelled.Cancel())

	docs := []*billing.Document{cancelled}
	assert.True(t, Outstanding(docs).IsZero())
}

func TestOutstanding_NeverNegative(t *testing.T) {
	doc := invoice(t, "cust-1", "100.00")
	// Force an overpaid state directly; the clamp still holds per document.
	doc.Payments = append(doc.Payments, billing.Payment{Method: "card", Amount: types.MustMoney("150.00")})

	docs := []*billing.Document{doc}
	assert.True(t, Outstanding(docs).IsZero())
}

func TestOutstanding_Empty(t *testing.T) {
	assert.True(t, Outstanding(nil).IsZero())
}

func TestCompilePredicate(t *testing.T) {
	pred, err := CompilePredicate(`total > 50.0`)
	require.NoError(t, err)

	big := invoice(t, "cust-1", "100.00")
	small := invoice(t, "cust-1", "20.00")

	sum, err := OutstandingWhere([]*billing.Document{big, small}, pred)
	require.NoError(t, err)
	assert.True(t, sum.Equal(types.MustMoney("100.00")))
}

func TestCompilePredicate_CustomerScope(t *testing.T) {
	pred, err := CompilePredicate(`customerId == "cust-2"`)
	require.NoError(t, err)

	docs := []*billing.Document{
		invoice(t, "cust-1", "100.00"),
		invoice(t, "cust-2", "40.00"),
		invoice(t, "cust-2", "10.00"),
	}

	sum, err := OutstandingWhere(docs, pred)
	require.NoError(t, err)
	assert.True(t, sum.Equal(types.MustMoney("50.00")))
}

func TestCompilePredicate_SyntaxError(t *testing.T) {
	_, err := CompilePredicate(`total >`)
	assert.Error(t, err)
}

func TestCompilePredicate_NonBoolean(t *testing.T) {
	_, err := CompilePredicate(`total + 1.0`)
	assert.Error(t, err)
}

func TestOutstandingWhere_NilPredicateMatchesAll(t *testing.T) {
	docs := []*billing.Document{
		invoice(t, "cust-1", "10.00"),
		invoice(t, "cust-2", "15.00"),
	}

	sum, err := OutstandingWhere(docs, nil)
	require.NoError(t, err)
	assert.True(t, sum.Equal(types.MustMoney("25.00")))
}
