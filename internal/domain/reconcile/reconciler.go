// Package reconcile derives outstanding balances from stored document state.
// Everything here is a pure computation: no persisted state of its own, so
// balances can be re-derived at any time from the document set.
package reconcile

import (
	"faktura/internal/core/types"
	"faktura/internal/domain/billing"
)

// Predicate narrows a balance computation to a subset of documents.
type Predicate func(doc *billing.Document) (bool, error)

// DocumentBalance returns total minus recorded payments, clamped to >= 0.
// Overpayment handling (change due) is a payment-capture concern outside
// this component.
func DocumentBalance(doc *billing.Document) types.Money {
	return doc.Balance()
}

// invoiceClass reports whether a document represents a receivable.
// Quotes and receipts carry no outstanding balance by definition.
func invoiceClass(doc *billing.Document) bool {
	return doc.Type == billing.TypeInvoice
}

// Outstanding sums the balances of all pending invoice-class documents.
func Outstanding(docs []*billing.Document) types.Money {
	sum, _ := OutstandingWhere(docs, nil)
	return sum
}

// OutstandingWhere sums outstanding balances of pending invoice-class
// documents matching the predicate. A nil predicate matches everything.
func OutstandingWhere(docs []*billing.Document, pred Predicate) (types.Money, error) {
	sum := types.Zero()
	for _, doc := range docs {
		if doc.Status != billing.StatusPending || !invoiceClass(doc) {
			continue
		}
		if pred != nil {
			ok, err := pred(doc)
			if err != nil {
				return types.Zero(), err
			}
			if !ok {
				continue
			}
		}
		sum = sum.Add(DocumentBalance(doc))
	}
	return sum, nil
}
