// Package billing provides the commercial document model: invoices, quotes,
// receipts and credit notes, together with their recurrence metadata and
// payment lifecycle.
package billing

import (
	"context"
	"time"

	"faktura/internal/core/apperror"
	"faktura/internal/core/id"
	"faktura/internal/core/types"
)

// DocumentType classifies a commercial document.
type DocumentType string

const (
	TypeInvoice    DocumentType = "invoice"
	TypeQuote      DocumentType = "quote"
	TypeReceipt    DocumentType = "receipt"
	TypeCreditNote DocumentType = "credit_note"
)

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case TypeInvoice, TypeQuote, TypeReceipt, TypeCreditNote:
		return true
	}
	return false
}

// Status is the payment lifecycle state of a document.
type Status string

const (
	// StatusPending means not fully paid.
	StatusPending Status = "pending"
	// StatusSettled means payments reached the document total.
	StatusSettled Status = "settled"
	// StatusCancelled means the document was voided before settlement.
	StatusCancelled Status = "cancelled"
)

// Frequency is the recurrence period of a template.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
)

// ParseFrequency validates a frequency string.
// Unknown values are rejected before anything is persisted.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnual:
		return f, nil
	}
	return "", apperror.NewInvalidFrequency(s)
}

// Recurrence is the schedule metadata carried by a template document.
type Recurrence struct {
	Frequency   Frequency `json:"frequency"`
	NextDueDate time.Time `json:"nextDueDate"`
	IsActive    bool      `json:"isActive"`
}

// LineItem is one priced row of a document. Insertion order is preserved for
// display; it has no effect on totals.
type LineItem struct {
	ItemID    id.ID       `json:"itemId"`
	Name      string      `json:"name"`
	UnitPrice types.Money `json:"unitPrice"`
	Quantity  int64       `json:"quantity"`
	Discount  types.Money `json:"discount"`
	LineTotal types.Money `json:"lineTotal"`
}

// Payment is one captured payment against a document.
type Payment struct {
	Method string      `json:"method"`
	Amount types.Money `json:"amount"`
}

// Document is a commercial record owned by exactly one tenant.
//
// A document flagged IsRecurring acts as a generation template: it is never
// paid directly and carries a Recurrence schedule. Documents generated from
// a template are independent records from creation onward; they reference
// the template only through copied customer/item data.
type Document struct {
	ID       id.ID        `db:"id" json:"id"`
	TenantID string       `db:"tenant_id" json:"tenantId"`
	Number   string       `db:"number" json:"number"`
	Type     DocumentType `db:"doc_type" json:"type"`

	CustomerID string `db:"customer_id" json:"customerId"`

	Items    []LineItem `db:"-" json:"items"`
	Subtotal types.Money `db:"subtotal" json:"subtotal"`
	Tax      types.Money `db:"tax" json:"tax"`
	Total    types.Money `db:"total" json:"total"`

	Status   Status    `db:"status" json:"status"`
	Payments []Payment `db:"-" json:"payments"`

	Notes string `db:"notes" json:"notes,omitempty"`

	IsRecurring bool        `db:"is_recurring" json:"isRecurring"`
	Recurrence  *Recurrence `db:"-" json:"recurrence,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Version is a storage-level update counter (incremented on each write).
	Version int `db:"version" json:"version"`
}

// NewDocument creates a document with generated ID and timestamps.
// Numbers are assigned by the service at creation time.
func NewDocument(tenantID string, docType DocumentType, customerID string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:         id.New(),
		TenantID:   tenantID,
		Type:       docType,
		CustomerID: customerID,
		Status:     StatusPending,
		Items:      make([]LineItem, 0),
		Payments:   make([]Payment, 0),
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}
}

// Touch updates the UpdatedAt timestamp and bumps the version.
func (d *Document) Touch() {
	d.UpdatedAt = time.Now().UTC()
	d.Version++
}

// AddItem appends a line and recalculates totals.
// LineTotal = unit price * quantity - discount.
func (d *Document) AddItem(itemID id.ID, name string, unitPrice types.Money, quantity int64, discount types.Money) {
	lineTotal := unitPrice.Mul(types.NewMoneyFromInt(quantity)).Sub(discount)
	d.Items = append(d.Items, LineItem{
		ItemID:    itemID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Discount:  discount,
		LineTotal: lineTotal,
	})
	d.RecalculateTotals(d.Tax)
}

// RecalculateTotals recomputes subtotal and total from the lines,
// keeping the given tax amount.
func (d *Document) RecalculateTotals(tax types.Money) {
	subtotal := types.Zero()
	for _, line := range d.Items {
		subtotal = subtotal.Add(line.LineTotal)
	}
	d.Subtotal = subtotal
	d.Tax = tax
	d.Total = subtotal.Add(tax)
}

// PaidAmount returns the sum of captured payments.
func (d *Document) PaidAmount() types.Money {
	paid := types.Zero()
	for _, p := range d.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// Balance returns the outstanding amount, never below zero.
func (d *Document) Balance() types.Money {
	return types.ClampNonNegative(d.Total.Sub(d.PaidAmount()))
}

// RecordPayment captures a payment against a pending document.
// The payment sum may never exceed the total; reaching the total moves the
// document out of pending.
func (d *Document) RecordPayment(method string, amount types.Money) error {
	if d.Status != StatusPending {
		return apperror.NewBusinessRule(
			apperror.CodeDocumentSettled,
			"payments can only be recorded on pending documents",
		).WithDetail("document_id", d.ID.String()).WithDetail("status", string(d.Status))
	}
	if !amount.IsPositive() {
		return apperror.NewValidation("payment amount must be positive").
			WithDetail("amount", amount.String())
	}

	remaining := d.Total.Sub(d.PaidAmount())
	if amount.GreaterThan(remaining) {
		return apperror.NewOverpayment(d.ID.String(), remaining.String())
	}

	d.Payments = append(d.Payments, Payment{Method: method, Amount: amount})
	if d.PaidAmount().Equal(d.Total) {
		d.Status = StatusSettled
	}
	d.Touch()
	return nil
}

// Cancel voids a pending document.
func (d *Document) Cancel() error {
	if d.Status != StatusPending {
		return apperror.NewBusinessRule(
			apperror.CodeDocumentSettled,
			"only pending documents can be cancelled",
		).WithDetail("document_id", d.ID.String()).WithDetail("status", string(d.Status))
	}
	d.Status = StatusCancelled
	d.Touch()
	return nil
}

// SetRecurrence flags the document as a recurring template.
func (d *Document) SetRecurrence(freq Frequency, nextDueDate time.Time) error {
	if _, err := ParseFrequency(string(freq)); err != nil {
		return err
	}
	if nextDueDate.IsZero() {
		return apperror.NewValidation("next due date is required").
			WithDetail("field", "nextDueDate")
	}
	d.IsRecurring = true
	d.Recurrence = &Recurrence{
		Frequency:   freq,
		NextDueDate: nextDueDate,
		IsActive:    true,
	}
	d.Touch()
	return nil
}

// ClearRecurrence removes the recurrence configuration.
// The document itself survives; only the template flag is dropped.
func (d *Document) ClearRecurrence() {
	d.IsRecurring = false
	d.Recurrence = nil
	d.Touch()
}

// Validate checks document invariants (without database access).
func (d *Document) Validate(ctx context.Context) error {
	if d.TenantID == "" {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	if !d.Type.Valid() {
		return apperror.NewValidation("unknown document type").
			WithDetail("field", "type").WithDetail("value", string(d.Type))
	}
	if d.CustomerID == "" {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	for i, line := range d.Items {
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").WithDetail("lineNo", i+1)
		}
		want := line.UnitPrice.Mul(types.NewMoneyFromInt(line.Quantity)).Sub(line.Discount)
		if !line.LineTotal.Equal(want) {
			return apperror.NewValidation("line total is inconsistent").
				WithDetail("field", "items").WithDetail("lineNo", i+1).
				WithDetail("expected", want.String()).WithDetail("actual", line.LineTotal.String())
		}
	}

	if !d.Total.Equal(d.Subtotal.Add(d.Tax)) {
		return apperror.NewValidation("total must equal subtotal plus tax").
			WithDetail("subtotal", d.Subtotal.String()).
			WithDetail("tax", d.Tax.String()).
			WithDetail("total", d.Total.String())
	}

	if d.Status == StatusPending && d.PaidAmount().GreaterThan(d.Total) {
		return apperror.NewValidation("payments exceed document total").
			WithDetail("paid", d.PaidAmount().String()).
			WithDetail("total", d.Total.String())
	}

	if d.IsRecurring {
		if d.Recurrence == nil {
			return apperror.NewValidation("recurring document requires a schedule").
				WithDetail("field", "recurrence")
		}
		if _, err := ParseFrequency(string(d.Recurrence.Frequency)); err != nil {
			return err
		}
		if d.Recurrence.NextDueDate.IsZero() {
			return apperror.NewValidation("next due date is required").
				WithDetail("field", "recurrence.nextDueDate")
		}
	}

	return nil
}
