package dto

import (
	"time"

	"faktura/internal/core/apperror"
	"faktura/internal/core/id"
	"faktura/internal/core/types"
	"faktura/internal/domain/billing"
)

// --- Requests ---

// LineItemRequest is one priced row of a create/update request.
type LineItemRequest struct {
	ItemID    string      `json:"itemId"`
	Name      string      `json:"name" binding:"required"`
	UnitPrice types.Money `json:"unitPrice"`
	Quantity  int64       `json:"quantity" binding:"required,min=1"`
	Discount  types.Money `json:"discount"`
}

// RecurrenceRequest configures a recurring template schedule.
type RecurrenceRequest struct {
	Frequency   string    `json:"frequency" binding:"required"`
	NextDueDate time.Time `json:"nextDueDate" binding:"required"`
}

// CreateDocumentRequest creates a document. Number is optional; when
// empty the server assigns the next sequence value.
type CreateDocumentRequest struct {
	Type       string             `json:"type" binding:"required"`
	CustomerID string             `json:"customerId" binding:"required"`
	Number     string             `json:"number"`
	Items      []LineItemRequest  `json:"items"`
	Tax        types.Money        `json:"tax"`
	Notes      string             `json:"notes"`
	Recurrence *RecurrenceRequest `json:"recurrence"`
}

// ToEntity builds the domain document for the given tenant.
func (r CreateDocumentRequest) ToEntity(tenantID string) (*billing.Document, error) {
	doc := billing.NewDocument(tenantID, billing.DocumentType(r.Type), r.CustomerID)
	doc.Number = r.Number
	doc.Notes = r.Notes

	for _, item := range r.Items {
		itemID := id.New()
		if item.ItemID != "" {
			parsed, err := id.Parse(item.ItemID)
			if err != nil {
				return nil, apperror.NewValidation("invalid item id").
					WithDetail("itemId", item.ItemID)
			}
			itemID = parsed
		}
		doc.AddItem(itemID, item.Name, item.UnitPrice, item.Quantity, item.Discount)
	}
	doc.RecalculateTotals(r.Tax)

	if r.Recurrence != nil {
		freq, err := billing.ParseFrequency(r.Recurrence.Frequency)
		if err != nil {
			return nil, err
		}
		if err := doc.SetRecurrence(freq, r.Recurrence.NextDueDate); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// UpdateDocumentRequest edits mutable document fields.
// Nil fields are left untouched.
type UpdateDocumentRequest struct {
	Items *[]LineItemRequest `json:"items"`
	Tax   *types.Money       `json:"tax"`
	Notes *string            `json:"notes"`
}

// ApplyTo mutates the existing document with the requested changes.
func (r UpdateDocumentRequest) ApplyTo(doc *billing.Document) error {
	if r.Items != nil {
		doc.Items = doc.Items[:0]
		tax := doc.Tax
		if r.Tax != nil {
			tax = *r.Tax
		}
		for _, item := range *r.Items {
			itemID := id.New()
			if item.ItemID != "" {
				parsed, err := id.Parse(item.ItemID)
				if err != nil {
					return apperror.NewValidation("invalid item id").
						WithDetail("itemId", item.ItemID)
				}
				itemID = parsed
			}
			doc.AddItem(itemID, item.Name, item.UnitPrice, item.Quantity, item.Discount)
		}
		doc.RecalculateTotals(tax)
	} else if r.Tax != nil {
		doc.RecalculateTotals(*r.Tax)
	}

	if r.Notes != nil {
		doc.Notes = *r.Notes
	}
	return nil
}

// RecordPaymentRequest captures a payment against a document.
type RecordPaymentRequest struct {
	Method string      `json:"method" binding:"required"`
	Amount types.Money `json:"amount"`
}

// SetRecurrenceRequest flags a document as a recurring template.
type SetRecurrenceRequest struct {
	Frequency   string    `json:"frequency" binding:"required"`
	NextDueDate time.Time `json:"nextDueDate" binding:"required"`
}

// --- Responses ---

// LineItemResponse mirrors billing.LineItem.
type LineItemResponse struct {
	ItemID    string      `json:"itemId"`
	Name      string      `json:"name"`
	UnitPrice types.Money `json:"unitPrice"`
	Quantity  int64       `json:"quantity"`
	Discount  types.Money `json:"discount"`
	LineTotal types.Money `json:"lineTotal"`
}

// PaymentResponse mirrors billing.Payment.
type PaymentResponse struct {
	Method string      `json:"method"`
	Amount types.Money `json:"amount"`
}

// RecurrenceResponse mirrors billing.Recurrence.
type RecurrenceResponse struct {
	Frequency   string    `json:"frequency"`
	NextDueDate time.Time `json:"nextDueDate"`
	IsActive    bool      `json:"isActive"`
}

// DocumentResponse contains the full document state plus derived
// payment figures.
type DocumentResponse struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	Number     string `json:"number"`
	Type       string `json:"type"`
	CustomerID string `json:"customerId"`

	Items    []LineItemResponse `json:"items"`
	Subtotal types.Money        `json:"subtotal"`
	Tax      types.Money        `json:"tax"`
	Total    types.Money        `json:"total"`

	Status   string            `json:"status"`
	Payments []PaymentResponse `json:"payments"`
	Paid     types.Money       `json:"paid"`
	Balance  types.Money       `json:"balance"`

	Notes string `json:"notes,omitempty"`

	IsRecurring bool                `json:"isRecurring"`
	Recurrence  *RecurrenceResponse `json:"recurrence,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int       `json:"version"`
}

// FromDocument creates DocumentResponse from billing.Document.
func FromDocument(d *billing.Document) DocumentResponse {
	items := make([]LineItemResponse, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, LineItemResponse{
			ItemID:    item.ItemID.String(),
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Discount:  item.Discount,
			LineTotal: item.LineTotal,
		})
	}

	payments := make([]PaymentResponse, 0, len(d.Payments))
	for _, p := range d.Payments {
		payments = append(payments, PaymentResponse{Method: p.Method, Amount: p.Amount})
	}

	resp := DocumentResponse{
		ID:          d.ID.String(),
		TenantID:    d.TenantID,
		Number:      d.Number,
		Type:        string(d.Type),
		CustomerID:  d.CustomerID,
		Items:       items,
		Subtotal:    d.Subtotal,
		Tax:         d.Tax,
		Total:       d.Total,
		Status:      string(d.Status),
		Payments:    payments,
		Paid:        d.PaidAmount(),
		Balance:     d.Balance(),
		Notes:       d.Notes,
		IsRecurring: d.IsRecurring,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		Version:     d.Version,
	}

	if d.Recurrence != nil {
		resp.Recurrence = &RecurrenceResponse{
			Frequency:   string(d.Recurrence.Frequency),
			NextDueDate: d.Recurrence.NextDueDate,
			IsActive:    d.Recurrence.IsActive,
		}
	}

	return resp
}

// FromDocuments maps a document slice to responses.
func FromDocuments(docs []*billing.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, FromDocument(d))
	}
	return out
}
