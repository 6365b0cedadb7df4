package billing

import (
	"context"
	"time"

	"faktura/internal/core/id"
)

// Repository defines the document store contract.
//
// Create must reject a duplicate number within a tenant with
// apperror.CodeDuplicateNumber. Each Create/Update is atomic per document;
// no cross-document transaction is offered or required.
type Repository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, docID id.ID) (*Document, error)
	GetByNumber(ctx context.Context, number string) (*Document, error)
	Update(ctx context.Context, doc *Document) error
	List(ctx context.Context, filter ListFilter) ([]*Document, error)
}

// ListFilter narrows List results. Nil fields are ignored.
// The tenant is taken from the request context, not from the filter.
type ListFilter struct {
	Status      *Status
	Type        *DocumentType
	CustomerID  *string
	IsRecurring *bool

	// RecurrenceActive filters templates by schedule activity.
	// Only meaningful together with IsRecurring.
	RecurrenceActive *bool

	// DueBefore keeps templates whose next due date is at or before
	// the given instant.
	DueBefore *time.Time

	CreatedFrom *time.Time
	CreatedTo   *time.Time

	// OrderBy specifies sorting (e.g., "number", "-created_at").
	OrderBy string

	Limit  int
	Offset int
}

// TemplateFilter returns a filter matching active recurring templates
// due at or before now.
func TemplateFilter(now time.Time) ListFilter {
	recurring := true
	active := true
	return ListFilter{
		IsRecurring:      &recurring,
		RecurrenceActive: &active,
		DueBefore:        &now,
	}
}
