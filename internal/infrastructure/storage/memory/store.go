// Package memory provides in-process implementations of the document store
// and audit recorder contracts. Used by tests and by the binaries when no
// database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"faktura/internal/core/apperror"
	appctx "faktura/internal/core/context"
	"faktura/internal/core/id"
	"faktura/internal/domain/audit"
	"faktura/internal/domain/billing"
)

// Store keeps documents and audit entries in maps guarded by one mutex.
// Semantics match the PostgreSQL repositories: per-tenant unique numbers,
// per-document atomic writes, append-only audit.
type Store struct {
	mu      sync.Mutex
	docs    map[id.ID]*billing.Document
	entries []audit.Entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		docs: make(map[id.ID]*billing.Document),
	}
}

// --- billing.Repository ---

// Create inserts a document, rejecting duplicate numbers within the tenant.
func (s *Store) Create(ctx context.Context, doc *billing.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.docs {
		if existing.TenantID == doc.TenantID && existing.Number == doc.Number {
			return apperror.NewDuplicateNumber(doc.Number)
		}
	}

	s.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// GetByID retrieves a document visible to the caller's tenant.
func (s *Store) GetByID(ctx context.Context, docID id.ID) (*billing.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[docID]
	if !ok || !visibleTo(ctx, doc) {
		return nil, apperror.NewNotFound("document", docID.String())
	}
	return cloneDocument(doc), nil
}

// GetByNumber retrieves a document by number within the caller's tenant.
func (s *Store) GetByNumber(ctx context.Context, number string) (*billing.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.docs {
		if doc.Number == number && visibleTo(ctx, doc) {
			return cloneDocument(doc), nil
		}
	}
	return nil, apperror.NewNotFound("document", number)
}

// Update replaces the stored document. Last write wins.
func (s *Store) Update(ctx context.Context, doc *billing.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.docs[doc.ID]
	if !ok || !visibleTo(ctx, existing) {
		return apperror.NewNotFound("document", doc.ID.String())
	}
	s.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// List returns documents matching the filter, ordered by number.
func (s *Store) List(ctx context.Context, filter billing.ListFilter) ([]*billing.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*billing.Document
	for _, doc := range s.docs {
		if !visibleTo(ctx, doc) {
			continue
		}
		if !matches(doc, filter) {
			continue
		}
		out = append(out, cloneDocument(doc))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matches(doc *billing.Document, f billing.ListFilter) bool {
	if f.Status != nil && doc.Status != *f.Status {
		return false
	}
	if f.Type != nil && doc.Type != *f.Type {
		return false
	}
	if f.CustomerID != nil && doc.CustomerID != *f.CustomerID {
		return false
	}
	if f.IsRecurring != nil && doc.IsRecurring != *f.IsRecurring {
		return false
	}
	if f.RecurrenceActive != nil {
		if doc.Recurrence == nil || doc.Recurrence.IsActive != *f.RecurrenceActive {
			return false
		}
	}
	if f.DueBefore != nil {
		if doc.Recurrence == nil || doc.Recurrence.NextDueDate.After(*f.DueBefore) {
			return false
		}
	}
	if f.CreatedFrom != nil && doc.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && doc.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	return true
}

// visibleTo scopes access by the caller's tenant. An empty tenant in context
// (tests, worker tooling) sees everything.
func visibleTo(ctx context.Context, doc *billing.Document) bool {
	tenantID := appctx.GetTenantID(ctx)
	return tenantID == "" || tenantID == doc.TenantID
}

func cloneDocument(doc *billing.Document) *billing.Document {
	c := *doc
	c.Items = make([]billing.LineItem, len(doc.Items))
	copy(c.Items, doc.Items)
	c.Payments = make([]billing.Payment, len(doc.Payments))
	copy(c.Payments, doc.Payments)
	if doc.Recurrence != nil {
		r := *doc.Recurrence
		c.Recurrence = &r
	}
	return &c
}

// --- audit.Recorder ---

// Append stores an entry. Immediately visible to subsequent queries.
func (s *Store) Append(ctx context.Context, entry audit.Entry) (id.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	s.entries = append(s.entries, entry)
	return entry.ID, nil
}

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenantID := appctx.GetTenantID(ctx)

	var out []audit.Entry
	for _, e := range s.entries {
		if tenantID != "" && e.TenantID != tenantID {
			continue
		}
		if filter.ActorID != "" && e.ActorID != filter.ActorID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.DocumentType != "" && e.DocumentType != filter.DocumentType {
			continue
		}
		if filter.DocumentNumber != "" && e.DocumentNumber != filter.DocumentNumber {
			continue
		}
		if filter.DateFrom != nil && e.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && e.Date.After(*filter.DateTo) {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

var (
	_ billing.Repository = (*Store)(nil)
	_ audit.Recorder     = (*Store)(nil)
)
