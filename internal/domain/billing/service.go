package billing

import (
	"context"
	"fmt"
	"time"

	"faktura/internal/core/apperror"
	"faktura/internal/core/clock"
	"faktura/internal/core/id"
	"faktura/internal/core/types"
	"faktura/internal/domain/audit"
	"faktura/pkg/logger"
	"faktura/pkg/numerator"
)

// numberPrefixes maps document types to sequence prefixes.
var numberPrefixes = map[DocumentType]string{
	TypeInvoice:    "INV",
	TypeQuote:      "QUO",
	TypeReceipt:    "RCP",
	TypeCreditNote: "CRN",
}

// Service provides business operations for documents: creation, payment
// capture, cancellation and recurrence schedule edits. Every mutating
// operation writes one audit row; a failed audit append never rolls back the
// document change, it is logged and the document stands.
type Service struct {
	repo      Repository
	recorder  audit.Recorder
	numerator numerator.Generator
	clock     clock.Clock
}

// NewService creates a document service.
func NewService(repo Repository, recorder audit.Recorder, gen numerator.Generator, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		repo:      repo,
		recorder:  recorder,
		numerator: gen,
		clock:     clk,
	}
}

// Create validates the document, assigns a number when empty and persists it.
// A duplicate number surfaces as apperror.CodeDuplicateNumber; the caller
// retries with a fresh number, the service does not loop.
func (s *Service) Create(ctx context.Context, doc *Document) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		prefix, ok := numberPrefixes[doc.Type]
		if !ok {
			prefix = "DOC"
		}
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(prefix), s.clock.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return err
	}

	s.record(ctx, audit.ActionCreate, doc, "document created")

	logger.Info(ctx, "document created",
		"id", doc.ID,
		"number", doc.Number,
		"type", doc.Type)
	return nil
}

// GetByID retrieves a document.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Document, error) {
	return s.repo.GetByID(ctx, docID)
}

// GetByNumber retrieves a document by its number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Document, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List retrieves documents matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Document, error) {
	return s.repo.List(ctx, filter)
}

// Update validates and persists an edited document.
func (s *Service) Update(ctx context.Context, doc *Document) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	doc.Touch()
	if err := s.repo.Update(ctx, doc); err != nil {
		return err
	}

	s.record(ctx, audit.ActionUpdate, doc, "document updated")
	return nil
}

// RecordPayment captures a payment and persists the resulting state.
// Reaching the total transitions the document out of pending.
func (s *Service) RecordPayment(ctx context.Context, docID id.ID, method string, amount types.Money) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	if err := doc.RecordPayment(method, amount); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.record(ctx, audit.ActionUpdate, doc,
		fmt.Sprintf("payment of %s recorded via %s", amount.String(), method))

	logger.Info(ctx, "payment recorded",
		"id", doc.ID,
		"number", doc.Number,
		"amount", amount,
		"status", doc.Status)
	return doc, nil
}

// Cancel voids a pending document.
func (s *Service) Cancel(ctx context.Context, docID id.ID) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.Cancel(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.record(ctx, audit.ActionUpdate, doc, "document cancelled")
	return doc, nil
}

// --- Recurrence schedule edits ---

// SetRecurrence flags a document as a recurring template with the given
// schedule. Unknown frequencies are rejected before anything is persisted.
func (s *Service) SetRecurrence(ctx context.Context, docID id.ID, freq string, nextDueDate time.Time) (*Document, error) {
	frequency, err := ParseFrequency(freq)
	if err != nil {
		return nil, err
	}

	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.SetRecurrence(frequency, nextDueDate); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.record(ctx, audit.ActionUpdate, doc,
		fmt.Sprintf("recurrence set: %s from %s", frequency, nextDueDate.Format("2006-01-02")))
	return doc, nil
}

// ToggleRecurrenceActive flips the active flag on a template's schedule.
func (s *Service) ToggleRecurrenceActive(ctx context.Context, templateID id.ID) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !doc.IsRecurring || doc.Recurrence == nil {
		return nil, notATemplate(doc)
	}

	doc.Recurrence.IsActive = !doc.Recurrence.IsActive
	doc.Touch()
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.record(ctx, audit.ActionUpdate, doc,
		fmt.Sprintf("recurrence active: %t", doc.Recurrence.IsActive))
	return doc, nil
}

// RemoveRecurrence clears the recurrence configuration without deleting the
// underlying document.
func (s *Service) RemoveRecurrence(ctx context.Context, templateID id.ID) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !doc.IsRecurring {
		return nil, notATemplate(doc)
	}

	doc.ClearRecurrence()
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.record(ctx, audit.ActionUpdate, doc, "recurrence removed")
	return doc, nil
}

// ListDueTemplates returns active templates whose next due date has passed.
func (s *Service) ListDueTemplates(ctx context.Context, now time.Time) ([]*Document, error) {
	candidates, err := s.repo.List(ctx, TemplateFilter(now))
	if err != nil {
		return nil, err
	}

	// The repository filter is a coarse pre-selection; the scheduler is the
	// single source of truth for the due classification.
	due := make([]*Document, 0, len(candidates))
	for _, doc := range candidates {
		if IsDue(doc, now) {
			due = append(due, doc)
		}
	}
	return due, nil
}

// notATemplate builds the business-rule error for recurrence edits on a
// document that carries no recurrence configuration.
func notATemplate(doc *Document) error {
	return apperror.NewBusinessRule(
		apperror.CodeNotRecurring,
		"document is not a recurring template",
	).WithDetail("document_id", doc.ID.String())
}

// record appends an audit row. Failures are degraded-but-non-fatal: the
// document change already happened and is not compensated.
func (s *Service) record(ctx context.Context, action audit.Action, doc *Document, details string) {
	entry := audit.NewEntry(ctx, action, string(doc.Type), doc.ID, doc.Number, details)
	if _, err := s.recorder.Append(ctx, entry); err != nil {
		logger.Warn(ctx, "audit append failed",
			"action", action,
			"document_id", doc.ID,
			"error", err)
	}
}
