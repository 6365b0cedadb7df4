// Package generation orchestrates creating new billing documents from
// recurring templates.
package generation

import (
	"context"
	"fmt"

	"faktura/internal/core/apperror"
	"faktura/internal/core/clock"
	"faktura/internal/core/id"
	"faktura/internal/domain/audit"
	"faktura/internal/domain/billing"
	"faktura/pkg/logger"
	"faktura/pkg/numerator"
)

// Result is the outcome for one template in a batch. Each template is
// independent: a failed item carries its error here and never blocks or
// rolls back the others.
type Result struct {
	TemplateID id.ID  `json:"templateId"`
	DocumentID id.ID  `json:"documentId,omitempty"`
	Number     string `json:"number,omitempty"`
	Err        error  `json:"-"`
}

// Succeeded reports whether the template produced a document.
func (r Result) Succeeded() bool { return r.Err == nil }

// Summary counts outcomes of a batch.
type Summary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summarize tallies a result list.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if r.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// Service is the generation pipeline. It builds each new document fully in
// memory, persists it with a single create, then appends one audit row.
//
// Successful generation leaves the template untouched: nextDueDate is not
// advanced and the schedule stays active, so the template remains due until
// an operator edits it. That is the documented manual-approval workflow.
type Service struct {
	docs      billing.Repository
	recorder  audit.Recorder
	numerator numerator.Generator
	clock     clock.Clock
}

// NewService creates a generation pipeline.
func NewService(docs billing.Repository, recorder audit.Recorder, gen numerator.Generator, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		docs:      docs,
		recorder:  recorder,
		numerator: gen,
		clock:     clk,
	}
}

// GenerateMany creates one document per template id, sequentially.
//
// Sequential on purpose: two near-simultaneous creates would race on number
// assignment against the store. The caller may abandon a batch between items
// via ctx; documents already created stay valid and are not rolled back.
func (s *Service) GenerateMany(ctx context.Context, templateIDs []id.ID, sharedNote string) []Result {
	results := make([]Result, 0, len(templateIDs))
	for _, templateID := range templateIDs {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{
				TemplateID: templateID,
				Err:        apperror.NewInternal(err).WithDetail("reason", "batch abandoned"),
			})
			continue
		}
		results = append(results, s.generate(ctx, templateID, sharedNote))
	}

	summary := Summarize(results)
	logger.Info(ctx, "batch generation finished",
		"templates", len(templateIDs),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed)
	return results
}

// GenerateOne creates a single document from a template, for ad-hoc early
// billing outside the normal due cycle.
func (s *Service) GenerateOne(ctx context.Context, templateID id.ID, note string) Result {
	return s.generate(ctx, templateID, note)
}

func (s *Service) generate(ctx context.Context, templateID id.ID, note string) Result {
	result := Result{TemplateID: templateID}

	template, err := s.docs.GetByID(ctx, templateID)
	if err != nil {
		if apperror.IsNotFound(err) {
			result.Err = apperror.NewTemplateNotFound(templateID.String())
		} else {
			result.Err = err
		}
		return result
	}
	if !template.IsRecurring {
		result.Err = apperror.NewTemplateNotFound(templateID.String())
		return result
	}

	doc, err := s.buildFromTemplate(ctx, template, note)
	if err != nil {
		result.Err = err
		return result
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		if apperror.IsDuplicateNumber(err) {
			result.Err = err
		} else {
			result.Err = apperror.NewStoreWrite("create", err).
				WithDetail("template_id", templateID.String())
		}
		return result
	}

	// The document exists and is usable even if the audit row fails to
	// write; there is no compensating rollback.
	entry := audit.NewEntry(ctx, audit.ActionCreate, string(doc.Type), doc.ID, doc.Number,
		fmt.Sprintf("generated from template %s", template.Number))
	if _, err := s.recorder.Append(ctx, entry); err != nil {
		logger.Warn(ctx, "audit append failed after generation",
			"document_id", doc.ID,
			"number", doc.Number,
			"error", err)
	}

	logger.Info(ctx, "document generated",
		"template_id", templateID,
		"document_id", doc.ID,
		"number", doc.Number)

	result.DocumentID = doc.ID
	result.Number = doc.Number
	return result
}

// buildFromTemplate assembles the new document entirely in memory before the
// single create call; no partial document is ever left half-written.
func (s *Service) buildFromTemplate(ctx context.Context, template *billing.Document, note string) (*billing.Document, error) {
	doc := billing.NewDocument(template.TenantID, billing.TypeInvoice, template.CustomerID)

	doc.Items = make([]billing.LineItem, len(template.Items))
	copy(doc.Items, template.Items)
	doc.Subtotal = template.Subtotal
	doc.Tax = template.Tax
	doc.Total = template.Total
	doc.Status = billing.StatusPending
	doc.Payments = make([]billing.Payment, 0)
	if note != "" {
		doc.Notes = note
	}

	prefix := "INV"
	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(prefix), s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}
	doc.Number = number

	return doc, nil
}
