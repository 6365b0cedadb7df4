package handlers

import (
	"github.com/gin-gonic/gin"

	"faktura/internal/core/apperror"
	"faktura/internal/core/clock"
	"faktura/internal/core/id"
	"faktura/internal/domain/billing"
	"faktura/internal/domain/generation"
	"faktura/internal/infrastructure/http/v1/dto"
)

// RecurringHandler handles templates and document generation.
type RecurringHandler struct {
	*BaseHandler
	billing    *billing.Service
	generation *generation.Service
	clock      clock.Clock
}

// NewRecurringHandler creates a new recurring documents handler.
func NewRecurringHandler(base *BaseHandler, billingSvc *billing.Service, generationSvc *generation.Service, clk clock.Clock) *RecurringHandler {
	if clk == nil {
		clk = clock.System{}
	}
	return &RecurringHandler{
		BaseHandler: base,
		billing:     billingSvc,
		generation:  generationSvc,
		clock:       clk,
	}
}

// SetRecurrence handles PUT /documents/:id/recurrence.
func (h *RecurringHandler) SetRecurrence(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetRecurrenceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.billing.SetRecurrence(c.Request.Context(), docID, req.Frequency, req.NextDueDate)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDocument(doc))
}

// ToggleActive handles POST /documents/:id/recurrence/toggle.
func (h *RecurringHandler) ToggleActive(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.billing.ToggleRecurrenceActive(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDocument(doc))
}

// RemoveRecurrence handles DELETE /documents/:id/recurrence.
func (h *RecurringHandler) RemoveRecurrence(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.billing.RemoveRecurrence(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDocument(doc))
}

// ListDue handles GET /recurring/due - active templates whose next due
// date has passed.
func (h *RecurringHandler) ListDue(c *gin.Context) {
	due, err := h.billing.ListDueTemplates(c.Request.Context(), h.clock.Now())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items: dto.FromDocuments(due),
		Count: len(due),
	})
}

// Generate handles POST /recurring/generate - batch document generation.
// Returns 200 with per-template results; individual failures are part of
// the payload, not an HTTP error.
func (h *RecurringHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	templateIDs := make([]id.ID, 0, len(req.TemplateIDs))
	for _, raw := range req.TemplateIDs {
		templateID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid template id").WithDetail("templateId", raw))
			return
		}
		templateIDs = append(templateIDs, templateID)
	}

	results := h.generation.GenerateMany(c.Request.Context(), templateIDs, req.Note)
	h.OK(c, dto.FromResults(results))
}

// GenerateOne handles POST /recurring/:id/generate.
func (h *RecurringHandler) GenerateOne(c *gin.Context) {
	templateID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	note := c.Query("note")
	result := h.generation.GenerateOne(c.Request.Context(), templateID, note)
	if !result.Succeeded() {
		h.Error(c, result.Err)
		return
	}

	doc, err := h.billing.GetByID(c.Request.Context(), result.DocumentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromDocument(doc))
}
