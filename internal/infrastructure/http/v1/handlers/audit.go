package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"faktura/internal/core/apperror"
	"faktura/internal/domain/audit"
	"faktura/internal/infrastructure/http/v1/dto"
)

// AuditHandler serves the read side of the audit trail.
type AuditHandler struct {
	*BaseHandler
	recorder audit.Recorder
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, recorder audit.Recorder) *AuditHandler {
	return &AuditHandler{BaseHandler: base, recorder: recorder}
}

// Query handles GET /audit with filtering.
func (h *AuditHandler) Query(c *gin.Context) {
	filter := audit.Filter{
		ActorID:        c.Query("actorId"),
		Action:         audit.Action(c.Query("action")),
		DocumentType:   c.Query("documentType"),
		DocumentNumber: c.Query("documentNumber"),
		Limit:          h.ParseIntQuery(c, "limit", 100),
		Offset:         h.ParseIntQuery(c, "offset", 0),
	}

	if v := c.Query("dateFrom"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dateFrom").WithDetail("value", v))
			return
		}
		filter.DateFrom = &t
	}
	if v := c.Query("dateTo"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dateTo").WithDetail("value", v))
			return
		}
		filter.DateTo = &t
	}

	entries, err := h.recorder.Query(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:  dto.FromAuditEntries(entries),
		Count:  len(entries),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}
