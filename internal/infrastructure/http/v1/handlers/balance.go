package handlers

import (
	"github.com/gin-gonic/gin"

	"faktura/internal/core/apperror"
	"faktura/internal/domain/billing"
	"faktura/internal/domain/reconcile"
	"faktura/internal/infrastructure/http/v1/dto"
)

// BalanceHandler serves outstanding balance queries.
type BalanceHandler struct {
	*BaseHandler
	billing *billing.Service
}

// NewBalanceHandler creates a new balance handler.
func NewBalanceHandler(base *BaseHandler, billingSvc *billing.Service) *BalanceHandler {
	return &BalanceHandler{BaseHandler: base, billing: billingSvc}
}

// Outstanding handles GET /balance.
//
// Returns the tenant-wide outstanding receivable over all pending
// invoice-class documents. An optional "filter" query carries a CEL
// expression to scope the figure, e.g. `total > 100.0`.
func (h *BalanceHandler) Outstanding(c *gin.Context) {
	pending := billing.StatusPending
	docs, err := h.billing.List(c.Request.Context(), billing.ListFilter{
		Status: &pending,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.renderBalance(c, "", docs)
}

// CustomerBalance handles GET /customers/:customerId/balance.
//
// Same computation as Outstanding, scoped to one customer.
func (h *BalanceHandler) CustomerBalance(c *gin.Context) {
	customerID := c.Param("customerId")
	if customerID == "" {
		h.Error(c, apperror.NewValidation("customer id is required"))
		return
	}

	pending := billing.StatusPending
	docs, err := h.billing.List(c.Request.Context(), billing.ListFilter{
		CustomerID: &customerID,
		Status:     &pending,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.renderBalance(c, customerID, docs)
}

func (h *BalanceHandler) renderBalance(c *gin.Context, customerID string, docs []*billing.Document) {
	resp := dto.BalanceResponse{
		CustomerID: customerID,
		Documents:  len(docs),
	}

	if expr := c.Query("filter"); expr != "" {
		pred, err := reconcile.CompilePredicate(expr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid filter expression").
				WithDetail("filter", expr).WithDetail("error", err.Error()))
			return
		}
		outstanding, err := reconcile.OutstandingWhere(docs, pred)
		if err != nil {
			h.Error(c, apperror.NewValidation("filter evaluation failed").
				WithDetail("filter", expr).WithDetail("error", err.Error()))
			return
		}
		resp.Outstanding = outstanding
		resp.Filter = expr
	} else {
		resp.Outstanding = reconcile.Outstanding(docs)
	}

	h.OK(c, resp)
}
