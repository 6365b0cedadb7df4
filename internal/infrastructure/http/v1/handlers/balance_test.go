package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faktura/internal/core/clock"
	appctx "faktura/internal/core/context"
	"faktura/internal/core/id"
	"faktura/internal/core/types"
	"faktura/internal/domain/billing"
	"faktura/internal/infrastructure/http/v1/dto"
	"faktura/internal/infrastructure/http/v1/handlers"
	"faktura/internal/infrastructure/storage/memory"
	"faktura/pkg/numerator"
)

func tenantCtx() context.Context {
	return appctx.WithActor(context.Background(), &appctx.Actor{
		ActorID:  "user-1",
		TenantID: "tenant-1",
	})
}

func balanceRouter(t *testing.T) (*gin.Engine, *billing.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	clk := clock.NewFixed(time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC))
	svc := billing.NewService(store, store, numerator.NewMemory(), clk)

	h := handlers.NewBalanceHandler(handlers.NewBaseHandler(), svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		ctx := appctx.WithActor(c.Request.Context(), &appctx.Actor{
			ActorID:  "user-1",
			TenantID: "tenant-1",
		})
		c.Request = c.Request.WithContext(ctx)
	})
	router.GET("/balance", h.Outstanding)
	router.GET("/customers/:customerId/balance", h.CustomerBalance)

	return router, svc
}

func seed(t *testing.T, svc *billing.Service, docType billing.DocumentType, customerID, total string) *billing.Document {
	t.Helper()
	doc := billing.NewDocument("tenant-1", docType, customerID)
	doc.AddItem(id.New(), "Subscription", types.MustMoney(total), 1, types.Zero())
	doc.RecalculateTotals(types.Zero())
	require.NoError(t, svc.Create(tenantCtx(), doc))
	return doc
}

func TestOutstanding_TenantWide(t *testing.T) {
	router, svc := balanceRouter(t)

	// 100 invoice with 40 paid, 50 invoice untouched, quote excluded.
	inv := seed(t, svc, billing.TypeInvoice, "cust-1", "100.00")
	_, err := svc.RecordPayment(tenantCtx(), inv.ID, "card", types.MustMoney("40.00"))
	require.NoError(t, err)
	seed(t, svc, billing.TypeInvoice, "cust-2", "50.00")
	seed(t, svc, billing.TypeQuote, "cust-1", "999.00")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/balance", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Outstanding.Equal(types.MustMoney("110.00")),
		"got %s", resp.Outstanding)
	assert.Empty(t, resp.CustomerID)
}

func TestCustomerBalance_ScopedToCustomer(t *testing.T) {
	router, svc := balanceRouter(t)

	inv := seed(t, svc, billing.TypeInvoice, "cust-1", "100.00")
	_, err := svc.RecordPayment(tenantCtx(), inv.ID, "card", types.MustMoney("40.00"))
	require.NoError(t, err)
	seed(t, svc, billing.TypeInvoice, "cust-2", "50.00")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/cust-1/balance", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cust-1", resp.CustomerID)
	assert.True(t, resp.Outstanding.Equal(types.MustMoney("60.00")),
		"got %s", resp.Outstanding)
}
