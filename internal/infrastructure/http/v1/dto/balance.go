package dto

import (
	"faktura/internal/core/types"
)

// BalanceResponse is an outstanding receivable figure, tenant-wide or
// for one customer. Only pending invoice-class documents contribute;
// the figure is never negative.
type BalanceResponse struct {
	CustomerID  string      `json:"customerId,omitempty"`
	Outstanding types.Money `json:"outstanding"`
	Documents   int         `json:"documents"`
	Filter      string      `json:"filter,omitempty"`
}
