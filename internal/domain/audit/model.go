// Package audit provides the append-only trail of mutating actions taken
// against documents. Entries are never updated or deleted once written.
package audit

import (
	"context"
	"time"

	appctx "faktura/internal/core/context"
	"faktura/internal/core/id"
)

// Action is the type of audited operation.
type Action string

const (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionTransform Action = "transform"
)

// Entry is one immutable audit row. It references a document only by
// id/number: a weak reference that never cascades.
type Entry struct {
	ID       id.ID     `db:"id" json:"id"`
	TenantID string    `db:"tenant_id" json:"tenantId"`
	Date     time.Time `db:"date" json:"date"`

	ActorID   string `db:"actor_id" json:"actorId"`
	ActorName string `db:"actor_name" json:"actorName"`

	Action Action `db:"action" json:"action"`

	DocumentType   string `db:"document_type" json:"documentType"`
	DocumentID     id.ID  `db:"document_id" json:"documentId"`
	DocumentNumber string `db:"document_number" json:"documentNumber"`

	Details string `db:"details" json:"details,omitempty"`
}

// NewEntry builds an entry for the given action, enriching actor and tenant
// from the request context. Date and ID are assigned here so that entries are
// complete before they reach a Recorder.
func NewEntry(ctx context.Context, action Action, documentType string, documentID id.ID, documentNumber, details string) Entry {
	return Entry{
		ID:             id.New(),
		TenantID:       appctx.GetTenantID(ctx),
		Date:           time.Now().UTC(),
		ActorID:        appctx.GetActorID(ctx),
		ActorName:      appctx.GetActorName(ctx),
		Action:         action,
		DocumentType:   documentType,
		DocumentID:     documentID,
		DocumentNumber: documentNumber,
		Details:        details,
	}
}
