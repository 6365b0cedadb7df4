package dto

import (
	"time"

	"faktura/internal/domain/audit"
)

// AuditEntryResponse mirrors one audit row.
type AuditEntryResponse struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	ActorID        string    `json:"actorId"`
	ActorName      string    `json:"actorName"`
	Action         string    `json:"action"`
	DocumentType   string    `json:"documentType"`
	DocumentID     string    `json:"documentId"`
	DocumentNumber string    `json:"documentNumber"`
	Details        string    `json:"details,omitempty"`
}

// FromAuditEntry maps one entry.
func FromAuditEntry(e audit.Entry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:             e.ID.String(),
		Date:           e.Date,
		ActorID:        e.ActorID,
		ActorName:      e.ActorName,
		Action:         string(e.Action),
		DocumentType:   e.DocumentType,
		DocumentID:     e.DocumentID.String(),
		DocumentNumber: e.DocumentNumber,
		Details:        e.Details,
	}
}

// FromAuditEntries maps an entry slice.
func FromAuditEntries(entries []audit.Entry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromAuditEntry(e))
	}
	return out
}
