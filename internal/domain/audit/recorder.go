package audit

import (
	"context"
	"time"

	"faktura/internal/core/id"
)

// Recorder is the append-only log contract.
//
// Append must make the entry immediately visible to any subsequent Query.
// Nothing in this interface mutates or removes entries.
type Recorder interface {
	Append(ctx context.Context, entry Entry) (id.ID, error)
	Query(ctx context.Context, filter Filter) ([]Entry, error)
}

// Filter narrows Query results. Zero-valued fields are ignored.
type Filter struct {
	ActorID        string
	Action         Action
	DocumentType   string
	DocumentNumber string
	DateFrom       *time.Time
	DateTo         *time.Time

	Limit  int
	Offset int
}
