// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces instead of concrete database
// implementations; the PostgreSQL implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// WithinTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
// Use for queries that don't modify data.
type ReadOnlyManager interface {
	Manager

	// WithinReadOnlyTransaction executes fn in a read-only transaction.
	// Attempts to modify data will fail.
	WithinReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
