package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"faktura/internal/core/tx"
	"faktura/pkg/logger"
)

// TxManager implements tx.Manager using pgx transactions.
type TxManager struct {
	pool *Pool
}

// NewTxManager creates a transaction manager bound to the given pool.
func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool}
}

var _ tx.Manager = (*TxManager)(nil)

// WithinTransaction executes fn within a database transaction.
// The transaction is committed if fn returns nil, rolled back otherwise.
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tracer := otel.Tracer("faktura/tx")
	ctx, span := tracer.Start(ctx, "WithinTransaction")
	defer span.End()

	pgTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		return fmt.Errorf("begin transaction: %w", err)
	}

	txCtx := withTx(ctx, pgTx)

	if err := fn(txCtx); err != nil {
		if rbErr := pgTx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			logger.Error(ctx, "transaction rollback failed", "error", rbErr)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return fmt.Errorf("commit transaction: %w", err)
	}

	span.SetAttributes(attribute.Bool("tx.committed", true))
	return nil
}

// WithinReadOnlyTransaction executes fn within a read-only transaction.
func (m *TxManager) WithinReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tracer := otel.Tracer("faktura/tx")
	ctx, span := tracer.Start(ctx, "WithinReadOnlyTransaction")
	defer span.End()

	pgTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("begin read-only transaction: %w", err)
	}

	txCtx := withTx(ctx, pgTx)

	if err := fn(txCtx); err != nil {
		if rbErr := pgTx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			logger.Error(ctx, "transaction rollback failed", "error", rbErr)
		}
		span.RecordError(err)
		return err
	}

	return pgTx.Commit(ctx)
}

type txKey struct{}

func withTx(ctx context.Context, t pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, t)
}

// TxFromContext extracts the active transaction from ctx, if any.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	t, ok := ctx.Value(txKey{}).(pgx.Tx)
	return t, ok
}

// DB is the query surface shared by a pool and an open transaction.
// Both *pgxpool.Pool and pgx.Tx satisfy it, so repositories can run
// inside or outside a managed transaction transparently.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Executor returns the active transaction from ctx if one is open,
// otherwise the pool itself.
func (m *TxManager) Executor(ctx context.Context) DB {
	if t, ok := TxFromContext(ctx); ok {
		return t
	}
	return m.pool.Pool
}
