// Package document_repo provides the PostgreSQL document store.
// Tenant isolation is logical: every query is scoped by the tenant_id
// column taken from the request context.
package document_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"faktura/internal/core/apperror"
	appctx "faktura/internal/core/context"
	"faktura/internal/core/id"
	"faktura/internal/domain/billing"
	"faktura/internal/infrastructure/storage/postgres"
)

const tableName = "documents"

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

// documentRow is the flat storage shape of billing.Document.
// Line items and payments are stored as JSONB; the recurrence schedule
// is flattened into nullable columns so due templates can be selected
// with a plain WHERE clause.
type documentRow struct {
	billing.Document

	ItemsJSON    []byte `db:"items"`
	PaymentsJSON []byte `db:"payments"`

	RecurrenceFrequency *string    `db:"recurrence_frequency"`
	RecurrenceNextDue   *time.Time `db:"recurrence_next_due"`
	RecurrenceActive    *bool      `db:"recurrence_active"`
}

// DocumentRepo implements billing.Repository on PostgreSQL.
type DocumentRepo struct {
	txm        *postgres.TxManager
	selectCols []string
}

var _ billing.Repository = (*DocumentRepo)(nil)

// NewDocumentRepo creates the repository bound to a transaction manager.
func NewDocumentRepo(txm *postgres.TxManager) *DocumentRepo {
	return &DocumentRepo{
		txm:        txm,
		selectCols: postgres.ExtractDBColumns[documentRow](),
	}
}

func (r *DocumentRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func toRow(doc *billing.Document) (*documentRow, error) {
	itemsJSON, err := json.Marshal(doc.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	paymentsJSON, err := json.Marshal(doc.Payments)
	if err != nil {
		return nil, fmt.Errorf("marshal payments: %w", err)
	}

	row := &documentRow{
		Document:     *doc,
		ItemsJSON:    itemsJSON,
		PaymentsJSON: paymentsJSON,
	}
	if doc.Recurrence != nil {
		freq := string(doc.Recurrence.Frequency)
		nextDue := doc.Recurrence.NextDueDate
		active := doc.Recurrence.IsActive
		row.RecurrenceFrequency = &freq
		row.RecurrenceNextDue = &nextDue
		row.RecurrenceActive = &active
	}
	return row, nil
}

func fromRow(row *documentRow) (*billing.Document, error) {
	doc := row.Document

	doc.Items = make([]billing.LineItem, 0)
	if len(row.ItemsJSON) > 0 {
		if err := json.Unmarshal(row.ItemsJSON, &doc.Items); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
	}
	doc.Payments = make([]billing.Payment, 0)
	if len(row.PaymentsJSON) > 0 {
		if err := json.Unmarshal(row.PaymentsJSON, &doc.Payments); err != nil {
			return nil, fmt.Errorf("unmarshal payments: %w", err)
		}
	}

	if row.RecurrenceFrequency != nil && row.RecurrenceNextDue != nil {
		active := false
		if row.RecurrenceActive != nil {
			active = *row.RecurrenceActive
		}
		doc.Recurrence = &billing.Recurrence{
			Frequency:   billing.Frequency(*row.RecurrenceFrequency),
			NextDueDate: *row.RecurrenceNextDue,
			IsActive:    active,
		}
	}

	return &doc, nil
}

// tenantScope adds tenant filtering when the caller carries a tenant.
// Callers without a tenant (system jobs) see all tenants.
func tenantScope(ctx context.Context, q squirrel.SelectBuilder) squirrel.SelectBuilder {
	if tenantID := appctx.GetTenantID(ctx); tenantID != "" {
		q = q.Where(squirrel.Eq{"tenant_id": tenantID})
	}
	return q
}

// Create inserts a new document. A number collision within the tenant
// maps to CodeDuplicateNumber so callers can renumber and retry.
func (r *DocumentRepo) Create(ctx context.Context, doc *billing.Document) error {
	row, err := toRow(doc)
	if err != nil {
		return apperror.NewStoreWrite("create", err)
	}

	data := postgres.StructToMap(row)
	if len(data) == 0 {
		return apperror.NewStoreWrite("create", fmt.Errorf("no db columns for document"))
	}

	q := r.builder().
		Insert(tableName).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return apperror.NewStoreWrite("create", fmt.Errorf("build insert: %w", err))
	}

	db := r.txm.Executor(ctx)
	if _, err := db.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperror.NewDuplicateNumber(doc.Number)
		}
		return apperror.NewStoreWrite("create", err)
	}

	return nil
}

// Update rewrites a document with optimistic locking on version.
// Domain mutations bump the version via Touch before the write lands
// here, so the stored row must still carry the previous version; a
// mismatch means a concurrent writer won and the caller re-reads.
func (r *DocumentRepo) Update(ctx context.Context, doc *billing.Document) error {
	row, err := toRow(doc)
	if err != nil {
		return apperror.NewStoreWrite("update", err)
	}

	data := postgres.StructToMap(row)
	delete(data, "id")
	delete(data, "tenant_id")
	delete(data, "created_at")

	q := r.builder().
		Update(tableName).
		SetMap(data).
		Where(squirrel.Eq{"id": doc.ID}).
		Where(squirrel.Eq{"version": doc.Version - 1})

	if tenantID := appctx.GetTenantID(ctx); tenantID != "" {
		q = q.Where(squirrel.Eq{"tenant_id": tenantID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return apperror.NewStoreWrite("update", fmt.Errorf("build update: %w", err))
	}

	db := r.txm.Executor(ctx)
	result, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewStoreWrite("update", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConflict("document was modified concurrently").
			WithDetail("document_id", doc.ID.String()).
			WithDetail("version", doc.Version)
	}

	return nil
}

func (r *DocumentRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(tableName)
}

// GetByID retrieves a single document visible to the caller's tenant.
func (r *DocumentRepo) GetByID(ctx context.Context, docID id.ID) (*billing.Document, error) {
	q := tenantScope(ctx, r.baseSelect()).
		Where(squirrel.Eq{"id": docID})
	return r.getOne(ctx, q, docID.String())
}

// GetByNumber retrieves a document by its business number.
func (r *DocumentRepo) GetByNumber(ctx context.Context, number string) (*billing.Document, error) {
	q := tenantScope(ctx, r.baseSelect()).
		Where(squirrel.Eq{"number": number})
	return r.getOne(ctx, q, number)
}

func (r *DocumentRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*billing.Document, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row documentRow
	db := r.txm.Executor(ctx)
	if err := pgxscan.Get(ctx, db, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("document", key)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return fromRow(&row)
}

// List retrieves documents matching the filter, scoped to the caller's
// tenant.
func (r *DocumentRepo) List(ctx context.Context, filter billing.ListFilter) ([]*billing.Document, error) {
	q := tenantScope(ctx, r.baseSelect())

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"doc_type": *filter.Type})
	}
	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.IsRecurring != nil {
		q = q.Where(squirrel.Eq{"is_recurring": *filter.IsRecurring})
	}
	if filter.RecurrenceActive != nil {
		q = q.Where(squirrel.Eq{"recurrence_active": *filter.RecurrenceActive})
	}
	if filter.DueBefore != nil {
		q = q.Where(squirrel.LtOrEq{"recurrence_next_due": *filter.DueBefore})
	}
	if filter.CreatedFrom != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.CreatedTo})
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return nil, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []*documentRow
	db := r.txm.Executor(ctx)
	if err := pgxscan.Select(ctx, db, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]*billing.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (r *DocumentRepo) parseOrderBy(orderBy string) (string, error) {
	allowed := make(map[string]struct{}, len(r.selectCols))
	for _, col := range r.selectCols {
		allowed[col] = struct{}{}
	}

	if strings.TrimSpace(orderBy) == "" {
		return "number ASC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").
			WithDetail("orderBy", orderBy).WithDetail("field", field)
	}

	return field + " " + direction, nil
}
