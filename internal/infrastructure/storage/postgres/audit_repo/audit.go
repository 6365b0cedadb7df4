// Package audit_repo provides the PostgreSQL audit trail.
// Rows are insert-only; there is no update or delete path.
package audit_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "faktura/internal/core/context"
	"faktura/internal/core/apperror"
	"faktura/internal/core/id"
	"faktura/internal/domain/audit"
	"faktura/internal/infrastructure/storage/postgres"
)

const tableName = "audit_entries"

// compressionAlgo marks how the details column is encoded.
type compressionAlgo string

const (
	compressionNone compressionAlgo = "none"
	compressionZstd compressionAlgo = "zstd"
)

// auditRow is the storage shape of audit.Entry. Large detail payloads
// are stored zstd-compressed; small ones stay as plain text.
type auditRow struct {
	audit.Entry

	DetailsCompressed []byte          `db:"details_compressed"`
	CompressionAlgo   compressionAlgo `db:"compression_algo"`
}

// AuditRepo implements audit.Recorder on PostgreSQL.
type AuditRepo struct {
	txm               *postgres.TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
	selectCols        []string
}

var _ audit.Recorder = (*AuditRepo)(nil)

// NewAuditRepo creates the repository bound to a transaction manager.
func NewAuditRepo(txm *postgres.TxManager) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditRepo{
		txm:               txm,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
		selectCols:        postgres.ExtractDBColumns[auditRow](),
	}, nil
}

func (r *AuditRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Append inserts one audit row and returns its id.
// The entry is visible to Query as soon as Append returns.
func (r *AuditRepo) Append(ctx context.Context, entry audit.Entry) (id.ID, error) {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}

	row := auditRow{Entry: entry, CompressionAlgo: compressionNone}
	if len(entry.Details) > r.compressThreshold {
		row.DetailsCompressed = r.encoder.EncodeAll([]byte(entry.Details), nil)
		row.Details = ""
		row.CompressionAlgo = compressionZstd
	}

	data := postgres.StructToMap(&row)

	q := r.builder().
		Insert(tableName).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return id.Nil(), apperror.NewStoreWrite("audit append", fmt.Errorf("build insert: %w", err))
	}

	db := r.txm.Executor(ctx)
	if _, err := db.Exec(ctx, sql, args...); err != nil {
		return id.Nil(), apperror.NewStoreWrite("audit append", err)
	}

	return entry.ID, nil
}

// Query retrieves entries matching the filter, newest first, scoped to
// the caller's tenant.
func (r *AuditRepo) Query(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	q := r.builder().
		Select(r.selectCols...).
		From(tableName)

	if tenantID := appctx.GetTenantID(ctx); tenantID != "" {
		q = q.Where(squirrel.Eq{"tenant_id": tenantID})
	}

	if filter.ActorID != "" {
		q = q.Where(squirrel.Eq{"actor_id": filter.ActorID})
	}
	if filter.Action != "" {
		q = q.Where(squirrel.Eq{"action": filter.Action})
	}
	if filter.DocumentType != "" {
		q = q.Where(squirrel.Eq{"document_type": filter.DocumentType})
	}
	if filter.DocumentNumber != "" {
		q = q.Where(squirrel.Eq{"document_number": filter.DocumentNumber})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	q = q.OrderBy("date DESC")

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

	var rows []auditRow
	db := r.txm.Executor(ctx)
	if err := pgxscan.Select(ctx, db, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		entry := row.Entry
		if row.CompressionAlgo == compressionZstd && len(row.DetailsCompressed) > 0 {
			decompressed, err := r.decoder.DecodeAll(row.DetailsCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress details: %w", err)
			}
			entry.Details = string(decompressed)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// DocumentHistory retrieves the trail of one document, newest first.
func (r *AuditRepo) DocumentHistory(ctx context.Context, documentID id.ID, limit int) ([]audit.Entry, error) {
	if id.IsNil(documentID) {
		return nil, apperror.NewValidation("document id is required")
	}

	q := r.builder().
		Select(r.selectCols...).
		From(tableName).
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("date DESC")

	if tenantID := appctx.GetTenantID(ctx); tenantID != "" {
		q = q.Where(squirrel.Eq{"tenant_id": tenantID})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []auditRow
	db := r.txm.Executor(ctx)
	if err := pgxscan.Select(ctx, db, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("query document history: %w", err)
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		entry := row.Entry
		if row.CompressionAlgo == compressionZstd && len(row.DetailsCompressed) > 0 {
			decompressed, err := r.decoder.DecodeAll(row.DetailsCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress details: %w", err)
			}
			entry.Details = string(decompressed)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
