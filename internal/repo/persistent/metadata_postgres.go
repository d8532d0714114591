package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ecosort/recyclesort/internal/entity"
	"github.com/ecosort/recyclesort/pkg/postgres"
	"github.com/ecosort/recyclesort/pkg/types/errs"
)

const (
	// Table
	metadataTable = "image_metadata"

	// Columns
	objectKeyColumn      = "object_key"
	createdAtColumn      = "created_at"
	bucketNameColumn     = "bucket_name"
	fileNameColumn       = "file_name"
	sizeBytesColumn      = "size_bytes"
	contentTypeColumn    = "content_type"
	ownerIDColumn        = "owner_id"
	inferenceColumn      = "inference_results"
	classificationColumn = "classification"

	// Page size for the classified-records scan.
	scanPageSize = 100
)

type MetadataRepo struct {
	*postgres.Postgres
}

func NewMetadataRepo(pg *postgres.Postgres) *MetadataRepo {
	return &MetadataRepo{pg}
}

// Put is create-or-replace on the exact composite key (object_key,
// created_at), which makes duplicate stage-1 deliveries idempotent.
func (r *MetadataRepo) Put(ctx context.Context, record *entity.ImageRecord) error {
	sql, args, err := r.Builder.
		Insert(metadataTable).
		Columns(
			objectKeyColumn,
			createdAtColumn,
			bucketNameColumn,
			fileNameColumn,
			sizeBytesColumn,
			contentTypeColumn,
			ownerIDColumn,
		).
		Values(
			record.ObjectKey,
			record.CreatedAt,
			record.BucketName,
			record.FileName,
			record.SizeBytes,
			record.ContentType,
			record.OwnerID,
		).
		Suffix(fmt.Sprintf(
			"ON CONFLICT (%s, %s) DO UPDATE SET %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s",
			objectKeyColumn, createdAtColumn,
			bucketNameColumn, bucketNameColumn,
			fileNameColumn, fileNameColumn,
			sizeBytesColumn, sizeBytesColumn,
			contentTypeColumn, contentTypeColumn,
			ownerIDColumn, ownerIDColumn,
		)).
		ToSql()
	if err != nil {
		return fmt.Errorf("MetadataRepo - Put - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("MetadataRepo - Put - executor.Exec: %w", err)
	}

	return nil
}

func (r *MetadataRepo) GetLatestByObjectKey(ctx context.Context, objectKey string) (*entity.ImageRecord, error) {
	sql, args, err := r.selectRecords().
		Where(squirrel.Eq{objectKeyColumn: objectKey}).
		OrderBy(createdAtColumn + " DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("MetadataRepo - GetLatestByObjectKey - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	record, err := scanRecord(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("MetadataRepo - GetLatestByObjectKey: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("MetadataRepo - GetLatestByObjectKey - executor.QueryRow: %w", err)
	}

	return record, nil
}

// ListByOwner returns an empty slice when the owner has no records; that is
// success, not an error.
func (r *MetadataRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.ImageRecord, error) {
	sql, args, err := r.selectRecords().
		Where(squirrel.Eq{ownerIDColumn: ownerID}).
		OrderBy(objectKeyColumn + " ASC", createdAtColumn + " ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("MetadataRepo - ListByOwner - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("MetadataRepo - ListByOwner - executor.Query: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.ImageRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("MetadataRepo - ListByOwner - rows.Scan: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("MetadataRepo - ListByOwner - rows.Err: %w", err)
	}

	return records, nil
}

// ListClassified scans for records with a classification present, following
// keyset continuation pages until the scan is exhausted.
func (r *MetadataRepo) ListClassified(ctx context.Context) ([]*entity.ImageRecord, error) {
	executor := r.GetExecutor(ctx)

	records := make([]*entity.ImageRecord, 0)

	var lastKey string
	var lastCreated time.Time
	havePage := false

	for {
		builder := r.selectRecords().
			Where(classificationColumn + " IS NOT NULL").
			OrderBy(objectKeyColumn+" ASC", createdAtColumn+" ASC").
			Limit(scanPageSize)

		if havePage {
			builder = builder.Where(
				squirrel.Expr(fmt.Sprintf("(%s, %s) > (?, ?)", objectKeyColumn, createdAtColumn), lastKey, lastCreated),
			)
		}

		sql, args, err := builder.ToSql()
		if err != nil {
			return nil, fmt.Errorf("MetadataRepo - ListClassified - r.Builder.ToSql: %w", err)
		}

		rows, err := executor.Query(ctx, sql, args...)
		if err != nil {
			return nil, fmt.Errorf("MetadataRepo - ListClassified - executor.Query: %w", err)
		}

		pageCount := 0
		for rows.Next() {
			record, err := scanRecord(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("MetadataRepo - ListClassified - rows.Scan: %w", err)
			}

			records = append(records, record)
			lastKey, lastCreated = record.ObjectKey, record.CreatedAt
			pageCount++
		}
		rows.Close()

		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("MetadataRepo - ListClassified - rows.Err: %w", err)
		}

		if pageCount < scanPageSize {
			return records, nil
		}

		havePage = true
	}
}

func (r *MetadataRepo) SetInferenceResults(ctx context.Context, objectKey string, createdAt time.Time, labels []entity.Label) error {
	payload, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("MetadataRepo - SetInferenceResults - json.Marshal: %w", err)
	}

	sql, args, err := r.Builder.
		Update(metadataTable).
		Set(inferenceColumn, payload).
		Where(squirrel.And{
			squirrel.Eq{objectKeyColumn: objectKey},
			squirrel.Eq{createdAtColumn: createdAt},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("MetadataRepo - SetInferenceResults - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("MetadataRepo - SetInferenceResults - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("MetadataRepo - SetInferenceResults: %w", errs.ErrRecordNotFound)
	}

	return nil
}

// SetClassification refuses to update a record whose inference results are
// still absent: classification is derived from inference, never independent.
func (r *MetadataRepo) SetClassification(ctx context.Context, objectKey string, createdAt time.Time, rule *entity.PairwiseRule) error {
	payload, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("MetadataRepo - SetClassification - json.Marshal: %w", err)
	}

	sql, args, err := r.Builder.
		Update(metadataTable).
		Set(classificationColumn, payload).
		Where(squirrel.And{
			squirrel.Eq{objectKeyColumn: objectKey},
			squirrel.Eq{createdAtColumn: createdAt},
			squirrel.Expr(inferenceColumn + " IS NOT NULL"),
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("MetadataRepo - SetClassification - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("MetadataRepo - SetClassification - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("MetadataRepo - SetClassification: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *MetadataRepo) selectRecords() squirrel.SelectBuilder {
	return r.Builder.
		Select(
			objectKeyColumn,
			createdAtColumn,
			bucketNameColumn,
			fileNameColumn,
			sizeBytesColumn,
			contentTypeColumn,
			ownerIDColumn,
			inferenceColumn,
			classificationColumn,
		).
		From(metadataTable)
}

func scanRecord(row pgx.Row) (*entity.ImageRecord, error) {
	var record entity.ImageRecord
	var inference, classification []byte

	err := row.Scan(
		&record.ObjectKey,
		&record.CreatedAt,
		&record.BucketName,
		&record.FileName,
		&record.SizeBytes,
		&record.ContentType,
		&record.OwnerID,
		&inference,
		&classification,
	)
	if err != nil {
		return nil, err
	}

	if inference != nil {
		if err := json.Unmarshal(inference, &record.InferenceResults); err != nil {
			return nil, fmt.Errorf("unmarshal inference results: %w", err)
		}
	}

	if classification != nil {
		record.Classification = &entity.PairwiseRule{}
		if err := json.Unmarshal(classification, record.Classification); err != nil {
			return nil, fmt.Errorf("unmarshal classification: %w", err)
		}
	}

	return &record, nil
}
