package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/pqrsd-service/internal/domain"
)

// AttachmentRepository stores attachment metadata. Binary content lives in
// external object storage.
type AttachmentRepository interface {
	Create(ctx context.Context, att *domain.AttachmentMeta) error
	ListByCase(ctx context.Context, caseID string) ([]domain.AttachmentMeta, error)
	DeleteByCase(ctx context.Context, caseID string) error
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository instantiates repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, att *domain.AttachmentMeta) error {
	const query = `
        INSERT INTO case_attachments (case_id, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		att.CaseID,
		att.StorageKey,
		att.FileName,
		att.MimeType,
		att.SizeBytes,
	).Scan(&att.ID, &att.CreatedAt)
}

func (r *attachmentRepository) ListByCase(ctx context.Context, caseID string) ([]domain.AttachmentMeta, error) {
	const query = `
        SELECT id, case_id, storage_key, file_name, mime_type, size_bytes, created_at
        FROM case_attachments WHERE case_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AttachmentMeta
	for rows.Next() {
		var att domain.AttachmentMeta
		if err := rows.Scan(
			&att.ID,
			&att.CaseID,
			&att.StorageKey,
			&att.FileName,
			&att.MimeType,
			&att.SizeBytes,
			&att.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, att)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) DeleteByCase(ctx context.Context, caseID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM case_attachments WHERE case_id=$1`, caseID)
	return err
}
