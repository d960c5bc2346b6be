package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/pqrsd-service/internal/domain"
)

// CommentRepository stores operator comments on cases.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByCase(ctx context.Context, caseID string, includeInternal bool) ([]domain.Comment, error)
	DeleteByCase(ctx context.Context, caseID string) error
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository instantiates repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO case_comments (case_id, user_id, body, is_internal)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.CaseID,
		comment.UserID,
		comment.Body,
		comment.Internal,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByCase(ctx context.Context, caseID string, includeInternal bool) ([]domain.Comment, error) {
	query := `
        SELECT id, case_id, user_id, body, is_internal, created_at
        FROM case_comments WHERE case_id=$1`
	if !includeInternal {
		query += ` AND is_internal=FALSE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.CaseID,
			&comment.UserID,
			&comment.Body,
			&comment.Internal,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

func (r *commentRepository) DeleteByCase(ctx context.Context, caseID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM case_comments WHERE case_id=$1`, caseID)
	return err
}
