package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/pqrsd-service/internal/domain"
)

// StatusHistoryRepository stores the append-only audit trail.
type StatusHistoryRepository interface {
	Append(ctx context.Context, entry *domain.StatusHistoryEntry) error
	ListByCase(ctx context.Context, caseID string) ([]domain.StatusHistoryEntry, error)
	DeleteByCase(ctx context.Context, caseID string) error
}

type statusHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewStatusHistoryRepository builds repository.
func NewStatusHistoryRepository(pool *pgxpool.Pool) StatusHistoryRepository {
	return &statusHistoryRepository{pool: pool}
}

func (r *statusHistoryRepository) Append(ctx context.Context, entry *domain.StatusHistoryEntry) error {
	const query = `
        INSERT INTO case_status_history (case_id, previous_status, new_status, actor_id, reason)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.CaseID,
		entry.PreviousStatus,
		entry.NewStatus,
		entry.ActorID,
		entry.Reason,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *statusHistoryRepository) ListByCase(ctx context.Context, caseID string) ([]domain.StatusHistoryEntry, error) {
	const query = `
        SELECT id, case_id, previous_status, new_status, actor_id, reason, created_at
        FROM case_status_history WHERE case_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusHistoryEntry
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.CaseID,
			&entry.PreviousStatus,
			&entry.NewStatus,
			&entry.ActorID,
			&entry.Reason,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *statusHistoryRepository) DeleteByCase(ctx context.Context, caseID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM case_status_history WHERE case_id=$1`, caseID)
	return err
}
