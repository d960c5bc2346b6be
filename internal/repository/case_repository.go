package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/pqrsd-service/internal/domain"
)

// ErrStatusConflict is returned when an optimistic status update finds the
// case no longer in the expected state.
var ErrStatusConflict = errors.New("case status changed concurrently")

// CaseFilter captures listing and counting parameters as typed clauses.
type CaseFilter struct {
	Type                 *domain.CaseType
	Status               *domain.CaseStatus
	ExcludeStatus        *domain.CaseStatus
	Priority             *domain.CasePriority
	AssignedDepartmentID *string
	AssignedUserID       *string
	CreatedFrom          *time.Time
	CreatedTo            *time.Time
	DueBefore            *time.Time
	DueAfter             *time.Time
	Limit                int
	Offset               int
}

// CaseRepository encapsulates case persistence.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	Update(ctx context.Context, c *domain.Case) error
	// UpdateStatusWithHistory applies a status change and its audit entry as
	// one transaction, guarded by the expected current status. Returns
	// ErrStatusConflict when a concurrent transition won the race.
	UpdateStatusWithHistory(ctx context.Context, c *domain.Case, expected domain.CaseStatus, entry *domain.StatusHistoryEntry) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	GetByFilingNumber(ctx context.Context, number string) (*domain.Case, error)
	GetByFilingNumberAndAccessCode(ctx context.Context, number, code string) (*domain.Case, error)
	List(ctx context.Context, filter CaseFilter) ([]domain.Case, int64, error)
	Count(ctx context.Context, filter CaseFilter) (int64, error)
	Delete(ctx context.Context, id string) error
}

type caseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository instantiates repository.
func NewCaseRepository(pool *pgxpool.Pool) CaseRepository {
	return &caseRepository{pool: pool}
}

const caseColumns = `id, filing_number, type, subject, description, status, priority,
               petitioner_category, petitioner_name, petitioner_email, petitioner_phone,
               petitioner_address, petitioner_id_type, petitioner_id_number,
               assigned_department_id, assigned_user_id, due_date, response_date,
               access_code, created_at, updated_at`

func (r *caseRepository) Create(ctx context.Context, c *domain.Case) error {
	const query = `
        INSERT INTO cases (filing_number, type, subject, description, status, priority,
            petitioner_category, petitioner_name, petitioner_email, petitioner_phone,
            petitioner_address, petitioner_id_type, petitioner_id_number,
            assigned_department_id, assigned_user_id, due_date, access_code)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		c.FilingNumber,
		c.Type,
		c.Subject,
		c.Description,
		c.Status,
		c.Priority,
		c.PetitionerCategory,
		c.PetitionerName,
		c.PetitionerEmail,
		c.PetitionerPhone,
		c.PetitionerAddress,
		c.PetitionerIDType,
		c.PetitionerIDNumber,
		c.AssignedDepartmentID,
		c.AssignedUserID,
		c.DueDate,
		c.AccessCode,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *caseRepository) Update(ctx context.Context, c *domain.Case) error {
	const query = `
        UPDATE cases SET subject=$1, description=$2, priority=$3,
            assigned_department_id=$4, assigned_user_id=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		c.Subject,
		c.Description,
		c.Priority,
		c.AssignedDepartmentID,
		c.AssignedUserID,
		c.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *caseRepository) UpdateStatusWithHistory(ctx context.Context, c *domain.Case, expected domain.CaseStatus, entry *domain.StatusHistoryEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const updateQuery = `
        UPDATE cases SET status=$1, response_date=$2,
            assigned_department_id=$3, assigned_user_id=$4, updated_at=NOW()
        WHERE id=$5 AND status=$6
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, updateQuery,
		c.Status,
		c.ResponseDate,
		c.AssignedDepartmentID,
		c.AssignedUserID,
		c.ID,
		expected,
	).Scan(&c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStatusConflict
		}
		return err
	}

	const historyQuery = `
        INSERT INTO case_status_history (case_id, previous_status, new_status, actor_id, reason)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, historyQuery,
		entry.CaseID,
		entry.PreviousStatus,
		entry.NewStatus,
		entry.ActorID,
		entry.Reason,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *caseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *caseRepository) GetByFilingNumber(ctx context.Context, number string) (*domain.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE filing_number=$1`
	return r.fetchSingle(ctx, query, number)
}

func (r *caseRepository) GetByFilingNumberAndAccessCode(ctx context.Context, number, code string) (*domain.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE filing_number=$1 AND access_code=$2`
	return r.fetchSingle(ctx, query, number, code)
}

func (r *caseRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Case, error) {
	var c domain.Case
	if err := scanCase(r.pool.QueryRow(ctx, query, args...), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func buildCaseClauses(filter CaseFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.ExcludeStatus != nil {
		args = append(args, *filter.ExcludeStatus)
		clauses = append(clauses, fmt.Sprintf("status<>$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.AssignedDepartmentID != nil {
		args = append(args, *filter.AssignedDepartmentID)
		clauses = append(clauses, fmt.Sprintf("assigned_department_id=$%d", len(args)))
	}
	if filter.AssignedUserID != nil {
		args = append(args, *filter.AssignedUserID)
		clauses = append(clauses, fmt.Sprintf("assigned_user_id=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		clauses = append(clauses, fmt.Sprintf("due_date < $%d", len(args)))
	}
	if filter.DueAfter != nil {
		args = append(args, *filter.DueAfter)
		clauses = append(clauses, fmt.Sprintf("due_date >= $%d", len(args)))
	}
	return clauses, args
}

func (r *caseRepository) List(ctx context.Context, filter CaseFilter) ([]domain.Case, int64, error) {
	clauses, args := buildCaseClauses(filter)
	where := strings.Join(clauses, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM cases WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM cases WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		caseColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Case
	for rows.Next() {
		var c domain.Case
		if err := scanCase(rows, &c); err != nil {
			return nil, 0, err
		}
		result = append(result, c)
	}
	return result, total, rows.Err()
}

func (r *caseRepository) Count(ctx context.Context, filter CaseFilter) (int64, error) {
	clauses, args := buildCaseClauses(filter)
	query := `SELECT COUNT(*) FROM cases WHERE ` + strings.Join(clauses, " AND ")
	var count int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *caseRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cases WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanCase(row pgx.Row, c *domain.Case) error {
	return row.Scan(
		&c.ID,
		&c.FilingNumber,
		&c.Type,
		&c.Subject,
		&c.Description,
		&c.Status,
		&c.Priority,
		&c.PetitionerCategory,
		&c.PetitionerName,
		&c.PetitionerEmail,
		&c.PetitionerPhone,
		&c.PetitionerAddress,
		&c.PetitionerIDType,
		&c.PetitionerIDNumber,
		&c.AssignedDepartmentID,
		&c.AssignedUserID,
		&c.DueDate,
		&c.ResponseDate,
		&c.AccessCode,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}
