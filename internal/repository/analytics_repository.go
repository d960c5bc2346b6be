package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/pqrsd-service/internal/domain"
)

// StatsFilter scopes aggregate queries by creation time range and department.
type StatsFilter struct {
	From         *time.Time
	To           *time.Time
	DepartmentID *string
}

// MonthlyCount is one (year, month) bucket of the creation time series.
type MonthlyCount struct {
	Year   int
	Month  int
	Total  int64
	Closed int64
}

// GroupCount is one bucket of a by-type or by-department breakdown.
// AvgResponseDays is nil when the bucket has no responded cases.
type GroupCount struct {
	Key             string
	Total           int64
	Closed          int64
	AvgResponseDays *float64
}

// AnalyticsRepository computes raw aggregates over the case store. Derived
// ratios (response rate, compliance) are computed by the metrics service.
type AnalyticsRepository interface {
	Total(ctx context.Context, filter StatsFilter) (int64, error)
	CountByStatus(ctx context.Context, filter StatsFilter) (map[domain.CaseStatus]int64, error)
	CountCreatedBetween(ctx context.Context, filter StatsFilter, from, to time.Time) (int64, error)
	// OverdueCount counts cases past their due date and not yet closed.
	OverdueCount(ctx context.Context, filter StatsFilter, now time.Time) (int64, error)
	// AverageResponseDays averages (response_date - created_at) in days over
	// cases with a response date; returns 0 and false when none exist.
	AverageResponseDays(ctx context.Context, filter StatsFilter) (float64, bool, error)
	MonthlyCounts(ctx context.Context, filter StatsFilter, limit int) ([]MonthlyCount, error)
	CountsByType(ctx context.Context, filter StatsFilter) ([]GroupCount, error)
	CountsByDepartment(ctx context.Context, filter StatsFilter) ([]GroupCount, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository instantiates repository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func statsClauses(filter StatsFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("c.created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("c.created_at <= $%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("c.assigned_department_id = $%d", len(args)))
	}
	return clauses, args
}

func (r *analyticsRepository) Total(ctx context.Context, filter StatsFilter) (int64, error) {
	clauses, args := statsClauses(filter)
	query := `SELECT COUNT(*) FROM cases c WHERE ` + strings.Join(clauses, " AND ")
	var total int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func (r *analyticsRepository) CountByStatus(ctx context.Context, filter StatsFilter) (map[domain.CaseStatus]int64, error) {
	clauses, args := statsClauses(filter)
	query := `SELECT c.status, COUNT(*) FROM cases c WHERE ` + strings.Join(clauses, " AND ") +
		` GROUP BY c.status`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.CaseStatus]int64)
	for rows.Next() {
		var status domain.CaseStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *analyticsRepository) CountCreatedBetween(ctx context.Context, filter StatsFilter, from, to time.Time) (int64, error) {
	clauses, args := statsClauses(filter)
	args = append(args, from)
	clauses = append(clauses, fmt.Sprintf("c.created_at >= $%d", len(args)))
	args = append(args, to)
	clauses = append(clauses, fmt.Sprintf("c.created_at <= $%d", len(args)))

	query := `SELECT COUNT(*) FROM cases c WHERE ` + strings.Join(clauses, " AND ")
	var count int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *analyticsRepository) OverdueCount(ctx context.Context, filter StatsFilter, now time.Time) (int64, error) {
	clauses, args := statsClauses(filter)
	args = append(args, now)
	clauses = append(clauses, fmt.Sprintf("c.due_date < $%d", len(args)))
	args = append(args, domain.CaseStatusClosed)
	clauses = append(clauses, fmt.Sprintf("c.status <> $%d", len(args)))

	query := `SELECT COUNT(*) FROM cases c WHERE ` + strings.Join(clauses, " AND ")
	var count int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *analyticsRepository) AverageResponseDays(ctx context.Context, filter StatsFilter) (float64, bool, error) {
	clauses, args := statsClauses(filter)
	clauses = append(clauses, "c.response_date IS NOT NULL")
	query := `
        SELECT AVG(EXTRACT(EPOCH FROM (c.response_date - c.created_at))/86400)
        FROM cases c WHERE ` + strings.Join(clauses, " AND ")

	var avg *float64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&avg); err != nil {
		return 0, false, err
	}
	if avg == nil {
		return 0, false, nil
	}
	return *avg, true, nil
}

func (r *analyticsRepository) MonthlyCounts(ctx context.Context, filter StatsFilter, limit int) ([]MonthlyCount, error) {
	if limit <= 0 {
		limit = 12
	}
	clauses, args := statsClauses(filter)
	args = append(args, domain.CaseStatusClosed)
	closedParam := len(args)

	query := fmt.Sprintf(`
        SELECT EXTRACT(YEAR FROM c.created_at)::int AS year,
               EXTRACT(MONTH FROM c.created_at)::int AS month,
               COUNT(*) AS total,
               COUNT(*) FILTER (WHERE c.status = $%d) AS closed
        FROM cases c WHERE %s
        GROUP BY year, month
        ORDER BY year DESC, month DESC
        LIMIT %d`, closedParam, strings.Join(clauses, " AND "), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MonthlyCount
	for rows.Next() {
		var mc MonthlyCount
		if err := rows.Scan(&mc.Year, &mc.Month, &mc.Total, &mc.Closed); err != nil {
			return nil, err
		}
		result = append(result, mc)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) CountsByType(ctx context.Context, filter StatsFilter) ([]GroupCount, error) {
	clauses, args := statsClauses(filter)
	args = append(args, domain.CaseStatusClosed)
	closedParam := len(args)

	query := fmt.Sprintf(`
        SELECT c.type,
               COUNT(*) AS total,
               COUNT(*) FILTER (WHERE c.status = $%d) AS closed,
               AVG(CASE WHEN c.response_date IS NOT NULL
                   THEN EXTRACT(EPOCH FROM (c.response_date - c.created_at))/86400 END) AS avg_response_days
        FROM cases c WHERE %s
        GROUP BY c.type`, closedParam, strings.Join(clauses, " AND "))

	return r.queryGroups(ctx, query, args)
}

func (r *analyticsRepository) CountsByDepartment(ctx context.Context, filter StatsFilter) ([]GroupCount, error) {
	clauses, args := statsClauses(filter)
	clauses = append(clauses, "c.assigned_department_id IS NOT NULL")
	args = append(args, domain.CaseStatusClosed)
	closedParam := len(args)

	query := fmt.Sprintf(`
        SELECT d.name,
               COUNT(*) AS total,
               COUNT(*) FILTER (WHERE c.status = $%d) AS closed,
               AVG(CASE WHEN c.response_date IS NOT NULL
                   THEN EXTRACT(EPOCH FROM (c.response_date - c.created_at))/86400 END) AS avg_response_days
        FROM cases c
        LEFT JOIN departments d ON d.id = c.assigned_department_id
        WHERE %s
        GROUP BY d.name`, closedParam, strings.Join(clauses, " AND "))

	return r.queryGroups(ctx, query, args)
}

func (r *analyticsRepository) queryGroups(ctx context.Context, query string, args []any) ([]GroupCount, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GroupCount
	for rows.Next() {
		var gc GroupCount
		if err := rows.Scan(&gc.Key, &gc.Total, &gc.Closed, &gc.AvgResponseDays); err != nil {
			return nil, err
		}
		result = append(result, gc)
	}
	return result, rows.Err()
}
