package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/pqrsd-service/internal/domain"
	"github.com/spec-kit/pqrsd-service/internal/repository"
	apperrors "github.com/spec-kit/pqrsd-service/pkg/util/errorutil"
)

// DashboardMetrics is the headline aggregate for the operator dashboard.
type DashboardMetrics struct {
	Total            int64   `json:"total"`
	Active           int64   `json:"active"`
	Closed           int64   `json:"closed"`
	Overdue          int64   `json:"overdue"`
	CreatedThisMonth int64   `json:"created_this_month"`
	AvgResponseDays  float64 `json:"avg_response_days"`
	ResponseRate     float64 `json:"response_rate"`
}

// PerformanceMetrics reports deadline compliance.
type PerformanceMetrics struct {
	TotalVolume     int64   `json:"total_volume"`
	OnTimeResponses int64   `json:"on_time_responses"`
	OverdueCount    int64   `json:"overdue_count"`
	AvgResponseDays float64 `json:"avg_response_days"`
	ComplianceRate  float64 `json:"compliance_rate"`
}

// MonthlyStat is one bucket of the creation-month time series.
type MonthlyStat struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	Total        int64   `json:"total"`
	Closed       int64   `json:"closed"`
	ResponseRate float64 `json:"response_rate"`
}

// GroupStat is one bucket of a by-type or by-department breakdown.
// AvgResponseDays is nil when no case in the bucket has been responded.
type GroupStat struct {
	Key             string   `json:"key"`
	Total           int64    `json:"total"`
	Closed          int64    `json:"closed"`
	Pending         int64    `json:"pending"`
	ResponseRate    float64  `json:"response_rate"`
	AvgResponseDays *float64 `json:"avg_response_days"`
}

// MetricsService is the read-only aggregation layer over the case store.
// All ratios guard against zero denominators. The overdue definition is the
// canonical one: due date passed and status not Closed.
type MetricsService struct {
	analytics repository.AnalyticsRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    *zap.Logger
	clock     func() time.Time
}

// MetricsDependencies bundles collaborators for the metrics service.
type MetricsDependencies struct {
	AnalyticsRepo repository.AnalyticsRepository
	Cache         *redis.Client
	CacheTTL      time.Duration
	Logger        *zap.Logger
	Clock         func() time.Time
}

// NewMetricsService constructs the service.
func NewMetricsService(deps MetricsDependencies) *MetricsService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsService{
		analytics: deps.AnalyticsRepo,
		cache:     deps.Cache,
		cacheTTL:  deps.CacheTTL,
		logger:    logger,
		clock:     clock,
	}
}

// Dashboard computes the headline metrics, served from the Redis cache when
// fresh. Cache failures degrade to a direct computation.
func (s *MetricsService) Dashboard(ctx context.Context, filter repository.StatsFilter) (*DashboardMetrics, error) {
	cacheKey := dashboardCacheKey(filter)
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		var metrics DashboardMetrics
		if err := json.Unmarshal(cached, &metrics); err == nil {
			return &metrics, nil
		}
	}

	now := s.clock()

	total, err := s.analytics.Total(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byStatus, err := s.analytics.CountByStatus(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	overdue, err := s.analytics.OverdueCount(ctx, filter, now)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	avgDays, _, err := s.analytics.AverageResponseDays(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Nanosecond)
	thisMonth, err := s.analytics.CountCreatedBetween(ctx, filter, monthStart, monthEnd)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	closed := byStatus[domain.CaseStatusClosed]
	metrics := &DashboardMetrics{
		Total:            total,
		Active:           byStatus[domain.CaseStatusInProgress],
		Closed:           closed,
		Overdue:          overdue,
		CreatedThisMonth: thisMonth,
		AvgResponseDays:  avgDays,
		ResponseRate:     rate(closed, total),
	}

	s.cacheSet(ctx, cacheKey, metrics)
	return metrics, nil
}

// StatusBreakdown returns case counts per lifecycle state.
func (s *MetricsService) StatusBreakdown(ctx context.Context, filter repository.StatsFilter) (map[domain.CaseStatus]int64, error) {
	byStatus, err := s.analytics.CountByStatus(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	// zero-fill so every state appears
	for _, status := range domain.CaseStatuses {
		if _, ok := byStatus[status]; !ok {
			byStatus[status] = 0
		}
	}
	return byStatus, nil
}

// Monthly returns the most recent 12 creation-month buckets.
func (s *MetricsService) Monthly(ctx context.Context, filter repository.StatsFilter) ([]MonthlyStat, error) {
	rows, err := s.analytics.MonthlyCounts(ctx, filter, 12)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]MonthlyStat, 0, len(rows))
	for _, row := range rows {
		result = append(result, MonthlyStat{
			Year:         row.Year,
			Month:        row.Month,
			Total:        row.Total,
			Closed:       row.Closed,
			ResponseRate: rate(row.Closed, row.Total),
		})
	}
	return result, nil
}

// ByType returns the per-type breakdown.
func (s *MetricsService) ByType(ctx context.Context, filter repository.StatsFilter) ([]GroupStat, error) {
	rows, err := s.analytics.CountsByType(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return groupStats(rows), nil
}

// ByDepartment returns the per-department breakdown over assigned cases.
func (s *MetricsService) ByDepartment(ctx context.Context, filter repository.StatsFilter) ([]GroupStat, error) {
	rows, err := s.analytics.CountsByDepartment(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return groupStats(rows), nil
}

// Performance computes deadline compliance over the filtered set.
func (s *MetricsService) Performance(ctx context.Context, filter repository.StatsFilter) (*PerformanceMetrics, error) {
	now := s.clock()

	total, err := s.analytics.Total(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byStatus, err := s.analytics.CountByStatus(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	overdue, err := s.analytics.OverdueCount(ctx, filter, now)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	avgDays, _, err := s.analytics.AverageResponseDays(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &PerformanceMetrics{
		TotalVolume:     total,
		OnTimeResponses: byStatus[domain.CaseStatusClosed],
		OverdueCount:    overdue,
		AvgResponseDays: avgDays,
		ComplianceRate:  rate(total-overdue, total),
	}, nil
}

func groupStats(rows []repository.GroupCount) []GroupStat {
	result := make([]GroupStat, 0, len(rows))
	for _, row := range rows {
		result = append(result, GroupStat{
			Key:             row.Key,
			Total:           row.Total,
			Closed:          row.Closed,
			Pending:         row.Total - row.Closed,
			ResponseRate:    rate(row.Closed, row.Total),
			AvgResponseDays: row.AvgResponseDays,
		})
	}
	return result
}

// rate returns numerator/denominator as a percentage, 0 at zero denominator.
func rate(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}

func dashboardCacheKey(filter repository.StatsFilter) string {
	from, to, dept := "", "", ""
	if filter.From != nil {
		from = filter.From.UTC().Format(time.RFC3339)
	}
	if filter.To != nil {
		to = filter.To.UTC().Format(time.RFC3339)
	}
	if filter.DepartmentID != nil {
		dept = *filter.DepartmentID
	}
	return fmt.Sprintf("metrics:dashboard:%s|%s|%s", from, to, dept)
}

func (s *MetricsService) cacheGet(ctx context.Context, key string) []byte {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Debug("metrics cache read failed", zap.Error(err))
		}
		return nil
	}
	return data
}

func (s *MetricsService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("metrics cache write failed", zap.Error(err))
	}
}
