package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pqrsd-service/internal/repository"
	"github.com/spec-kit/pqrsd-service/internal/service"
)

// AnalyticsHandler serves the reporting endpoints.
type AnalyticsHandler struct {
	service *service.MetricsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(metricsService *service.MetricsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: metricsService}
}

// Dashboard GET /admin/analytics/dashboard.
func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	metrics, err := h.service.Dashboard(c.Context(), parseStatsQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": metrics})
}

// StatusBreakdown GET /admin/analytics/status.
func (h *AnalyticsHandler) StatusBreakdown(c *fiber.Ctx) error {
	breakdown, err := h.service.StatusBreakdown(c.Context(), parseStatsQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": breakdown})
}

// Monthly GET /admin/analytics/monthly.
func (h *AnalyticsHandler) Monthly(c *fiber.Ctx) error {
	stats, err := h.service.Monthly(c.Context(), parseStatsQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// ByType GET /admin/analytics/by-type.
func (h *AnalyticsHandler) ByType(c *fiber.Ctx) error {
	stats, err := h.service.ByType(c.Context(), parseStatsQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// ByDepartment GET /admin/analytics/by-department.
func (h *AnalyticsHandler) ByDepartment(c *fiber.Ctx) error {
	stats, err := h.service.ByDepartment(c.Context(), parseStatsQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Performance GET /admin/analytics/performance.
func (h *AnalyticsHandler) Performance(c *fiber.Ctx) error {
	metrics, err := h.service.Performance(c.Context(), parseStatsQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": metrics})
}

func parseStatsQuery(c *fiber.Ctx) repository.StatsFilter {
	filter := repository.StatsFilter{}
	if from := parseTime(c.Query("from")); from != nil {
		filter.From = from
	}
	if to := parseTime(c.Query("to")); to != nil {
		filter.To = to
	}
	if val := c.Query("department_id"); val != "" {
		filter.DepartmentID = &val
	}
	return filter
}
