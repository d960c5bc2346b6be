package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pqrsd-service/internal/api/dto"
	"github.com/spec-kit/pqrsd-service/internal/auth"
	"github.com/spec-kit/pqrsd-service/internal/domain"
	"github.com/spec-kit/pqrsd-service/internal/service"
	apperrors "github.com/spec-kit/pqrsd-service/pkg/util/errorutil"
)

// CaseAdminHandler serves the authenticated operator endpoints.
type CaseAdminHandler struct {
	service *service.CaseService
}

// NewCaseAdminHandler constructs handler.
func NewCaseAdminHandler(caseService *service.CaseService) *CaseAdminHandler {
	return &CaseAdminHandler{service: caseService}
}

// ListCases GET /admin/cases.
func (h *CaseAdminHandler) ListCases(c *fiber.Ctx) error {
	filter := parseCaseQuery(c)
	items, total, overdue, err := h.service.ListCases(c.Context(), filter)
	if err != nil {
		return err
	}
	now := time.Now()
	summaries := make([]dto.CaseSummary, 0, len(items))
	for i := range items {
		summaries = append(summaries, caseSummary(&items[i], now))
	}
	return c.JSON(fiber.Map{"data": dto.CaseListResponse{
		Items:   summaries,
		Total:   total,
		Overdue: overdue,
	}})
}

// GetCase GET /admin/cases/:id.
func (h *CaseAdminHandler) GetCase(c *fiber.Ctx) error {
	detail, err := h.service.GetCaseDetail(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseDetailResponse(detail, time.Now())})
}

// UpdateStatus PATCH /admin/cases/:id/status.
func (h *CaseAdminHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	actorID := principal.User.ID
	updated, err := h.service.UpdateStatus(c.Context(), c.Params("id"), req.Status, &actorID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseSummary(updated, time.Now())})
}

// Assign PATCH /admin/cases/:id/assign.
func (h *CaseAdminHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DepartmentID == nil && req.UserID == nil {
		return apperrors.NewValidationError("department_id or user_id required", nil)
	}
	actorID := principal.User.ID
	updated, err := h.service.Assign(c.Context(), c.Params("id"), req.DepartmentID, req.UserID, &actorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseSummary(updated, time.Now())})
}

// AddComment POST /admin/cases/:id/comments.
func (h *CaseAdminHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
	}
	comment, err := h.service.AddComment(c.Context(), c.Params("id"), principal.User.ID, req.Body, req.Internal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CommentResponse{
		ID:        comment.ID,
		UserID:    comment.UserID,
		Body:      comment.Body,
		Internal:  comment.Internal,
		CreatedAt: comment.CreatedAt,
	}})
}

// ListComments GET /admin/cases/:id/comments.
func (h *CaseAdminHandler) ListComments(c *fiber.Ctx) error {
	comments, err := h.service.GetComments(c.Context(), c.Params("id"), true)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, dto.CommentResponse{
			ID:        comment.ID,
			UserID:    comment.UserID,
			Body:      comment.Body,
			Internal:  comment.Internal,
			CreatedAt: comment.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddAttachment POST /admin/cases/:id/attachments.
func (h *CaseAdminHandler) AddAttachment(c *fiber.Ctx) error {
	var req dto.AttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.StorageKey) == "" || strings.TrimSpace(req.FileName) == "" {
		return apperrors.NewValidationError("storage_key and file_name required", nil)
	}
	att, err := h.service.AddAttachment(c.Context(), c.Params("id"), service.AttachmentInput{
		StorageKey: req.StorageKey,
		FileName:   req.FileName,
		MimeType:   req.MimeType,
		SizeBytes:  req.SizeBytes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AttachmentResponse{
		ID:        att.ID,
		FileName:  att.FileName,
		MimeType:  att.MimeType,
		SizeBytes: att.SizeBytes,
	}})
}

// History GET /admin/cases/:id/history.
func (h *CaseAdminHandler) History(c *fiber.Ctx) error {
	entries, err := h.service.History(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.HistoryResponse{
			ID:             entry.ID,
			PreviousStatus: entry.PreviousStatus,
			NewStatus:      entry.NewStatus,
			ActorID:        entry.ActorID,
			Reason:         entry.Reason,
			CreatedAt:      entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteCase DELETE /admin/cases/:id.
func (h *CaseAdminHandler) DeleteCase(c *fiber.Ctx) error {
	if err := h.service.DeleteCase(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseCaseQuery(c *fiber.Ctx) service.CaseListFilter {
	filter := service.CaseListFilter{}
	if val := c.Query("type"); val != "" {
		caseType := domain.CaseType(strings.ToUpper(strings.TrimSpace(val)))
		filter.Type = &caseType
	}
	if val := c.Query("status"); val != "" {
		status := domain.CaseStatus(strings.ToUpper(strings.TrimSpace(val)))
		filter.Status = &status
	}
	if val := c.Query("priority"); val != "" {
		priority := domain.CasePriority(strings.ToUpper(strings.TrimSpace(val)))
		filter.Priority = &priority
	}
	if val := c.Query("department_id"); val != "" {
		filter.DepartmentID = &val
	}
	if val := c.Query("user_id"); val != "" {
		filter.UserID = &val
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}
