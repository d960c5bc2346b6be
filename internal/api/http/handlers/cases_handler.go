package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pqrsd-service/internal/api/dto"
	"github.com/spec-kit/pqrsd-service/internal/domain"
	"github.com/spec-kit/pqrsd-service/internal/service"
	apperrors "github.com/spec-kit/pqrsd-service/pkg/util/errorutil"
)

// CasesHandler serves the public filing and tracking endpoints. No
// authentication: petitioners identify themselves with the filing number and
// access code issued at creation.
type CasesHandler struct {
	service *service.CaseService
}

// NewCasesHandler constructs handler.
func NewCasesHandler(caseService *service.CaseService) *CasesHandler {
	return &CasesHandler{service: caseService}
}

// CreateCase POST /cases.
func (h *CasesHandler) CreateCase(c *fiber.Ctx) error {
	var req dto.CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Type == "" || strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("type, subject, description required", nil)
	}

	input := service.CaseCreateInput{
		Type:               req.Type,
		Subject:            req.Subject,
		Description:        req.Description,
		Priority:           req.Priority,
		PetitionerCategory: req.PetitionerCategory,
		PetitionerName:     req.PetitionerName,
		PetitionerEmail:    req.PetitionerEmail,
		PetitionerPhone:    req.PetitionerPhone,
		PetitionerAddress:  req.PetitionerAddress,
		PetitionerIDType:   req.PetitionerIDType,
		PetitionerIDNumber: req.PetitionerIDNumber,
	}
	created, err := h.service.CreateCase(c.Context(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CaseFiledResponse{
		ID:           created.ID,
		FilingNumber: created.FilingNumber,
		AccessCode:   created.AccessCode,
		Status:       created.Status,
		DueDate:      created.DueDate,
		CreatedAt:    created.CreatedAt,
	}})
}

// Track GET /cases/track/:filingNumber. Without the access code only the
// lifecycle summary is returned; petitioner data and comments require the
// code issued at filing.
func (h *CasesHandler) Track(c *fiber.Ctx) error {
	filingNumber := c.Params("filingNumber")
	accessCode := c.Query("access_code")

	detail, err := h.service.Track(c.Context(), filingNumber, accessCode)
	if err != nil {
		return err
	}
	if accessCode == "" {
		return c.JSON(fiber.Map{"data": caseSummary(detail.Case, time.Now())})
	}
	return c.JSON(fiber.Map{"data": caseDetailResponse(detail, time.Now())})
}

func caseSummary(item *domain.Case, now time.Time) dto.CaseSummary {
	return dto.CaseSummary{
		ID:                   item.ID,
		FilingNumber:         item.FilingNumber,
		Type:                 item.Type,
		Subject:              item.Subject,
		Status:               item.Status,
		Priority:             item.Priority,
		AssignedDepartmentID: item.AssignedDepartmentID,
		AssignedUserID:       item.AssignedUserID,
		DueDate:              item.DueDate,
		ResponseDate:         item.ResponseDate,
		Overdue:              item.Overdue(now),
		CreatedAt:            item.CreatedAt,
		UpdatedAt:            item.UpdatedAt,
	}
}

func caseDetailResponse(detail *service.CaseDetail, now time.Time) dto.CaseDetailResponse {
	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for _, comment := range detail.Comments {
		comments = append(comments, dto.CommentResponse{
			ID:        comment.ID,
			UserID:    comment.UserID,
			Body:      comment.Body,
			Internal:  comment.Internal,
			CreatedAt: comment.CreatedAt,
		})
	}
	history := make([]dto.HistoryResponse, 0, len(detail.History))
	for _, entry := range detail.History {
		history = append(history, dto.HistoryResponse{
			ID:             entry.ID,
			PreviousStatus: entry.PreviousStatus,
			NewStatus:      entry.NewStatus,
			ActorID:        entry.ActorID,
			Reason:         entry.Reason,
			CreatedAt:      entry.CreatedAt,
		})
	}
	attachments := make([]dto.AttachmentResponse, 0, len(detail.Attachments))
	for _, att := range detail.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
		})
	}
	item := detail.Case
	return dto.CaseDetailResponse{
		CaseSummary:        caseSummary(item, now),
		Description:        item.Description,
		PetitionerCategory: item.PetitionerCategory,
		PetitionerName:     item.PetitionerName,
		PetitionerEmail:    item.PetitionerEmail,
		PetitionerPhone:    item.PetitionerPhone,
		PetitionerAddress:  item.PetitionerAddress,
		PetitionerIDType:   item.PetitionerIDType,
		PetitionerIDNumber: item.PetitionerIDNumber,
		Comments:           comments,
		History:            history,
		Attachments:        attachments,
	}
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
