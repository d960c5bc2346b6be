package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/pqrsd-service/internal/deadline"
	"github.com/spec-kit/pqrsd-service/internal/domain"
	"github.com/spec-kit/pqrsd-service/internal/events"
	"github.com/spec-kit/pqrsd-service/internal/filing"
	"github.com/spec-kit/pqrsd-service/internal/repository"
	apperrors "github.com/spec-kit/pqrsd-service/pkg/util/errorutil"
)

// ObjectStorePort removes attachment binaries from external storage during
// case deletion. Failures are best-effort; metadata deletion proceeds.
type ObjectStorePort interface {
	DeleteAllForCase(ctx context.Context, caseID string) error
}

// CaseService coordinates the case lifecycle: filing, status transitions,
// assignment, comments, tracking, and deletion.
type CaseService struct {
	cases       repository.CaseRepository
	history     repository.StatusHistoryRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	departments repository.DepartmentRepository
	users       repository.UserRepository
	sequences   filing.Sequencer
	objects     ObjectStorePort
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	clock       func() time.Time
}

// CaseDependencies bundles collaborators for the case service.
type CaseDependencies struct {
	CaseRepo       repository.CaseRepository
	HistoryRepo    repository.StatusHistoryRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	DepartmentRepo repository.DepartmentRepository
	UserRepo       repository.UserRepository
	Sequencer      filing.Sequencer
	ObjectStore    ObjectStorePort
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Clock          func() time.Time
}

// CaseCreateInput describes the public filing payload.
type CaseCreateInput struct {
	Type               domain.CaseType
	Subject            string
	Description        string
	Priority           domain.CasePriority
	PetitionerCategory domain.PetitionerCategory
	PetitionerName     string
	PetitionerEmail    string
	PetitionerPhone    string
	PetitionerAddress  string
	PetitionerIDType   domain.IdentificationType
	PetitionerIDNumber string
}

// CaseListFilter describes operator listing filters.
type CaseListFilter struct {
	Type         *domain.CaseType
	Status       *domain.CaseStatus
	Priority     *domain.CasePriority
	DepartmentID *string
	UserID       *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// CaseDetail aggregates a case with its related records.
type CaseDetail struct {
	Case        *domain.Case
	Comments    []domain.Comment
	History     []domain.StatusHistoryEntry
	Attachments []domain.AttachmentMeta
}

// NewCaseService constructs the service.
func NewCaseService(deps CaseDependencies) *CaseService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseService{
		cases:       deps.CaseRepo,
		history:     deps.HistoryRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		departments: deps.DepartmentRepo,
		users:       deps.UserRepo,
		sequences:   deps.Sequencer,
		objects:     deps.ObjectStore,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		clock:       clock,
	}
}

// CreateCase files a new case: issues the filing number and access code,
// computes the statutory due date, stores the record with status Received,
// and writes the initial history entry. Notification delivery is
// fire-and-forget via the event dispatcher and never fails the filing.
func (s *CaseService) CreateCase(ctx context.Context, input CaseCreateInput) (*domain.Case, error) {
	now := s.clock()

	seq, err := s.sequences.Next(ctx, now.Year())
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	accessCode, err := filing.AccessCode(filing.DefaultAccessCodeLength)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	c := &domain.Case{
		FilingNumber:       filing.Number(now.Year(), seq),
		Type:               input.Type,
		Subject:            strings.TrimSpace(input.Subject),
		Description:        strings.TrimSpace(input.Description),
		Status:             domain.CaseStatusReceived,
		Priority:           input.Priority,
		PetitionerCategory: input.PetitionerCategory,
		PetitionerName:     strings.TrimSpace(input.PetitionerName),
		PetitionerEmail:    strings.TrimSpace(input.PetitionerEmail),
		PetitionerPhone:    strings.TrimSpace(input.PetitionerPhone),
		PetitionerAddress:  strings.TrimSpace(input.PetitionerAddress),
		PetitionerIDType:   input.PetitionerIDType,
		PetitionerIDNumber: strings.TrimSpace(input.PetitionerIDNumber),
		DueDate:            deadline.DueDate(input.Type, now),
		AccessCode:         accessCode,
	}
	if c.Priority == "" {
		c.Priority = domain.CasePriorityMedium
	}

	if err := s.cases.Create(ctx, c); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("filing number already exists", map[string]any{"filing_number": c.FilingNumber})
		}
		return nil, apperrors.MapError(err)
	}

	entry := &domain.StatusHistoryEntry{
		CaseID:    c.ID,
		NewStatus: domain.CaseStatusReceived,
		Reason:    "case filed",
	}
	if err := s.history.Append(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:   events.EventCaseCreated,
		CaseID: c.ID,
		Payload: events.CaseCreatedPayload{
			FilingNumber:    c.FilingNumber,
			Type:            c.Type,
			Priority:        c.Priority,
			PetitionerEmail: c.PetitionerEmail,
			AccessCode:      c.AccessCode,
			DueDate:         c.DueDate,
		},
	})
	return c, nil
}

// GetCaseDetail fetches a case with comments, history, and attachments for
// operator views. Internal comments are included.
func (s *CaseService) GetCaseDetail(ctx context.Context, id string) (*CaseDetail, error) {
	c, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return nil, mapCaseLookupErr(err, map[string]any{"case_id": id})
	}
	return s.loadDetail(ctx, c, true)
}

// Track resolves a case for the public lookup path: by filing number, or by
// filing number plus access code. Only non-internal comments are returned.
func (s *CaseService) Track(ctx context.Context, filingNumber, accessCode string) (*CaseDetail, error) {
	var (
		c   *domain.Case
		err error
	)
	if accessCode != "" {
		c, err = s.cases.GetByFilingNumberAndAccessCode(ctx, filingNumber, accessCode)
	} else {
		c, err = s.cases.GetByFilingNumber(ctx, filingNumber)
	}
	if err != nil {
		return nil, mapCaseLookupErr(err, map[string]any{"filing_number": filingNumber})
	}
	return s.loadDetail(ctx, c, false)
}

func (s *CaseService) loadDetail(ctx context.Context, c *domain.Case, includeInternal bool) (*CaseDetail, error) {
	comments, err := s.comments.ListByCase(ctx, c.ID, includeInternal)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	history, err := s.history.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	attachments, err := s.attachments.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &CaseDetail{Case: c, Comments: comments, History: history, Attachments: attachments}, nil
}

// ListCases returns a filtered page of cases, the total match count, and the
// overdue count among the matches ignoring any status filter.
func (s *CaseService) ListCases(ctx context.Context, filter CaseListFilter) ([]domain.Case, int64, int64, error) {
	repoFilter := repository.CaseFilter{
		Type:                 filter.Type,
		Status:               filter.Status,
		Priority:             filter.Priority,
		AssignedDepartmentID: filter.DepartmentID,
		AssignedUserID:       filter.UserID,
		CreatedFrom:          filter.CreatedFrom,
		CreatedTo:            filter.CreatedTo,
		Limit:                filter.Limit,
		Offset:               filter.Offset,
	}
	items, total, err := s.cases.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, 0, apperrors.MapError(err)
	}

	now := s.clock()
	closed := domain.CaseStatusClosed
	overdueFilter := repoFilter
	overdueFilter.Status = nil
	overdueFilter.DueBefore = &now
	overdueFilter.ExcludeStatus = &closed
	overdue, err := s.cases.Count(ctx, overdueFilter)
	if err != nil {
		return nil, 0, 0, apperrors.MapError(err)
	}
	return items, total, overdue, nil
}

// UpdateStatus applies a validated lifecycle transition. The status write
// and its history entry are committed as one unit; a concurrent transition
// on the same case surfaces as a conflict, never as a silent double-apply.
func (s *CaseService) UpdateStatus(ctx context.Context, id string, target domain.CaseStatus, actorID *string, reason string) (*domain.Case, error) {
	c, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return nil, mapCaseLookupErr(err, map[string]any{"case_id": id})
	}

	previous := c.Status
	if !domain.CanTransition(previous, target) {
		return nil, apperrors.NewInvalidTransition(string(previous), string(target))
	}

	c.Status = target
	if target == domain.CaseStatusAnswered && c.ResponseDate == nil {
		now := s.clock()
		c.ResponseDate = &now
	}

	prev := previous
	entry := &domain.StatusHistoryEntry{
		CaseID:         c.ID,
		PreviousStatus: &prev,
		NewStatus:      target,
		ActorID:        actorID,
		Reason:         reason,
	}
	if err := s.cases.UpdateStatusWithHistory(ctx, c, previous, entry); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, apperrors.NewConflict("case status changed concurrently", map[string]any{"case_id": c.ID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseStatusChanged,
		CaseID:  c.ID,
		ActorID: actorID,
		Payload: events.CaseStatusChangedPayload{
			FilingNumber:   c.FilingNumber,
			PreviousStatus: &prev,
			NewStatus:      target,
			Reason:         reason,
		},
	})
	return c, nil
}

// Assign records department and user ownership. Assigning a user implies
// work has started, so the status moves to Assigned through the same
// validated transition path as any other change; if the current status has
// no edge to Assigned the assignment is rejected rather than forced.
func (s *CaseService) Assign(ctx context.Context, id string, departmentID, userID *string, actorID *string) (*domain.Case, error) {
	c, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return nil, mapCaseLookupErr(err, map[string]any{"case_id": id})
	}

	if departmentID != nil {
		dept, err := s.departments.GetByID(ctx, *departmentID)
		if err != nil {
			return nil, mapLookupErr(err, "department", map[string]any{"department_id": *departmentID})
		}
		if !dept.Active {
			return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": dept.ID})
		}
		c.AssignedDepartmentID = &dept.ID
	}

	if userID != nil {
		user, err := s.users.GetByID(ctx, *userID)
		if err != nil {
			return nil, mapLookupErr(err, "user", map[string]any{"user_id": *userID})
		}
		if !user.Active {
			return nil, apperrors.NewConflict("user inactive", map[string]any{"user_id": user.ID})
		}
		c.AssignedUserID = &user.ID

		if c.Status != domain.CaseStatusAssigned {
			previous := c.Status
			if !domain.CanTransition(previous, domain.CaseStatusAssigned) {
				return nil, apperrors.NewInvalidTransition(string(previous), string(domain.CaseStatusAssigned))
			}
			c.Status = domain.CaseStatusAssigned
			prev := previous
			entry := &domain.StatusHistoryEntry{
				CaseID:         c.ID,
				PreviousStatus: &prev,
				NewStatus:      domain.CaseStatusAssigned,
				ActorID:        actorID,
				Reason:         "case assigned",
			}
			if err := s.cases.UpdateStatusWithHistory(ctx, c, previous, entry); err != nil {
				if errors.Is(err, repository.ErrStatusConflict) {
					return nil, apperrors.NewConflict("case status changed concurrently", map[string]any{"case_id": c.ID})
				}
				return nil, apperrors.MapError(err)
			}
		} else if err := s.cases.Update(ctx, c); err != nil {
			return nil, apperrors.MapError(err)
		}
	} else if err := s.cases.Update(ctx, c); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseAssigned,
		CaseID:  c.ID,
		ActorID: actorID,
		Payload: events.CaseAssignedPayload{
			FilingNumber:         c.FilingNumber,
			AssignedDepartmentID: c.AssignedDepartmentID,
			AssignedUserID:       c.AssignedUserID,
		},
	})
	return c, nil
}

// AddComment appends an operator comment to a case.
func (s *CaseService) AddComment(ctx context.Context, caseID, userID, body string, internal bool) (*domain.Comment, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, mapCaseLookupErr(err, map[string]any{"case_id": caseID})
	}

	comment := &domain.Comment{
		CaseID:   c.ID,
		UserID:   userID,
		Body:     strings.TrimSpace(body),
		Internal: internal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseCommentAdded,
		CaseID:  c.ID,
		ActorID: &userID,
		Payload: events.CaseCommentAddedPayload{
			CommentID: comment.ID,
			Internal:  comment.Internal,
		},
	})
	return comment, nil
}

// AttachmentInput describes attachment metadata to register. The binary is
// already in object storage under StorageKey.
type AttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// AddAttachment registers attachment metadata against a case.
func (s *CaseService) AddAttachment(ctx context.Context, caseID string, input AttachmentInput) (*domain.AttachmentMeta, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, mapCaseLookupErr(err, map[string]any{"case_id": caseID})
	}

	att := &domain.AttachmentMeta{
		CaseID:     c.ID,
		StorageKey: input.StorageKey,
		FileName:   input.FileName,
		MimeType:   input.MimeType,
		SizeBytes:  input.SizeBytes,
	}
	if err := s.attachments.Create(ctx, att); err != nil {
		return nil, apperrors.MapError(err)
	}
	return att, nil
}

// GetComments lists comments for operators, internal notes included.
func (s *CaseService) GetComments(ctx context.Context, caseID string, includeInternal bool) ([]domain.Comment, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return nil, mapCaseLookupErr(err, map[string]any{"case_id": caseID})
	}
	comments, err := s.comments.ListByCase(ctx, caseID, includeInternal)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// DeleteCase hard-deletes a case and cascades its comments, attachments,
// and history. External attachment cleanup is best effort: failures are
// logged and do not block metadata deletion.
func (s *CaseService) DeleteCase(ctx context.Context, id string) error {
	c, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return mapCaseLookupErr(err, map[string]any{"case_id": id})
	}

	if s.objects != nil {
		if err := s.objects.DeleteAllForCase(ctx, c.ID); err != nil {
			s.logger.Error("failed to delete case attachments from object store",
				zap.String("case_id", c.ID), zap.Error(err))
		}
	}

	if err := s.comments.DeleteByCase(ctx, c.ID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.history.DeleteByCase(ctx, c.ID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.attachments.DeleteByCase(ctx, c.ID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.cases.Delete(ctx, c.ID); err != nil {
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:   events.EventCaseDeleted,
		CaseID: c.ID,
	})
	return nil
}

// History returns the ordered audit trail for a case.
func (s *CaseService) History(ctx context.Context, caseID string) ([]domain.StatusHistoryEntry, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return nil, mapCaseLookupErr(err, map[string]any{"case_id": caseID})
	}
	entries, err := s.history.ListByCase(ctx, caseID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *CaseService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func mapCaseLookupErr(err error, details map[string]any) error {
	return mapLookupErr(err, "case", details)
}

func mapLookupErr(err error, resource string, details map[string]any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}
