package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/spec-kit/pqrsd-service/internal/domain"
	"github.com/spec-kit/pqrsd-service/internal/events"
	apperrors "github.com/spec-kit/pqrsd-service/pkg/util/errorutil"
)

type CaseServiceSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	cases       *fakeCaseRepo
	history     *fakeHistoryRepo
	comments    *fakeCommentRepo
	attachments *fakeAttachmentRepo
	departments *fakeDepartmentRepo
	users       *fakeUserRepo
	sequencer   *fakeSequencer
	dispatcher  *capturingDispatcher
	objects     *failingObjectStore
	service     *CaseService
}

func (s *CaseServiceSuite) SetupTest() {
	s.ctx = context.Background()
	// Wednesday.
	s.now = time.Date(2024, 5, 8, 10, 0, 0, 0, time.UTC)
	s.history = &fakeHistoryRepo{}
	s.cases = newFakeCaseRepo(s.history)
	s.comments = &fakeCommentRepo{}
	s.attachments = &fakeAttachmentRepo{}
	s.departments = newFakeDepartmentRepo()
	s.users = newFakeUserRepo()
	s.sequencer = &fakeSequencer{}
	s.dispatcher = &capturingDispatcher{}
	s.objects = &failingObjectStore{}
	s.service = NewCaseService(CaseDependencies{
		CaseRepo:       s.cases,
		HistoryRepo:    s.history,
		CommentRepo:    s.comments,
		AttachmentRepo: s.attachments,
		DepartmentRepo: s.departments,
		UserRepo:       s.users,
		Sequencer:      s.sequencer,
		ObjectStore:    s.objects,
		Dispatcher:     s.dispatcher,
		Clock:          func() time.Time { return s.now },
	})
}

func TestCaseServiceSuite(t *testing.T) {
	suite.Run(t, new(CaseServiceSuite))
}

func (s *CaseServiceSuite) fileCase(caseType domain.CaseType) *domain.Case {
	created, err := s.service.CreateCase(s.ctx, CaseCreateInput{
		Type:            caseType,
		Subject:         "water service outage",
		Description:     "no water since monday",
		PetitionerName:  "Ana Gomez",
		PetitionerEmail: "ana@example.com",
	})
	s.Require().NoError(err)
	return created
}

func (s *CaseServiceSuite) newUser(active bool) *domain.User {
	user := &domain.User{Name: "Op", Email: fmt.Sprintf("op-%d@example.com", len(s.users.users)), Role: domain.UserRoleOperator, Active: active}
	s.Require().NoError(s.users.Create(s.ctx, user))
	return user
}

func (s *CaseServiceSuite) newDepartment(active bool) *domain.Department {
	dept := &domain.Department{Name: fmt.Sprintf("Dept %d", len(s.departments.departments)), Active: active}
	s.Require().NoError(s.departments.Create(s.ctx, dept))
	return dept
}

func (s *CaseServiceSuite) TestCreateCase() {
	s.Run("assigns filing number, access code, status, and due date", func() {
		created := s.fileCase(domain.CaseTypePetition)

		s.Equal("PQRSD-2024-000001", created.FilingNumber)
		s.Len(created.AccessCode, 6)
		s.Equal(domain.CaseStatusReceived, created.Status)
		s.Equal(domain.CasePriorityMedium, created.Priority)
		// 15 business days from Wednesday 2024-05-08 is Wednesday 2024-05-29.
		s.Equal(time.Date(2024, 5, 29, 10, 0, 0, 0, time.UTC), created.DueDate)
	})

	s.Run("sequences are consecutive within the year", func() {
		first := s.fileCase(domain.CaseTypeComplaint)
		second := s.fileCase(domain.CaseTypeComplaint)
		s.NotEqual(first.FilingNumber, second.FilingNumber)
	})

	s.Run("writes the initial history entry", func() {
		created := s.fileCase(domain.CaseTypeClaim)

		entries, err := s.history.ListByCase(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Nil(entries[0].PreviousStatus)
		s.Equal(domain.CaseStatusReceived, entries[0].NewStatus)
	})

	s.Run("publishes a created event carrying the access code", func() {
		created := s.fileCase(domain.CaseTypePetition)

		published := s.dispatcher.eventsOfType(events.EventCaseCreated)
		s.Require().NotEmpty(published)
		last := published[len(published)-1]
		s.Equal(created.ID, last.CaseID)
		payload, ok := last.Payload.(events.CaseCreatedPayload)
		s.Require().True(ok)
		s.Equal(created.AccessCode, payload.AccessCode)
	})

	s.Run("filing survives a failing notification handler", func() {
		s.dispatcher.handlerErr = errors.New("smtp down")
		defer func() { s.dispatcher.handlerErr = nil }()

		created, err := s.service.CreateCase(s.ctx, CaseCreateInput{
			Type:        domain.CaseTypeSuggestion,
			Subject:     "longer hours",
			Description: "open on saturdays",
		})
		s.Require().NoError(err)
		s.NotEmpty(created.FilingNumber)
	})
}

func (s *CaseServiceSuite) TestLifecycle() {
	s.Run("full path stamps response date once and closes", func() {
		created := s.fileCase(domain.CaseTypePetition)
		actor := "operator-1"

		updated, err := s.service.UpdateStatus(s.ctx, created.ID, domain.CaseStatusInProgress, &actor, "review started")
		s.Require().NoError(err)
		s.Nil(updated.ResponseDate)

		s.now = s.now.Add(48 * time.Hour)
		answered, err := s.service.UpdateStatus(s.ctx, created.ID, domain.CaseStatusAnswered, &actor, "response sent")
		s.Require().NoError(err)
		s.Require().NotNil(answered.ResponseDate)
		s.Equal(s.now, *answered.ResponseDate)

		responseDate := *answered.ResponseDate
		s.now = s.now.Add(24 * time.Hour)
		closed, err := s.service.UpdateStatus(s.ctx, created.ID, domain.CaseStatusClosed, &actor, "petitioner confirmed")
		s.Require().NoError(err)
		s.Equal(domain.CaseStatusClosed, closed.Status)
		s.Require().NotNil(closed.ResponseDate)
		s.Equal(responseDate, *closed.ResponseDate)

		entries, err := s.history.ListByCase(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Len(entries, 4)
	})

	s.Run("invalid transition leaves the case unchanged", func() {
		created := s.fileCase(domain.CaseTypePetition)

		_, err := s.service.UpdateStatus(s.ctx, created.ID, domain.CaseStatusClosed, nil, "")
		s.Require().Error(err)
		var domainErr *apperrors.DomainError
		s.Require().ErrorAs(err, &domainErr)
		s.Equal("INVALID_TRANSITION", domainErr.Code)

		current, err := s.cases.GetByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(domain.CaseStatusReceived, current.Status)

		entries, err := s.history.ListByCase(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Len(entries, 1)
	})

	s.Run("concurrent transition surfaces as conflict", func() {
		created := s.fileCase(domain.CaseTypePetition)

		// Another operator moves the case between our read and write.
		s.cases.beforeStatusUpdate = func() {
			s.cases.cases[created.ID].Status = domain.CaseStatusAssigned
			s.cases.beforeStatusUpdate = nil
		}

		_, err := s.service.UpdateStatus(s.ctx, created.ID, domain.CaseStatusInProgress, nil, "")
		var domainErr *apperrors.DomainError
		s.Require().ErrorAs(err, &domainErr)
		s.Equal("CONFLICT", domainErr.Code)
	})

	s.Run("unknown case yields not found", func() {
		_, err := s.service.UpdateStatus(s.ctx, "missing", domain.CaseStatusInProgress, nil, "")
		var domainErr *apperrors.DomainError
		s.Require().ErrorAs(err, &domainErr)
		s.Equal("NOT_FOUND", domainErr.Code)
	})
}

func (s *CaseServiceSuite) TestAssign() {
	s.Run("assigning a user moves the case to assigned with an audit entry", func() {
		created := s.fileCase(domain.CaseTypeComplaint)
		dept := s.newDepartment(true)
		user := s.newUser(true)
		actor := "admin-1"

		updated, err := s.service.Assign(s.ctx, created.ID, &dept.ID, &user.ID, &actor)
		s.Require().NoError(err)
		s.Equal(domain.CaseStatusAssigned, updated.Status)
		s.Require().NotNil(updated.AssignedDepartmentID)
		s.Equal(dept.ID, *updated.AssignedDepartmentID)
		s.Require().NotNil(updated.AssignedUserID)
		s.Equal(user.ID, *updated.AssignedUserID)

		entries, err := s.history.ListByCase(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		s.Equal(domain.CaseStatusAssigned, entries[1].NewStatus)
		s.Equal("case assigned", entries[1].Reason)
	})

	s.Run("department-only assignment does not change status", func() {
		created := s.fileCase(domain.CaseTypeComplaint)
		dept := s.newDepartment(true)

		updated, err := s.service.Assign(s.ctx, created.ID, &dept.ID, nil, nil)
		s.Require().NoError(err)
		s.Equal(domain.CaseStatusReceived, updated.Status)

		entries, err := s.history.ListByCase(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Len(entries, 1)
	})

	s.Run("reassigning an already assigned case keeps a single history entry", func() {
		created := s.fileCase(domain.CaseTypeComplaint)
		first := s.newUser(true)
		second := s.newUser(true)

		_, err := s.service.Assign(s.ctx, created.ID, nil, &first.ID, nil)
		s.Require().NoError(err)
		updated, err := s.service.Assign(s.ctx, created.ID, nil, &second.ID, nil)
		s.Require().NoError(err)
		s.Equal(second.ID, *updated.AssignedUserID)

		entries, err := s.history.ListByCase(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Len(entries, 2)
	})

	s.Run("assignment to a closed case is rejected", func() {
		created := s.fileCase(domain.CaseTypePetition)
		user := s.newUser(true)
		for _, status := range []domain.CaseStatus{domain.CaseStatusInProgress, domain.CaseStatusAnswered, domain.CaseStatusClosed} {
			_, err := s.service.UpdateStatus(s.ctx, created.ID, status, nil, "")
			s.Require().NoError(err)
		}

		_, err := s.service.Assign(s.ctx, created.ID, nil, &user.ID, nil)
		var domainErr *apperrors.DomainError
		s.Require().ErrorAs(err, &domainErr)
		s.Equal("INVALID_TRANSITION", domainErr.Code)
	})

	s.Run("inactive user is rejected", func() {
		created := s.fileCase(domain.CaseTypePetition)
		user := s.newUser(false)

		_, err := s.service.Assign(s.ctx, created.ID, nil, &user.ID, nil)
		var domainErr *apperrors.DomainError
		s.Require().ErrorAs(err, &domainErr)
		s.Equal("CONFLICT", domainErr.Code)
	})

	s.Run("unknown department is not found", func() {
		created := s.fileCase(domain.CaseTypePetition)
		missing := "no-such-department"

		_, err := s.service.Assign(s.ctx, created.ID, &missing, nil, nil)
		var domainErr *apperrors.DomainError
		s.Require().ErrorAs(err, &domainErr)
		s.Equal("NOT_FOUND", domainErr.Code)
	})
}

func (s *CaseServiceSuite) TestTrack() {
	s.Run("finds the case by filing number and access code", func() {
		created := s.fileCase(domain.CaseTypePetition)

		detail, err := s.service.Track(s.ctx, created.FilingNumber, created.AccessCode)
		s.Require().NoError(err)
		s.Equal(created.ID, detail.Case.ID)
		s.Len(detail.History, 1)
	})

	s.Run("finds the case by filing number alone", func() {
		created := s.fileCase(domain.CaseTypePetition)

		detail, err := s.service.Track(s.ctx, created.FilingNumber, "")
		s.Require().NoError(err)
		s.Equal(created.ID, detail.Case.ID)
	})

	s.Run("wrong access code yields not found", func() {
		created := s.fileCase(domain.CaseTypePetition)

		_, err := s.service.Track(s.ctx, created.FilingNumber, "WRONG1")
		var domainErr *apperrors.DomainError
		s.Require().ErrorAs(err, &domainErr)
		s.Equal("NOT_FOUND", domainErr.Code)
	})

	s.Run("registered attachments appear in the detail", func() {
		created := s.fileCase(domain.CaseTypePetition)

		att, err := s.service.AddAttachment(s.ctx, created.ID, AttachmentInput{
			StorageKey: "cases/abc/evidence.pdf",
			FileName:   "evidence.pdf",
			MimeType:   "application/pdf",
			SizeBytes:  2048,
		})
		s.Require().NoError(err)
		s.NotEmpty(att.ID)

		detail, err := s.service.GetCaseDetail(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Require().Len(detail.Attachments, 1)
		s.Equal("evidence.pdf", detail.Attachments[0].FileName)
	})

	s.Run("internal comments are hidden from tracking", func() {
		created := s.fileCase(domain.CaseTypePetition)
		operator := s.newUser(true)

		_, err := s.service.AddComment(s.ctx, created.ID, operator.ID, "public update", false)
		s.Require().NoError(err)
		_, err = s.service.AddComment(s.ctx, created.ID, operator.ID, "internal note", true)
		s.Require().NoError(err)

		detail, err := s.service.Track(s.ctx, created.FilingNumber, created.AccessCode)
		s.Require().NoError(err)
		s.Require().Len(detail.Comments, 1)
		s.Equal("public update", detail.Comments[0].Body)

		adminDetail, err := s.service.GetCaseDetail(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Len(adminDetail.Comments, 2)
	})
}

func (s *CaseServiceSuite) TestListCases() {
	s.Run("reports total and overdue counts", func() {
		onTime := s.fileCase(domain.CaseTypePetition)
		late := s.fileCase(domain.CaseTypePetition)
		closedLate := s.fileCase(domain.CaseTypePetition)

		// Push two cases past their deadline; close one of them.
		s.cases.cases[late.ID].DueDate = s.now.Add(-time.Hour)
		s.cases.cases[closedLate.ID].DueDate = s.now.Add(-time.Hour)
		s.cases.cases[closedLate.ID].Status = domain.CaseStatusClosed

		items, total, overdue, err := s.service.ListCases(s.ctx, CaseListFilter{Limit: 50})
		s.Require().NoError(err)
		s.Len(items, 3)
		s.Equal(int64(3), total)
		s.Equal(int64(1), overdue)
		_ = onTime
	})

	s.Run("overdue count ignores the status filter", func() {
		late := s.fileCase(domain.CaseTypeClaim)
		s.cases.cases[late.ID].DueDate = s.now.Add(-time.Hour)

		answered := domain.CaseStatusAnswered
		_, _, overdue, err := s.service.ListCases(s.ctx, CaseListFilter{Status: &answered, Limit: 50})
		s.Require().NoError(err)
		s.GreaterOrEqual(overdue, int64(1))
	})
}

func (s *CaseServiceSuite) TestDeleteCase() {
	s.Run("cascades related records despite object store failure", func() {
		created := s.fileCase(domain.CaseTypePetition)
		operator := s.newUser(true)
		_, err := s.service.AddComment(s.ctx, created.ID, operator.ID, "note", true)
		s.Require().NoError(err)

		s.Require().NoError(s.service.DeleteCase(s.ctx, created.ID))
		s.Equal(1, s.objects.calls)

		_, err = s.cases.GetByID(s.ctx, created.ID)
		s.Require().Error(err)

		comments, err := s.comments.ListByCase(s.ctx, created.ID, true)
		s.Require().NoError(err)
		s.Empty(comments)

		entries, err := s.history.ListByCase(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Empty(entries)
	})

	s.Run("deleting an unknown case is not found", func() {
		err := s.service.DeleteCase(s.ctx, "missing")
		var domainErr *apperrors.DomainError
		s.Require().ErrorAs(err, &domainErr)
		s.Equal("NOT_FOUND", domainErr.Code)
	})
}
