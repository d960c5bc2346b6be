package events

import (
	"time"

	"github.com/spec-kit/pqrsd-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCaseCreated       EventType = "case_created"
	EventCaseStatusChanged EventType = "case_status_changed"
	EventCaseAssigned      EventType = "case_assigned"
	EventCaseCommentAdded  EventType = "case_comment_added"
	EventCaseDeleted       EventType = "case_deleted"
)

// Event represents a domain event emitted by services. ActorID is nil for
// system-generated changes.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CaseID    string      `json:"case_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CaseCreatedPayload payload.
type CaseCreatedPayload struct {
	FilingNumber    string              `json:"filing_number"`
	Type            domain.CaseType     `json:"type"`
	Priority        domain.CasePriority `json:"priority"`
	PetitionerEmail string              `json:"petitioner_email"`
	AccessCode      string              `json:"access_code"`
	DueDate         time.Time           `json:"due_date"`
}

// CaseStatusChangedPayload payload.
type CaseStatusChangedPayload struct {
	FilingNumber   string             `json:"filing_number"`
	PreviousStatus *domain.CaseStatus `json:"previous_status,omitempty"`
	NewStatus      domain.CaseStatus  `json:"new_status"`
	Reason         string             `json:"reason,omitempty"`
}

// CaseAssignedPayload payload.
type CaseAssignedPayload struct {
	FilingNumber         string  `json:"filing_number"`
	AssignedDepartmentID *string `json:"assigned_department_id,omitempty"`
	AssignedUserID       *string `json:"assigned_user_id,omitempty"`
}

// CaseCommentAddedPayload payload.
type CaseCommentAddedPayload struct {
	CommentID string `json:"comment_id"`
	Internal  bool   `json:"internal"`
}
