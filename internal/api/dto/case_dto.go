package dto

import (
	"time"

	"github.com/spec-kit/pqrsd-service/internal/domain"
)

// CreateCaseRequest is the public filing payload.
type CreateCaseRequest struct {
	Type               domain.CaseType           `json:"type"`
	Subject            string                    `json:"subject"`
	Description        string                    `json:"description"`
	Priority           domain.CasePriority       `json:"priority"`
	PetitionerCategory domain.PetitionerCategory `json:"petitioner_category"`
	PetitionerName     string                    `json:"petitioner_name"`
	PetitionerEmail    string                    `json:"petitioner_email"`
	PetitionerPhone    string                    `json:"petitioner_phone"`
	PetitionerAddress  string                    `json:"petitioner_address"`
	PetitionerIDType   domain.IdentificationType `json:"petitioner_id_type"`
	PetitionerIDNumber string                    `json:"petitioner_id_number"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.CaseStatus `json:"status"`
	Reason string            `json:"reason"`
}

// AssignRequest payload.
type AssignRequest struct {
	DepartmentID *string `json:"department_id"`
	UserID       *string `json:"user_id"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal"`
}

// CaseSummary response.
type CaseSummary struct {
	ID                   string              `json:"id"`
	FilingNumber         string              `json:"filing_number"`
	Type                 domain.CaseType     `json:"type"`
	Subject              string              `json:"subject"`
	Status               domain.CaseStatus   `json:"status"`
	Priority             domain.CasePriority `json:"priority"`
	AssignedDepartmentID *string             `json:"assigned_department_id"`
	AssignedUserID       *string             `json:"assigned_user_id"`
	DueDate              time.Time           `json:"due_date"`
	ResponseDate         *time.Time          `json:"response_date"`
	Overdue              bool                `json:"overdue"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// CaseDetailResponse provides full case info.
type CaseDetailResponse struct {
	CaseSummary
	Description        string                    `json:"description"`
	PetitionerCategory domain.PetitionerCategory `json:"petitioner_category"`
	PetitionerName     string                    `json:"petitioner_name"`
	PetitionerEmail    string                    `json:"petitioner_email"`
	PetitionerPhone    string                    `json:"petitioner_phone"`
	PetitionerAddress  string                    `json:"petitioner_address"`
	PetitionerIDType   domain.IdentificationType `json:"petitioner_id_type"`
	PetitionerIDNumber string                    `json:"petitioner_id_number"`
	Comments           []CommentResponse         `json:"comments"`
	History            []HistoryResponse         `json:"history"`
	Attachments        []AttachmentResponse      `json:"attachments"`
}

// CaseFiledResponse is returned to the petitioner after filing. The access
// code appears here once and is never echoed again.
type CaseFiledResponse struct {
	ID           string            `json:"id"`
	FilingNumber string            `json:"filing_number"`
	AccessCode   string            `json:"access_code"`
	Status       domain.CaseStatus `json:"status"`
	DueDate      time.Time         `json:"due_date"`
	CreatedAt    time.Time         `json:"created_at"`
}

// CaseListResponse wraps a page of cases with counters.
type CaseListResponse struct {
	Items   []CaseSummary `json:"items"`
	Total   int64         `json:"total"`
	Overdue int64         `json:"overdue"`
}

// CommentResponse on a case.
type CommentResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse represents one audit trail entry.
type HistoryResponse struct {
	ID             string             `json:"id"`
	PreviousStatus *domain.CaseStatus `json:"previous_status"`
	NewStatus      domain.CaseStatus  `json:"new_status"`
	ActorID        *string            `json:"actor_id"`
	Reason         string             `json:"reason"`
	CreatedAt      time.Time          `json:"created_at"`
}

// AttachmentRequest describes attachment metadata input.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}
