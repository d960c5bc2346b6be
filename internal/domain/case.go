package domain

import "time"

// CaseType enumerates the five statutory request kinds.
type CaseType string

const (
	CaseTypePetition     CaseType = "PETITION"
	CaseTypeComplaint    CaseType = "COMPLAINT"
	CaseTypeClaim        CaseType = "CLAIM"
	CaseTypeSuggestion   CaseType = "SUGGESTION"
	CaseTypeDenunciation CaseType = "DENUNCIATION"
)

// CaseTypes lists all valid case types.
var CaseTypes = []CaseType{
	CaseTypePetition,
	CaseTypeComplaint,
	CaseTypeClaim,
	CaseTypeSuggestion,
	CaseTypeDenunciation,
}

// CaseStatus enumerates lifecycle states for cases.
type CaseStatus string

const (
	CaseStatusReceived   CaseStatus = "RECEIVED"
	CaseStatusInProgress CaseStatus = "IN_PROGRESS"
	CaseStatusAssigned   CaseStatus = "ASSIGNED"
	CaseStatusAnswered   CaseStatus = "ANSWERED"
	CaseStatusClosed     CaseStatus = "CLOSED"
)

// CaseStatuses lists all lifecycle states.
var CaseStatuses = []CaseStatus{
	CaseStatusReceived,
	CaseStatusInProgress,
	CaseStatusAssigned,
	CaseStatusAnswered,
	CaseStatusClosed,
}

// CasePriority enumerates handling urgency.
type CasePriority string

const (
	CasePriorityLow    CasePriority = "LOW"
	CasePriorityMedium CasePriority = "MEDIUM"
	CasePriorityHigh   CasePriority = "HIGH"
)

// PetitionerCategory distinguishes who files the case.
type PetitionerCategory string

const (
	PetitionerNatural   PetitionerCategory = "NATURAL_PERSON"
	PetitionerLegal     PetitionerCategory = "LEGAL_ENTITY"
	PetitionerAnonymous PetitionerCategory = "ANONYMOUS"
)

// IdentificationType enumerates accepted petitioner id documents.
type IdentificationType string

const (
	IdentificationCitizenID IdentificationType = "CITIZEN_ID"
	IdentificationForeignID IdentificationType = "FOREIGN_ID"
	IdentificationPassport  IdentificationType = "PASSPORT"
	IdentificationTaxID     IdentificationType = "TAX_ID"
)

// Case is the aggregate for citizen requests. FilingNumber and DueDate are
// set once at creation and never recomputed; Status only changes through a
// validated transition; ResponseDate is stamped when the case is answered.
type Case struct {
	ID                   string
	FilingNumber         string
	Type                 CaseType
	Subject              string
	Description          string
	Status               CaseStatus
	Priority             CasePriority
	PetitionerCategory   PetitionerCategory
	PetitionerName       string
	PetitionerEmail      string
	PetitionerPhone      string
	PetitionerAddress    string
	PetitionerIDType     IdentificationType
	PetitionerIDNumber   string
	AssignedDepartmentID *string
	AssignedUserID       *string
	DueDate              time.Time
	ResponseDate         *time.Time
	AccessCode           string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Overdue reports whether the case is past its statutory deadline while not
// yet terminally closed. This is the single overdue definition used across
// listings, dashboards, and sweeps.
func (c *Case) Overdue(now time.Time) bool {
	return c.DueDate.Before(now) && c.Status != CaseStatusClosed
}

// allowedTransitions is the lifecycle edge table. Closed is terminal.
var allowedTransitions = map[CaseStatus][]CaseStatus{
	CaseStatusReceived:   {CaseStatusInProgress, CaseStatusAssigned},
	CaseStatusInProgress: {CaseStatusAssigned, CaseStatusAnswered},
	CaseStatusAssigned:   {CaseStatusInProgress, CaseStatusAnswered},
	CaseStatusAnswered:   {CaseStatusClosed},
	CaseStatusClosed:     {},
}

// CanTransition reports whether (from, to) is a valid lifecycle edge.
func CanTransition(from, to CaseStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
