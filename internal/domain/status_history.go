package domain

import "time"

// StatusHistoryEntry is an immutable audit trail entry for a status change.
// PreviousStatus is nil for the initial entry written at filing; ActorID is
// nil when the change was system-generated.
type StatusHistoryEntry struct {
	ID             string
	CaseID         string
	PreviousStatus *CaseStatus
	NewStatus      CaseStatus
	ActorID        *string
	Reason         string
	CreatedAt      time.Time
}
