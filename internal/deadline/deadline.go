// Package deadline computes statutory response deadlines.
package deadline

import (
	"time"

	"github.com/spec-kit/pqrsd-service/internal/domain"
)

// BusinessDays returns the statutory response term for a case type.
// Petitions, complaints, and claims get 15 business days; suggestions and
// denunciations get 30.
func BusinessDays(t domain.CaseType) int {
	switch t {
	case domain.CaseTypeSuggestion, domain.CaseTypeDenunciation:
		return 30
	default:
		return 15
	}
}

// DueDate advances from the creation instant one calendar day at a time,
// counting Monday through Friday, until the statutory number of business
// days has elapsed. Weekends are skipped; no holiday calendar is consulted.
func DueDate(t domain.CaseType, from time.Time) time.Time {
	remaining := BusinessDays(t)
	due := from
	for remaining > 0 {
		due = due.AddDate(0, 0, 1)
		switch due.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			remaining--
		}
	}
	return due
}
