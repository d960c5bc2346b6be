package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionAllowedEdges(t *testing.T) {
	allowed := [][2]CaseStatus{
		{CaseStatusReceived, CaseStatusInProgress},
		{CaseStatusReceived, CaseStatusAssigned},
		{CaseStatusInProgress, CaseStatusAssigned},
		{CaseStatusInProgress, CaseStatusAnswered},
		{CaseStatusAssigned, CaseStatusInProgress},
		{CaseStatusAssigned, CaseStatusAnswered},
		{CaseStatusAnswered, CaseStatusClosed},
	}
	for _, edge := range allowed {
		assert.True(t, CanTransition(edge[0], edge[1]), "%s -> %s should be allowed", edge[0], edge[1])
	}
}

func TestCanTransitionRejectsEverythingElse(t *testing.T) {
	allowed := map[[2]CaseStatus]bool{
		{CaseStatusReceived, CaseStatusInProgress}: true,
		{CaseStatusReceived, CaseStatusAssigned}:   true,
		{CaseStatusInProgress, CaseStatusAssigned}: true,
		{CaseStatusInProgress, CaseStatusAnswered}: true,
		{CaseStatusAssigned, CaseStatusInProgress}: true,
		{CaseStatusAssigned, CaseStatusAnswered}:   true,
		{CaseStatusAnswered, CaseStatusClosed}:     true,
	}
	for _, from := range CaseStatuses {
		for _, to := range CaseStatuses {
			if allowed[[2]CaseStatus{from, to}] {
				continue
			}
			assert.False(t, CanTransition(from, to), "%s -> %s should be rejected", from, to)
		}
	}
}

func TestClosedIsTerminal(t *testing.T) {
	for _, to := range CaseStatuses {
		assert.False(t, CanTransition(CaseStatusClosed, to))
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	past := Case{DueDate: now.Add(-time.Hour), Status: CaseStatusInProgress}
	assert.True(t, past.Overdue(now))

	future := Case{DueDate: now.Add(time.Hour), Status: CaseStatusInProgress}
	assert.False(t, future.Overdue(now))

	// A closed case is never overdue regardless of its due date.
	closed := Case{DueDate: now.Add(-time.Hour), Status: CaseStatusClosed}
	assert.False(t, closed.Overdue(now))

	// An answered but unclosed case past its deadline still counts.
	answered := Case{DueDate: now.Add(-time.Hour), Status: CaseStatusAnswered}
	assert.True(t, answered.Overdue(now))
}
