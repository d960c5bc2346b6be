package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/pqrsd-service/internal/domain"
	"github.com/spec-kit/pqrsd-service/internal/repository"
)

type stubCaseLister struct {
	repository.CaseRepository
	cases []domain.Case
}

func (s *stubCaseLister) List(_ context.Context, filter repository.CaseFilter) ([]domain.Case, int64, error) {
	out := make([]domain.Case, 0)
	for _, c := range s.cases {
		if filter.ExcludeStatus != nil && c.Status == *filter.ExcludeStatus {
			continue
		}
		if filter.DueBefore != nil && !c.DueDate.Before(*filter.DueBefore) {
			continue
		}
		if filter.DueAfter != nil && !c.DueDate.After(*filter.DueAfter) {
			continue
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	overdue   []string
	reminders []string
}

func (r *recordingNotifier) SendOverdueAlert(_ context.Context, filingNumber, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overdue = append(r.overdue, filingNumber)
}

func (r *recordingNotifier) SendDeadlineReminder(_ context.Context, filingNumber, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reminders = append(r.reminders, filingNumber)
}

func TestRunOnce(t *testing.T) {
	now := time.Date(2024, 5, 8, 10, 0, 0, 0, time.UTC)
	lister := &stubCaseLister{cases: []domain.Case{
		{FilingNumber: "PQRSD-2024-000001", Status: domain.CaseStatusInProgress, DueDate: now.Add(-2 * time.Hour)},
		{FilingNumber: "PQRSD-2024-000002", Status: domain.CaseStatusClosed, DueDate: now.Add(-2 * time.Hour)},
		{FilingNumber: "PQRSD-2024-000003", Status: domain.CaseStatusAssigned, DueDate: now.Add(6 * time.Hour)},
		{FilingNumber: "PQRSD-2024-000004", Status: domain.CaseStatusReceived, DueDate: now.Add(72 * time.Hour)},
	}}
	notifier := &recordingNotifier{}
	sweeper := NewDeadlineSweeper(lister, notifier, zap.NewNop(), time.Hour, 24*time.Hour,
		func() time.Time { return now })

	require.NoError(t, sweeper.RunOnce(context.Background()))

	// Only the open overdue case alerts; the closed one is skipped.
	assert.Equal(t, []string{"PQRSD-2024-000001"}, notifier.overdue)
	// Only the case due within the 24h window gets a reminder.
	assert.Equal(t, []string{"PQRSD-2024-000003"}, notifier.reminders)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	now := time.Date(2024, 5, 8, 10, 0, 0, 0, time.UTC)
	lister := &stubCaseLister{cases: []domain.Case{
		{FilingNumber: "PQRSD-2024-000001", Status: domain.CaseStatusInProgress, DueDate: now.Add(-time.Hour)},
	}}
	notifier := &recordingNotifier{}
	sweeper := NewDeadlineSweeper(lister, notifier, zap.NewNop(), time.Hour, 24*time.Hour,
		func() time.Time { return now })

	require.NoError(t, sweeper.RunOnce(context.Background()))
	require.NoError(t, sweeper.RunOnce(context.Background()))

	// Two sweeps, two alerts; nothing else changes.
	assert.Len(t, notifier.overdue, 2)
	assert.Empty(t, notifier.reminders)
}

func TestStartStop(t *testing.T) {
	lister := &stubCaseLister{}
	notifier := &recordingNotifier{}
	sweeper := NewDeadlineSweeper(lister, notifier, zap.NewNop(), time.Hour, time.Hour, nil)

	sweeper.Start(context.Background())
	sweeper.Stop()
}
