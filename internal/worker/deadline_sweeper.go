// Package worker hosts the recurring background jobs.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/pqrsd-service/internal/domain"
	"github.com/spec-kit/pqrsd-service/internal/repository"
)

// DeadlineNotifier receives the sweep findings. Delivery is best effort.
type DeadlineNotifier interface {
	SendOverdueAlert(ctx context.Context, filingNumber, subject string)
	SendDeadlineReminder(ctx context.Context, filingNumber, subject string)
}

// DeadlineSweeper periodically scans for cases past or approaching their
// statutory deadline. Each firing only reads and triggers notifications, so
// running twice is harmless.
type DeadlineSweeper struct {
	cases          repository.CaseRepository
	notifier       DeadlineNotifier
	logger         *zap.Logger
	interval       time.Duration
	reminderWindow time.Duration
	clock          func() time.Time
	cancel         context.CancelFunc
	done           chan struct{}
}

// NewDeadlineSweeper constructs the sweeper.
func NewDeadlineSweeper(cases repository.CaseRepository, notifier DeadlineNotifier, logger *zap.Logger, interval, reminderWindow time.Duration, clock func() time.Time) *DeadlineSweeper {
	if clock == nil {
		clock = time.Now
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if reminderWindow <= 0 {
		reminderWindow = 24 * time.Hour
	}
	return &DeadlineSweeper{
		cases:          cases,
		notifier:       notifier,
		logger:         logger,
		interval:       interval,
		reminderWindow: reminderWindow,
		clock:          clock,
	}
}

// Start launches the sweep loop until the context is cancelled or Stop is
// called.
func (s *DeadlineSweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.RunOnce(ctx); err != nil {
					s.logger.Error("deadline sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for the current sweep to finish.
func (s *DeadlineSweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

// RunOnce performs a single sweep: overdue alerts first, then reminders for
// cases due within the reminder window.
func (s *DeadlineSweeper) RunOnce(ctx context.Context) error {
	now := s.clock()
	closed := domain.CaseStatusClosed

	overdue, _, err := s.cases.List(ctx, repository.CaseFilter{
		DueBefore:     &now,
		ExcludeStatus: &closed,
		Limit:         sweepPageSize,
	})
	if err != nil {
		return err
	}
	if len(overdue) > 0 {
		s.logger.Warn("overdue cases found", zap.Int("count", len(overdue)))
	}
	for i := range overdue {
		s.notifier.SendOverdueAlert(ctx, overdue[i].FilingNumber, overdue[i].Subject)
	}

	windowEnd := now.Add(s.reminderWindow)
	upcoming, _, err := s.cases.List(ctx, repository.CaseFilter{
		DueAfter:      &now,
		DueBefore:     &windowEnd,
		ExcludeStatus: &closed,
		Limit:         sweepPageSize,
	})
	if err != nil {
		return err
	}
	for i := range upcoming {
		s.notifier.SendDeadlineReminder(ctx, upcoming[i].FilingNumber, upcoming[i].Subject)
	}

	s.logger.Info("deadline sweep complete",
		zap.Int("overdue", len(overdue)),
		zap.Int("upcoming", len(upcoming)))
	return nil
}

const sweepPageSize = 500
