package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/pqrsd-service/internal/config"
	"github.com/spec-kit/pqrsd-service/internal/events"
)

// NotificationService delivers petitioner and operator notifications for
// case events. Delivery is fire-and-forget: failures are logged and never
// surfaced to the originating case operation. The service is constructed
// and injected explicitly; there is no ambient transport singleton.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to case events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCaseCreated, n.handleCaseCreated)
	n.dispatcher.Subscribe(events.EventCaseStatusChanged, n.handleCaseStatusChanged)
	n.dispatcher.Subscribe(events.EventCaseAssigned, n.handleCaseAssigned)
}

func (n *NotificationService) handleCaseCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CaseCreatedPayload)
	if !ok {
		return nil
	}
	n.SendCaseCreated(ctx, payload.PetitionerEmail, payload.FilingNumber, payload.AccessCode)
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleCaseStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseStatusChanged", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleCaseAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseAssigned", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

// SendCaseCreated tells the petitioner their filing number and access code.
// The e-mail channel is a stub; a real deployment plugs an SMTP sender here.
func (n *NotificationService) SendCaseCreated(ctx context.Context, email, filingNumber, accessCode string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || strings.TrimSpace(email) == "" {
		return
	}
	n.logger.Info("sendCaseCreatedEmail",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", email),
		zap.String("filing_number", filingNumber),
		zap.Int("access_code_len", len(accessCode)))
}

// SendOverdueAlert flags a case past its statutory deadline.
func (n *NotificationService) SendOverdueAlert(ctx context.Context, filingNumber, subject string) {
	n.logger.Warn("case overdue",
		zap.String("filing_number", filingNumber),
		zap.String("subject", subject))
}

// SendDeadlineReminder flags a case approaching its deadline.
func (n *NotificationService) SendDeadlineReminder(ctx context.Context, filingNumber, subject string) {
	n.logger.Info("case deadline approaching",
		zap.String("filing_number", filingNumber),
		zap.String("subject", subject))
}

func (n *NotificationService) sendWebhookStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("case_id", event.CaseID),
		zap.String("event_type", string(event.Type)))
}
