package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/config"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
)

// EscalationRecorder counts escalations.
type EscalationRecorder interface {
	RecordEscalation(esc domain.Escalation)
}

// NotificationService hands SLA escalations to the notifier collaborators.
// Delivery itself is not implemented here; the stubs log what would be sent.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	recorder   EscalationRecorder
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, recorder EscalationRecorder) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		recorder:   recorder,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSLAAtRisk, n.handleAtRisk)
	n.dispatcher.Subscribe(events.EventSLABreached, n.handleBreached)
}

func (n *NotificationService) handleAtRisk(ctx context.Context, event events.Event) error {
	n.logger.Info("SLAAtRisk", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.record(event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleBreached(ctx context.Context, event events.Event) error {
	n.logger.Warn("SLABreached", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.record(event)
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) record(event events.Event) {
	if n.recorder == nil {
		return
	}
	payload, ok := event.Payload.(events.EscalationPayload)
	if !ok {
		return
	}
	n.recorder.RecordEscalation(domain.Escalation{
		TicketID:       payload.TicketID,
		PreviousStatus: payload.PreviousStatus,
		NewStatus:      payload.NewStatus,
		DeadlineType:   payload.DeadlineType,
		OccurredAt:     event.Timestamp,
	})
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
