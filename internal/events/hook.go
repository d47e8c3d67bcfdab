package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// DispatcherHook publishes SLA escalations on a dispatcher.
type DispatcherHook struct {
	dispatcher Dispatcher
}

// NewDispatcherHook adapts a dispatcher to sla.EscalationHook.
func NewDispatcherHook(dispatcher Dispatcher) *DispatcherHook {
	return &DispatcherHook{dispatcher: dispatcher}
}

// OnEscalation publishes sla_breached or sla_at_risk.
func (h *DispatcherHook) OnEscalation(ctx context.Context, esc domain.Escalation) {
	if h == nil || h.dispatcher == nil {
		return
	}
	eventType := EventSLAAtRisk
	if esc.NewStatus == domain.SLAStatusBreached {
		eventType = EventSLABreached
	}
	ts := esc.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_ = h.dispatcher.Publish(ctx, Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  esc.TicketID,
		Timestamp: ts,
		Payload: EscalationPayload{
			TicketID:       esc.TicketID,
			PreviousStatus: esc.PreviousStatus,
			NewStatus:      esc.NewStatus,
			DeadlineType:   esc.DeadlineType,
		},
	})
}
