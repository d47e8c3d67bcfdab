package events

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSLAAtRisk   EventType = "sla_at_risk"
	EventSLABreached EventType = "sla_breached"
)

// Event represents a domain event emitted by the SLA engine.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// EscalationPayload is carried by at-risk and breach events.
type EscalationPayload struct {
	TicketID       string              `json:"ticket_id"`
	PreviousStatus domain.SLAStatus    `json:"previous_status"`
	NewStatus      domain.SLAStatus    `json:"new_status"`
	DeadlineType   domain.DeadlineType `json:"deadline_type"`
}
