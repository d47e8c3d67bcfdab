package sla

import (
	"context"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// TicketStore reads helpdesk tickets. The engine never writes tickets.
type TicketStore interface {
	// ListTicketsWithoutSLA returns up to limit tickets that have no SLA
	// record, ordered by (CreatedAt, ID) and strictly after the cursor.
	ListTicketsWithoutSLA(ctx context.Context, after domain.TicketCursor, limit int) ([]domain.TicketRef, error)
}

// SLAStore persists SLA records, one per ticket.
type SLAStore interface {
	Get(ctx context.Context, ticketID string) (*domain.SLARecord, error)
	// Upsert inserts the record when Version is zero, failing with
	// ErrDuplicateRecord if the ticket already has one. Otherwise it updates
	// the stored row only if its version still matches, failing with
	// ErrStaleRecord when it does not. The returned record carries the new
	// version.
	Upsert(ctx context.Context, record *domain.SLARecord) (*domain.SLARecord, error)
	// ListUnresolved pages unresolved records ordered by ticket id.
	ListUnresolved(ctx context.Context, afterTicketID string, limit int) ([]domain.SLARecord, error)
	ListAll(ctx context.Context) ([]domain.SLARecord, error)
}

// PolicyStore looks up policies.
type PolicyStore interface {
	ActivePoliciesFor(ctx context.Context, priority domain.Priority) ([]domain.Policy, error)
}

// EscalationHook receives at-risk warnings and breaches.
type EscalationHook interface {
	OnEscalation(ctx context.Context, escalation domain.Escalation)
}

// EscalationHookFunc adapts a function to EscalationHook.
type EscalationHookFunc func(ctx context.Context, escalation domain.Escalation)

// OnEscalation calls f.
func (f EscalationHookFunc) OnEscalation(ctx context.Context, escalation domain.Escalation) {
	f(ctx, escalation)
}
