package sla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// Assigner creates the SLA record of a ticket.
type Assigner struct {
	catalog   *Catalog
	calendar  *Calendar
	evaluator Evaluator
	store     SLAStore
	logger    *zap.Logger
	now       func() time.Time
}

// AssignerDependencies bundles collaborators for the assigner.
type AssignerDependencies struct {
	Catalog   *Catalog
	Calendar  *Calendar
	Evaluator Evaluator
	Store     SLAStore
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewAssigner constructs an assigner.
func NewAssigner(deps AssignerDependencies) *Assigner {
	a := &Assigner{
		catalog:   deps.Catalog,
		calendar:  deps.Calendar,
		evaluator: deps.Evaluator,
		store:     deps.Store,
		logger:    deps.Logger,
		now:       deps.Now,
	}
	if a.evaluator == (Evaluator{}) {
		a.evaluator = NewEvaluator(DefaultAtRiskFraction)
	}
	if a.calendar == nil {
		a.calendar = NewCalendar()
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Assign returns the SLA record of ticket, creating it when missing. The
// boolean reports whether this call created it. A concurrent assignment of
// the same ticket is not an error: the record that won is returned.
func (a *Assigner) Assign(ctx context.Context, ticket domain.TicketRef) (*domain.SLARecord, bool, error) {
	existing, err := a.store.Get(ctx, ticket.ID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, ErrRecordNotFound):
		return nil, false, fmt.Errorf("load sla record for ticket %s: %w", ticket.ID, err)
	}

	record, err := a.Build(ctx, ticket)
	if err != nil {
		return nil, false, err
	}

	saved, err := a.store.Upsert(ctx, record)
	if errors.Is(err, ErrDuplicateRecord) {
		a.logger.Debug("sla record created concurrently", zap.String("ticket_id", ticket.ID))
		winner, getErr := a.store.Get(ctx, ticket.ID)
		if getErr != nil {
			return nil, false, fmt.Errorf("reload sla record for ticket %s: %w", ticket.ID, getErr)
		}
		return winner, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("save sla record for ticket %s: %w", ticket.ID, err)
	}
	return saved, true, nil
}

// Build computes a new, unsaved SLA record for ticket. Milestones the ticket
// already reached are copied over; a resolved ticket yields a record frozen
// in the state it had at resolution.
func (a *Assigner) Build(ctx context.Context, ticket domain.TicketRef) (*domain.SLARecord, error) {
	policy, err := a.catalog.FindActivePolicy(ctx, ticket.Priority)
	if err != nil {
		return nil, err
	}

	now := a.now()
	record := domain.SLARecord{
		ID:                 uuid.NewString(),
		TicketID:           ticket.ID,
		PolicyID:           policy.ID,
		StartedAt:          ticket.CreatedAt,
		ResponseDeadline:   a.calendar.AddDuration(ticket.CreatedAt, policy.ResponseTimeMinutes, policy.BusinessHoursOnly),
		ResolutionDeadline: a.calendar.AddDuration(ticket.CreatedAt, policy.ResolutionTimeMinutes, policy.BusinessHoursOnly),
		Status:             domain.SLAStatusOnTrack,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if ticket.FirstResponseAt != nil {
		at := *ticket.FirstResponseAt
		record.FirstResponseAt = &at
		if at.After(record.ResponseDeadline) {
			record.ResponseBreached = true
			record.Status = domain.SLAStatusBreached
		}
	}
	if ticket.ResolvedAt != nil {
		at := *ticket.ResolvedAt
		record = a.evaluator.Evaluate(record, at)
		record.ResolvedAt = &at
	}
	return &record, nil
}
