package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

const maxLifecycleRetries = 5

// SLAService coordinates the SLA engine for the HTTP layer and the worker.
type SLAService struct {
	assigner   *sla.Assigner
	reconciler *sla.Reconciler
	aggregator *sla.Aggregator
	evaluator  sla.Evaluator
	records    sla.SLAStore
	cache      repository.StatsCache
	hook       sla.EscalationHook
	logger     *zap.Logger
	now        func() time.Time
}

// SLADependencies bundles collaborators for the SLA service.
type SLADependencies struct {
	Assigner   *sla.Assigner
	Reconciler *sla.Reconciler
	Aggregator *sla.Aggregator
	Evaluator  sla.Evaluator
	Records    sla.SLAStore
	Cache      repository.StatsCache
	Hook       sla.EscalationHook
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	s := &SLAService{
		assigner:   deps.Assigner,
		reconciler: deps.Reconciler,
		aggregator: deps.Aggregator,
		evaluator:  deps.Evaluator,
		records:    deps.Records,
		cache:      deps.Cache,
		hook:       deps.Hook,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if s.evaluator == (sla.Evaluator{}) {
		s.evaluator = sla.NewEvaluator(sla.DefaultAtRiskFraction)
	}
	if s.cache == nil {
		s.cache = repository.NewStatsCache(nil, 0)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// AssignOutcome reports what happened when a ticket was registered.
type AssignOutcome struct {
	Record  *domain.SLARecord
	Created bool
	// Skipped is set when no active policy covers the ticket's priority.
	Skipped bool
}

// OnTicketCreated assigns an SLA record to a new ticket. A missing policy is
// logged as a configuration gap and never fails the call.
func (s *SLAService) OnTicketCreated(ctx context.Context, ticket domain.TicketRef) (AssignOutcome, error) {
	if ticket.ID == "" {
		return AssignOutcome{}, apperrors.NewValidationError("ticket id required", nil)
	}
	if !ticket.Priority.Valid() {
		return AssignOutcome{}, apperrors.NewValidationError("unknown priority", map[string]any{"priority": ticket.Priority})
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = s.now()
	}

	record, created, err := s.assigner.Assign(ctx, ticket)
	if errors.Is(err, sla.ErrPolicyNotFound) {
		s.logger.Warn("no active sla policy; ticket left without sla",
			zap.String("ticket_id", ticket.ID),
			zap.String("priority", string(ticket.Priority)))
		return AssignOutcome{Skipped: true}, nil
	}
	if errors.Is(err, repository.ErrUnknownTicket) {
		return AssignOutcome{}, apperrors.NewValidationError("unknown ticket", map[string]any{"ticket_id": ticket.ID})
	}
	if err != nil {
		return AssignOutcome{}, apperrors.MapError(err)
	}
	if created {
		s.invalidateStats(ctx)
	}
	return AssignOutcome{Record: record, Created: created}, nil
}

// GetRecord returns the SLA record of a ticket.
func (s *SLAService) GetRecord(ctx context.Context, ticketID string) (*domain.SLARecord, error) {
	record, err := s.records.Get(ctx, ticketID)
	if errors.Is(err, sla.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("sla record", map[string]any{"ticket_id": ticketID})
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return record, nil
}

// RecordFirstResponse stamps the first response time. Later calls leave the
// original timestamp in place. A response after the deadline counts as a
// response breach; otherwise the record is classified against the
// resolution deadline only.
func (s *SLAService) RecordFirstResponse(ctx context.Context, ticketID string, at time.Time) (*domain.SLARecord, error) {
	if at.IsZero() {
		at = s.now()
	}
	return s.mutate(ctx, ticketID, at, func(rec domain.SLARecord) (domain.SLARecord, bool) {
		if rec.FirstResponseAt != nil || rec.Resolved() {
			return rec, false
		}
		next := s.evaluator.Evaluate(rec, at)
		next.FirstResponseAt = &at
		return s.evaluator.Evaluate(next, at), true
	})
}

// MarkResolved freezes the record in the state it had at the resolution
// instant.
func (s *SLAService) MarkResolved(ctx context.Context, ticketID string, at time.Time) (*domain.SLARecord, error) {
	if at.IsZero() {
		at = s.now()
	}
	return s.mutate(ctx, ticketID, at, func(rec domain.SLARecord) (domain.SLARecord, bool) {
		if rec.Resolved() {
			return rec, false
		}
		next := s.evaluator.Evaluate(rec, at)
		next.ResolvedAt = &at
		return next, true
	})
}

// mutate applies change to the stored record with optimistic concurrency,
// re-reading on conflict.
func (s *SLAService) mutate(ctx context.Context, ticketID string, at time.Time, change func(domain.SLARecord) (domain.SLARecord, bool)) (*domain.SLARecord, error) {
	for attempt := 0; ; attempt++ {
		current, err := s.GetRecord(ctx, ticketID)
		if err != nil {
			return nil, err
		}
		next, ok := change(*current)
		if !ok {
			return current, nil
		}
		escalations := sla.DetectEscalations(*current, next, at)
		sla.ApplyEscalations(&next, escalations)
		next.UpdatedAt = s.now()

		saved, err := s.records.Upsert(ctx, &next)
		if errors.Is(err, sla.ErrStaleRecord) && attempt < maxLifecycleRetries {
			continue
		}
		if err != nil {
			return nil, apperrors.MapError(fmt.Errorf("update sla record for ticket %s: %w", ticketID, err))
		}
		for _, esc := range escalations {
			if s.hook != nil {
				s.hook.OnEscalation(ctx, esc)
			}
		}
		s.invalidateStats(ctx)
		return saved, nil
	}
}

// Stats returns compliance statistics, served from cache when fresh.
func (s *SLAService) Stats(ctx context.Context) (domain.SLAStats, error) {
	cached, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn("stats cache read failed", zap.Error(err))
	}
	if cached != nil {
		return *cached, nil
	}
	stats, err := s.aggregator.Stats(ctx)
	if err != nil {
		return domain.SLAStats{}, apperrors.MapError(err)
	}
	if err := s.cache.Set(ctx, stats); err != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}
	return stats, nil
}

// Reconcile runs a reconciliation pass as of now.
func (s *SLAService) Reconcile(ctx context.Context) (sla.ReconcileResult, error) {
	result, err := s.reconciler.ReconcileAll(ctx, s.now())
	if result.Created > 0 || result.Evaluated > 0 {
		s.invalidateStats(ctx)
	}
	if err != nil {
		return result, apperrors.MapError(err)
	}
	return result, nil
}

func (s *SLAService) invalidateStats(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}
