package sla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
)

const (
	defaultBatchSize = 200
	maxStaleRetries  = 3
)

// ReconcileResult counts what a reconciliation pass did.
type ReconcileResult struct {
	Created   int `json:"created"`
	Evaluated int `json:"evaluated"`
	Skipped   int `json:"skipped"`
	Unchanged int `json:"unchanged"`
}

// ReconcileObserver is told about the outcome of every pass.
type ReconcileObserver interface {
	ObserveReconcile(result ReconcileResult, duration time.Duration, err error)
}

// Reconciler backfills missing SLA records and refreshes stale ones.
type Reconciler struct {
	tickets   TicketStore
	records   SLAStore
	assigner  *Assigner
	evaluator Evaluator
	hook      EscalationHook
	observer  ReconcileObserver
	batchSize int
	logger    *zap.Logger
}

// ReconcilerDependencies bundles collaborators for the reconciler.
type ReconcilerDependencies struct {
	Tickets   TicketStore
	Records   SLAStore
	Assigner  *Assigner
	Evaluator Evaluator
	Hook      EscalationHook
	Observer  ReconcileObserver
	BatchSize int
	Logger    *zap.Logger
}

// NewReconciler constructs a reconciler.
func NewReconciler(deps ReconcilerDependencies) *Reconciler {
	r := &Reconciler{
		tickets:   deps.Tickets,
		records:   deps.Records,
		assigner:  deps.Assigner,
		evaluator: deps.Evaluator,
		hook:      deps.Hook,
		observer:  deps.Observer,
		batchSize: deps.BatchSize,
		logger:    deps.Logger,
	}
	if r.evaluator == (Evaluator{}) {
		r.evaluator = NewEvaluator(DefaultAtRiskFraction)
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// ReconcileAll assigns records to tickets lacking one, then re-evaluates
// every unresolved record as of now. Work is done in batches; on
// cancellation the counts so far are returned with the context error and a
// later pass picks up where this one stopped.
func (r *Reconciler) ReconcileAll(ctx context.Context, now time.Time) (ReconcileResult, error) {
	start := time.Now()
	var result ReconcileResult
	err := r.backfill(ctx, &result)
	if err == nil {
		err = r.refresh(ctx, now, &result)
	}
	if r.observer != nil {
		r.observer.ObserveReconcile(result, time.Since(start), err)
	}
	if err != nil {
		return result, err
	}
	r.logger.Info("sla reconciliation finished",
		zap.Int("created", result.Created),
		zap.Int("evaluated", result.Evaluated),
		zap.Int("skipped", result.Skipped),
		zap.Int("unchanged", result.Unchanged))
	return result, nil
}

func (r *Reconciler) backfill(ctx context.Context, result *ReconcileResult) error {
	var cursor domain.TicketCursor
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tickets, err := r.tickets.ListTicketsWithoutSLA(ctx, cursor, r.batchSize)
		if err != nil {
			return fmt.Errorf("list tickets without sla: %w", err)
		}
		for _, ticket := range tickets {
			if err := ctx.Err(); err != nil {
				return err
			}
			cursor = ticket.Cursor()
			_, created, err := r.assigner.Assign(ctx, ticket)
			if errors.Is(err, ErrPolicyNotFound) {
				result.Skipped++
				r.logger.Warn("no active sla policy; ticket skipped",
					zap.String("ticket_id", ticket.ID),
					zap.String("priority", string(ticket.Priority)))
				continue
			}
			if err != nil {
				return err
			}
			if created {
				result.Created++
			}
		}
		if len(tickets) < r.batchSize {
			return nil
		}
	}
}

func (r *Reconciler) refresh(ctx context.Context, now time.Time, result *ReconcileResult) error {
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		records, err := r.records.ListUnresolved(ctx, after, r.batchSize)
		if err != nil {
			return fmt.Errorf("list unresolved sla records: %w", err)
		}
		for i := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			after = records[i].TicketID
			changed, err := r.Refresh(ctx, records[i], now)
			if err != nil {
				return err
			}
			if changed {
				result.Evaluated++
			} else {
				result.Unchanged++
			}
		}
		if len(records) < r.batchSize {
			return nil
		}
	}
}

// Refresh evaluates a single record as of now and persists it when its
// state changed. A concurrent writer causes a re-read and another attempt.
func (r *Reconciler) Refresh(ctx context.Context, record domain.SLARecord, now time.Time) (bool, error) {
	for attempt := 0; ; attempt++ {
		next := r.evaluator.Evaluate(record, now)
		escalations := DetectEscalations(record, next, now)
		ApplyEscalations(&next, escalations)
		if next.Equal(record) {
			return false, nil
		}
		next.UpdatedAt = now

		_, err := r.records.Upsert(ctx, &next)
		if err == nil {
			r.notify(ctx, escalations)
			return true, nil
		}
		if !errors.Is(err, ErrStaleRecord) || attempt >= maxStaleRetries {
			return false, fmt.Errorf("save sla record for ticket %s: %w", record.TicketID, err)
		}
		latest, getErr := r.records.Get(ctx, record.TicketID)
		if getErr != nil {
			return false, fmt.Errorf("reload sla record for ticket %s: %w", record.TicketID, getErr)
		}
		record = *latest
	}
}

func (r *Reconciler) notify(ctx context.Context, escalations []domain.Escalation) {
	if r.hook == nil {
		return
	}
	for _, esc := range escalations {
		r.hook.OnEscalation(ctx, esc)
	}
}
