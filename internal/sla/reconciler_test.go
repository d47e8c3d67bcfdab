package sla_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
)

func newReconciler(store *repository.MemoryStore, hook sla.EscalationHook, batchSize int, now time.Time) *sla.Reconciler {
	return sla.NewReconciler(sla.ReconcilerDependencies{
		Tickets:   store,
		Records:   store,
		Assigner:  newAssigner(store, store, now),
		Hook:      hook,
		BatchSize: batchSize,
	})
}

func TestReconcileAll_Backfill(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, wallClockPolicy(domain.PriorityHigh, 60, 480))
	store.PutTicket(domain.TicketRef{ID: "legacy-1", Priority: domain.PriorityHigh, CreatedAt: base})
	now := minutesAfter(10)
	reconciler := newReconciler(store, nil, 0, now)

	result, err := reconciler.ReconcileAll(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Skipped)

	rec, err := store.Get(ctx, "legacy-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SLAStatusOnTrack, rec.Status)

	again, err := reconciler.ReconcileAll(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 0, again.Evaluated)
	assert.Equal(t, 1, again.Unchanged)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReconcileAll_SkipsTicketsWithoutPolicy(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, wallClockPolicy(domain.PriorityHigh, 60, 480))
	store.PutTicket(domain.TicketRef{ID: "low-1", Priority: domain.PriorityLow, CreatedAt: base})
	store.PutTicket(domain.TicketRef{ID: "high-1", Priority: domain.PriorityHigh, CreatedAt: base})

	result, err := newReconciler(store, nil, 0, base).ReconcileAll(ctx, base)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	_, err = store.Get(ctx, "low-1")
	assert.ErrorIs(t, err, sla.ErrRecordNotFound)
}

func TestReconcileAll_PagesThroughBatches(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, wallClockPolicy(domain.PriorityMedium, 60, 480))
	for i := 0; i < 5; i++ {
		store.PutTicket(domain.TicketRef{
			ID:        fmt.Sprintf("t-%d", i),
			Priority:  domain.PriorityMedium,
			CreatedAt: minutesAfter(i % 2),
		})
	}

	result, err := newReconciler(store, nil, 2, minutesAfter(5)).ReconcileAll(ctx, minutesAfter(5))

	require.NoError(t, err)
	assert.Equal(t, 5, result.Created)
	assert.Equal(t, 5, result.Unchanged)
}

func TestReconcileAll_EscalatesBreaches(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, wallClockPolicy(domain.PriorityHigh, 60, 480))
	store.PutTicket(domain.TicketRef{ID: "late-1", Priority: domain.PriorityHigh, CreatedAt: base})
	hook := &hookRecorder{}
	now := minutesAfter(90)
	reconciler := newReconciler(store, hook, 0, now)

	result, err := reconciler.ReconcileAll(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Evaluated)

	events := hook.all()
	require.Len(t, events, 1)
	assert.Equal(t, "late-1", events[0].TicketID)
	assert.Equal(t, domain.SLAStatusBreached, events[0].NewStatus)
	assert.Equal(t, domain.DeadlineResponse, events[0].DeadlineType)

	rec, err := store.Get(ctx, "late-1")
	require.NoError(t, err)
	assert.True(t, rec.ResponseBreached)
	assert.True(t, rec.Escalated)
	assert.Equal(t, domain.SLAStatusBreached, rec.Status)

	again, err := reconciler.ReconcileAll(ctx, minutesAfter(95))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Evaluated)
	assert.Len(t, hook.all(), 1)
}

func TestReconcileAll_WarnsOnce(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, wallClockPolicy(domain.PriorityHigh, 60, 480))
	store.PutTicket(domain.TicketRef{ID: "t-1", Priority: domain.PriorityHigh, CreatedAt: base})
	hook := &hookRecorder{}
	reconciler := newReconciler(store, hook, 0, base)

	_, err := reconciler.ReconcileAll(ctx, minutesAfter(50))
	require.NoError(t, err)
	_, err = reconciler.ReconcileAll(ctx, minutesAfter(55))
	require.NoError(t, err)

	events := hook.all()
	require.Len(t, events, 1)
	assert.Equal(t, domain.SLAStatusAtRisk, events[0].NewStatus)

	rec, err := store.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.WarningsSent)
}

func TestReconcileAll_LeavesResolvedRecordsAlone(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, wallClockPolicy(domain.PriorityHigh, 60, 480))
	resolvedAt := minutesAfter(30)
	store.PutTicket(domain.TicketRef{ID: "done-1", Priority: domain.PriorityHigh, CreatedAt: base, ResolvedAt: &resolvedAt})

	result, err := newReconciler(store, nil, 0, minutesAfter(1000)).ReconcileAll(ctx, minutesAfter(1000))

	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Evaluated+result.Unchanged)
	rec, err := store.Get(ctx, "done-1")
	require.NoError(t, err)
	assert.False(t, rec.Breached())
}

func TestReconcileAll_Cancelled(t *testing.T) {
	store := newStore(t, wallClockPolicy(domain.PriorityHigh, 60, 480))
	store.PutTicket(domain.TicketRef{ID: "t-1", Priority: domain.PriorityHigh, CreatedAt: base})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newReconciler(store, nil, 0, base).ReconcileAll(ctx, base)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, sla.ReconcileResult{}, result)
}

// staleOnceStore rejects the first update as if another writer got there
// first.
type staleOnceStore struct {
	*repository.MemoryStore
	rejected bool
}

func (s *staleOnceStore) Upsert(ctx context.Context, rec *domain.SLARecord) (*domain.SLARecord, error) {
	if rec.Version > 0 && !s.rejected {
		s.rejected = true
		return nil, sla.ErrStaleRecord
	}
	return s.MemoryStore.Upsert(ctx, rec)
}

func TestRefresh_RetriesStaleWrites(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, wallClockPolicy(domain.PriorityHigh, 60, 480))
	created, _, err := newAssigner(store, store, base).Assign(ctx, domain.TicketRef{
		ID: "t-1", Priority: domain.PriorityHigh, CreatedAt: base,
	})
	require.NoError(t, err)

	stale := &staleOnceStore{MemoryStore: store}
	reconciler := sla.NewReconciler(sla.ReconcilerDependencies{
		Tickets:  store,
		Records:  stale,
		Assigner: newAssigner(store, stale, base),
	})

	changed, err := reconciler.Refresh(ctx, *created, minutesAfter(90))

	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, stale.rejected)
	rec, err := store.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.True(t, rec.ResponseBreached)
}
