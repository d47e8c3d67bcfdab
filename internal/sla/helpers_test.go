package sla_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
)

var base = time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)

func minutesAfter(n int) time.Time {
	return base.Add(time.Duration(n) * time.Minute)
}

func newStore(t *testing.T, policies ...domain.Policy) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore()
	for i := range policies {
		require.NoError(t, store.CreatePolicy(context.Background(), &policies[i]))
	}
	return store
}

func wallClockPolicy(priority domain.Priority, response, resolution int) domain.Policy {
	return domain.Policy{
		Name:                  string(priority) + " policy",
		Priority:              priority,
		ResponseTimeMinutes:   response,
		ResolutionTimeMinutes: resolution,
		IsActive:              true,
	}
}

func newAssigner(store *repository.MemoryStore, records sla.SLAStore, now time.Time) *sla.Assigner {
	return sla.NewAssigner(sla.AssignerDependencies{
		Catalog:  sla.NewCatalog(store, nil),
		Calendar: sla.NewCalendar(sla.WithLocation(time.UTC)),
		Store:    records,
		Now:      func() time.Time { return now },
	})
}

// hookRecorder collects escalations.
type hookRecorder struct {
	mu     sync.Mutex
	events []domain.Escalation
}

func (h *hookRecorder) OnEscalation(_ context.Context, esc domain.Escalation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, esc)
}

func (h *hookRecorder) all() []domain.Escalation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.Escalation(nil), h.events...)
}
