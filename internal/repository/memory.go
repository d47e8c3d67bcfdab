package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/sla"
)

// MemoryStore keeps tickets, policies and SLA records in process. It is used
// when no database is configured and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	tickets  map[string]domain.TicketRef
	policies map[string]domain.Policy
	records  map[string]domain.SLARecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets:  make(map[string]domain.TicketRef),
		policies: make(map[string]domain.Policy),
		records:  make(map[string]domain.SLARecord),
	}
}

// PutTicket records or replaces a ticket projection.
func (m *MemoryStore) PutTicket(ticket domain.TicketRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[ticket.ID] = ticket
}

// ListTicketsWithoutSLA implements sla.TicketStore.
func (m *MemoryStore) ListTicketsWithoutSLA(ctx context.Context, after domain.TicketCursor, limit int) ([]domain.TicketRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.TicketRef
	for _, t := range m.tickets {
		if _, ok := m.records[t.ID]; ok {
			continue
		}
		if after.Before(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Cursor().Before(out[j])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ActivePoliciesFor implements sla.PolicyStore.
func (m *MemoryStore) ActivePoliciesFor(ctx context.Context, priority domain.Priority) ([]domain.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Policy
	for _, p := range m.policies {
		if p.IsActive && p.Priority == priority {
			out = append(out, p)
		}
	}
	return out, nil
}

// CreatePolicy stores a new policy. Activating a second policy for the same
// priority fails with ErrActivePolicyExists.
func (m *MemoryStore) CreatePolicy(ctx context.Context, policy *domain.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if policy.IsActive {
		for _, p := range m.policies {
			if p.IsActive && p.Priority == policy.Priority {
				return ErrActivePolicyExists
			}
		}
	}
	now := time.Now()
	if policy.ID == "" {
		policy.ID = uuid.NewString()
	}
	policy.CreatedAt = now
	policy.UpdatedAt = now
	m.policies[policy.ID] = *policy
	return nil
}

// GetPolicy returns a policy by id.
func (m *MemoryStore) GetPolicy(ctx context.Context, id string) (*domain.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.policies[id]
	if !ok {
		return nil, ErrPolicyNotFound
	}
	return &p, nil
}

// ListPolicies returns all policies ordered by priority then creation.
func (m *MemoryStore) ListPolicies(ctx context.Context) ([]domain.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Policy, 0, len(m.policies))
	for _, p := range m.policies {
		out = append(out, p)
	}
	sortPolicies(out)
	return out, nil
}

// DeactivatePolicy marks a policy inactive.
func (m *MemoryStore) DeactivatePolicy(ctx context.Context, id string) (*domain.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.policies[id]
	if !ok {
		return nil, ErrPolicyNotFound
	}
	p.IsActive = false
	p.UpdatedAt = time.Now()
	m.policies[id] = p
	return &p, nil
}

// Get implements sla.SLAStore.
func (m *MemoryStore) Get(ctx context.Context, ticketID string) (*domain.SLARecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[ticketID]
	if !ok {
		return nil, sla.ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

// Upsert implements sla.SLAStore.
func (m *MemoryStore) Upsert(ctx context.Context, record *domain.SLARecord) (*domain.SLARecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, exists := m.records[record.TicketID]
	if record.Version == 0 {
		if exists {
			return nil, sla.ErrDuplicateRecord
		}
	} else if !exists || current.Version != record.Version {
		return nil, sla.ErrStaleRecord
	}
	saved := *cloneRecord(*record)
	saved.Version = record.Version + 1
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	m.records[saved.TicketID] = saved
	return cloneRecord(saved), nil
}

// ListUnresolved implements sla.SLAStore.
func (m *MemoryStore) ListUnresolved(ctx context.Context, afterTicketID string, limit int) ([]domain.SLARecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.SLARecord
	for _, rec := range m.records {
		if rec.Resolved() || rec.TicketID <= afterTicketID {
			continue
		}
		out = append(out, *cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketID < out[j].TicketID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListAll implements sla.SLAStore.
func (m *MemoryStore) ListAll(ctx context.Context) ([]domain.SLARecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.SLARecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, *cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketID < out[j].TicketID })
	return out, nil
}

func cloneRecord(rec domain.SLARecord) *domain.SLARecord {
	out := rec
	if rec.FirstResponseAt != nil {
		at := *rec.FirstResponseAt
		out.FirstResponseAt = &at
	}
	if rec.ResolvedAt != nil {
		at := *rec.ResolvedAt
		out.ResolvedAt = &at
	}
	return &out
}

func sortPolicies(policies []domain.Policy) {
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].Priority != policies[j].Priority {
			return policies[i].Priority.Rank() < policies[j].Priority.Rank()
		}
		return policies[i].CreatedAt.Before(policies[j].CreatedAt)
	})
}
