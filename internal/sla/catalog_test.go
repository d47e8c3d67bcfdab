package sla_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/sla"
)

type policyStoreFunc func(ctx context.Context, priority domain.Priority) ([]domain.Policy, error)

func (f policyStoreFunc) ActivePoliciesFor(ctx context.Context, priority domain.Priority) ([]domain.Policy, error) {
	return f(ctx, priority)
}

func TestCatalog_FindActivePolicy(t *testing.T) {
	store := newStore(t,
		wallClockPolicy(domain.PriorityHigh, 30, 240),
		wallClockPolicy(domain.PriorityLow, 480, 2400),
	)
	catalog := sla.NewCatalog(store, nil)

	policy, err := catalog.FindActivePolicy(context.Background(), domain.PriorityHigh)

	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, policy.Priority)
	assert.Equal(t, 30, policy.ResponseTimeMinutes)
}

func TestCatalog_NotFound(t *testing.T) {
	store := newStore(t, wallClockPolicy(domain.PriorityHigh, 30, 240))

	_, err := sla.NewCatalog(store, nil).FindActivePolicy(context.Background(), domain.PriorityCritical)

	assert.ErrorIs(t, err, sla.ErrPolicyNotFound)
}

func TestCatalog_InactivePolicyIgnored(t *testing.T) {
	inactive := wallClockPolicy(domain.PriorityMedium, 60, 480)
	inactive.IsActive = false
	store := newStore(t, inactive)

	_, err := sla.NewCatalog(store, nil).FindActivePolicy(context.Background(), domain.PriorityMedium)

	assert.ErrorIs(t, err, sla.ErrPolicyNotFound)
}

func TestCatalog_DuplicateActivePoliciesPickNewest(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := policyStoreFunc(func(context.Context, domain.Priority) ([]domain.Policy, error) {
		return []domain.Policy{
			{ID: "old", Priority: domain.PriorityHigh, CreatedAt: minutesAfter(0), IsActive: true},
			{ID: "new", Priority: domain.PriorityHigh, CreatedAt: minutesAfter(10), IsActive: true},
			{ID: "mid", Priority: domain.PriorityHigh, CreatedAt: minutesAfter(5), IsActive: true},
		}, nil
	})

	policy, err := sla.NewCatalog(store, zap.New(core)).FindActivePolicy(context.Background(), domain.PriorityHigh)

	require.NoError(t, err)
	assert.Equal(t, "new", policy.ID)
	require.Equal(t, 1, logs.FilterMessage("duplicate active policies").Len())
}

func TestCatalog_DuplicateTieBreaksOnID(t *testing.T) {
	store := policyStoreFunc(func(context.Context, domain.Priority) ([]domain.Policy, error) {
		return []domain.Policy{
			{ID: "a", CreatedAt: base, IsActive: true},
			{ID: "b", CreatedAt: base, IsActive: true},
		}, nil
	})

	policy, err := sla.NewCatalog(store, nil).FindActivePolicy(context.Background(), domain.PriorityHigh)

	require.NoError(t, err)
	assert.Equal(t, "b", policy.ID)
}

func TestCatalog_StoreError(t *testing.T) {
	boom := errors.New("connection reset")
	store := policyStoreFunc(func(context.Context, domain.Priority) ([]domain.Policy, error) {
		return nil, boom
	})

	_, err := sla.NewCatalog(store, nil).FindActivePolicy(context.Background(), domain.PriorityHigh)

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, sla.ErrPolicyNotFound)
}
