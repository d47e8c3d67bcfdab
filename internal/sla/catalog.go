package sla

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// Catalog selects the active policy for a ticket priority.
type Catalog struct {
	policies PolicyStore
	logger   *zap.Logger
}

// NewCatalog creates a catalog backed by the given store.
func NewCatalog(policies PolicyStore, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{policies: policies, logger: logger}
}

// FindActivePolicy returns the active policy for priority, or
// ErrPolicyNotFound. More than one active policy is a data-integrity
// problem: it is logged and the most recently created one wins.
func (c *Catalog) FindActivePolicy(ctx context.Context, priority domain.Priority) (*domain.Policy, error) {
	policies, err := c.policies.ActivePoliciesFor(ctx, priority)
	if err != nil {
		return nil, fmt.Errorf("load policies for %s: %w", priority, err)
	}
	if len(policies) == 0 {
		return nil, fmt.Errorf("%w for priority %s", ErrPolicyNotFound, priority)
	}
	if len(policies) > 1 {
		sort.Slice(policies, func(i, j int) bool {
			if policies[i].CreatedAt.Equal(policies[j].CreatedAt) {
				return policies[i].ID > policies[j].ID
			}
			return policies[i].CreatedAt.After(policies[j].CreatedAt)
		})
		ids := make([]string, 0, len(policies))
		for _, p := range policies {
			ids = append(ids, p.ID)
		}
		c.logger.Warn("duplicate active policies",
			zap.String("priority", string(priority)),
			zap.Strings("policy_ids", ids),
			zap.String("selected", policies[0].ID))
	}
	selected := policies[0]
	return &selected, nil
}
